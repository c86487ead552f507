package bridge

import (
	"github.com/wippyai/riv-patcher/errors"
)

// Result codes returned to the guest. Success is 0 for patch_rive_input and
// the byte count for patch_rive_input_memory; failures are negative.
const (
	CodeOK               int32 = 0
	CodeNotAContainer    int32 = -1
	CodeTruncatedTOC     int32 = -2
	CodeMalformedVarint  int32 = -3
	CodeSectionNotFound  int32 = -4
	CodeInvalidInputKind int32 = -5
	CodeInvalidBounds    int32 = -6
	CodeOutputTooSmall   int32 = -7
	CodeOffsetOverflow   int32 = -8
	CodeIO               int32 = -9
	CodeInvalidName      int32 = -10
	CodeMalformedSection int32 = -11
	CodeUnknownProperty  int32 = -12
	CodeOutOfBounds      int32 = -13
	CodeInternal         int32 = -99
)

var kindCodes = map[errors.Kind]int32{
	errors.KindNotAContainer:    CodeNotAContainer,
	errors.KindTruncatedTOC:     CodeTruncatedTOC,
	errors.KindMalformedVarint:  CodeMalformedVarint,
	errors.KindSectionNotFound:  CodeSectionNotFound,
	errors.KindInvalidInputKind: CodeInvalidInputKind,
	errors.KindInvalidBounds:    CodeInvalidBounds,
	errors.KindOutputTooSmall:   CodeOutputTooSmall,
	errors.KindOffsetOverflow:   CodeOffsetOverflow,
	errors.KindIO:               CodeIO,
	errors.KindInvalidName:      CodeInvalidName,
	errors.KindMalformedSection: CodeMalformedSection,
	errors.KindUnknownProperty:  CodeUnknownProperty,
	errors.KindOutOfBounds:      CodeOutOfBounds,
}

// ErrorCode maps err to the code reported to the guest. nil maps to CodeOK
// and errors without a known kind to CodeInternal.
func ErrorCode(err error) int32 {
	if err == nil {
		return CodeOK
	}
	if code, ok := kindCodes[errors.KindOf(err)]; ok {
		return code
	}
	return CodeInternal
}

// CodeKind is the inverse of ErrorCode for the mapped kinds.
func CodeKind(code int32) (errors.Kind, bool) {
	for k, c := range kindCodes {
		if c == code {
			return k, true
		}
	}
	return "", false
}
