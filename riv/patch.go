package riv

import (
	"fmt"

	"github.com/wippyai/riv-patcher/errors"
)

// Patch returns a copy of data with spec added as the last object of the first
// state machine section. The operation is all-or-nothing.
func Patch(data []byte, spec InputSpec) ([]byte, error) {
	record, err := BuildRecord(spec)
	if err != nil {
		return nil, err
	}
	loc, err := Locate(data)
	if err != nil {
		return nil, err
	}
	return Splice(data, loc, record)
}

// PatchAll applies each spec in order. Inputs end up in the section in the
// same order they are given.
func PatchAll(data []byte, specs ...InputSpec) ([]byte, error) {
	out := data
	for i, spec := range specs {
		next, err := Patch(out, spec)
		if err != nil {
			return nil, fmt.Errorf("input %d (%q): %w", i, spec.Name, err)
		}
		out = next
	}
	if len(specs) == 0 {
		out = append([]byte(nil), data...)
	}
	return out, nil
}

// PatchedSize reports how large the result of Patch(data, spec) would be
// without building it.
func PatchedSize(data []byte, spec InputSpec) (int, error) {
	if err := spec.Validate(); err != nil {
		return 0, err
	}
	if _, err := Locate(data); err != nil {
		return 0, err
	}
	return len(data) + RecordLen(spec), nil
}

// PatchInto writes the patched container into dst and returns the number of
// bytes written. If the result does not fit in len(dst) it fails with
// KindOutputTooSmall. dst is left untouched on every failure.
func PatchInto(dst, src []byte, spec InputSpec) (int, error) {
	out, err := Patch(src, spec)
	if err != nil {
		return 0, err
	}
	if len(out) > len(dst) {
		return 0, errors.OutputTooSmall(len(out), len(dst))
	}
	return copy(dst, out), nil
}
