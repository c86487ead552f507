package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode   Phase = "decode"   // container to Go
	PhaseEncode   Phase = "encode"   // Go to container bytes
	PhaseValidate Phase = "validate" // input spec validation
	PhaseSplice   Phase = "splice"   // record insertion and offset fixups
	PhaseIO       Phase = "io"       // file system access
	PhaseHost     Phase = "host"     // guest runtime bridge
	PhaseConfig   Phase = "config"   // manifest loading
)

// Kind categorizes the error
type Kind string

const (
	KindNotAContainer    Kind = "not_a_container"
	KindTruncatedTOC     Kind = "truncated_toc"
	KindMalformedVarint  Kind = "malformed_varint"
	KindSectionNotFound  Kind = "section_not_found"
	KindMalformedSection Kind = "malformed_section"
	KindUnknownProperty  Kind = "unknown_property"
	KindInvalidInputKind Kind = "invalid_input_kind"
	KindInvalidBounds    Kind = "invalid_bounds"
	KindInvalidName      Kind = "invalid_name"
	KindOutputTooSmall   Kind = "output_too_small"
	KindOffsetOverflow   Kind = "offset_overflow"
	KindOutOfBounds      Kind = "out_of_bounds"
	KindIO               Kind = "io"
	KindInvalidConfig    Kind = "invalid_config"
)

// Sentinels for errors.Is. They carry no phase, so they match an error of the
// same kind raised in any phase.
var (
	ErrNotAContainer    = &Error{Kind: KindNotAContainer}
	ErrTruncatedTOC     = &Error{Kind: KindTruncatedTOC}
	ErrMalformedVarint  = &Error{Kind: KindMalformedVarint}
	ErrSectionNotFound  = &Error{Kind: KindSectionNotFound}
	ErrMalformedSection = &Error{Kind: KindMalformedSection}
	ErrUnknownProperty  = &Error{Kind: KindUnknownProperty}
	ErrInvalidInputKind = &Error{Kind: KindInvalidInputKind}
	ErrInvalidBounds    = &Error{Kind: KindInvalidBounds}
	ErrInvalidName      = &Error{Kind: KindInvalidName}
	ErrOutputTooSmall   = &Error{Kind: KindOutputTooSmall}
	ErrOffsetOverflow   = &Error{Kind: KindOffsetOverflow}
	ErrOutOfBounds      = &Error{Kind: KindOutOfBounds}
	ErrIO               = &Error{Kind: KindIO}
	ErrInvalidConfig    = &Error{Kind: KindInvalidConfig}
)

// Error is the structured error type used throughout the patcher
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Kinds must be equal; the phase
// is compared only when the target names one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the location path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NotAContainer creates an error for a buffer that is not a container
func NotAContainer(detail string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindNotAContainer,
		Detail: detail,
	}
}

// TruncatedTOC creates an error for a TOC field that points past the buffer
func TruncatedTOC(path []string, need, have uint64) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindTruncatedTOC,
		Path:   path,
		Detail: fmt.Sprintf("needs %d bytes, buffer has %d", need, have),
		Value:  need,
	}
}

// MalformedVarint creates an error for a varint that runs past the buffer or 64 bits
func MalformedVarint(offset int, detail string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindMalformedVarint,
		Detail: fmt.Sprintf("at offset %d: %s", offset, detail),
		Value:  offset,
	}
}

// SectionNotFound creates an error for a missing section
func SectionNotFound(what string, tag uint16) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindSectionNotFound,
		Detail: fmt.Sprintf("no %s section (tag %d)", what, tag),
		Value:  tag,
	}
}

// MalformedSection creates an error for a section whose body cannot be patched
func MalformedSection(path []string, detail string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindMalformedSection,
		Path:   path,
		Detail: detail,
	}
}

// UnknownProperty creates an error for a property key with no known field type
func UnknownProperty(path []string, key byte) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnknownProperty,
		Path:   path,
		Detail: fmt.Sprintf("no field type for property key %d", key),
		Value:  key,
	}
}

// InvalidInputKind creates an error for an input kind outside the enumeration
func InvalidInputKind(value any) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindInvalidInputKind,
		Detail: fmt.Sprintf("invalid input kind %v", value),
		Value:  value,
	}
}

// InvalidBounds creates an error for inconsistent numeric bounds
func InvalidBounds(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindInvalidBounds,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// InvalidName creates an error for an unusable input name
func InvalidName(name, detail string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindInvalidName,
		Detail: detail,
		Value:  name,
	}
}

// OutputTooSmall creates an error for an output buffer below the patched size
func OutputTooSmall(need, capacity int) *Error {
	return &Error{
		Phase:  PhaseSplice,
		Kind:   KindOutputTooSmall,
		Detail: fmt.Sprintf("patched size %d exceeds capacity %d", need, capacity),
		Value:  need,
	}
}

// OffsetOverflow creates an overflow error for a fixed-width field
func OffsetOverflow(path []string, value uint64, width string) *Error {
	return &Error{
		Phase:  PhaseSplice,
		Kind:   KindOffsetOverflow,
		Path:   path,
		Detail: fmt.Sprintf("value %d overflows %s", value, width),
		Value:  value,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// IO wraps a file system failure
func IO(op, path string, cause error) *Error {
	return &Error{
		Phase:  PhaseIO,
		Kind:   KindIO,
		Detail: fmt.Sprintf("%s %s", op, path),
		Cause:  cause,
	}
}

// InvalidConfig creates a configuration error
func InvalidConfig(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidConfig,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
