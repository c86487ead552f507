package riv

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/wippyai/riv-patcher/errors"
)

// InputKind selects which state machine input type a record describes.
// The numeric values are the ones the host bridge passes across its ABI.
type InputKind int32

const (
	InputNumber  InputKind = 0
	InputBoolean InputKind = 1
	InputTrigger InputKind = 2
)

// String returns the lowercase kind name.
func (k InputKind) String() string {
	switch k {
	case InputNumber:
		return "number"
	case InputBoolean:
		return "boolean"
	case InputTrigger:
		return "trigger"
	default:
		return fmt.Sprintf("InputKind(%d)", int32(k))
	}
}

// Valid reports whether k is one of the enumerated kinds.
func (k InputKind) Valid() bool {
	return k >= InputNumber && k <= InputTrigger
}

// TypeTag returns the object type tag written for k.
func (k InputKind) TypeTag() (byte, error) {
	switch k {
	case InputNumber:
		return TypeNumberInput, nil
	case InputBoolean:
		return TypeBooleanInput, nil
	case InputTrigger:
		return TypeTriggerInput, nil
	default:
		return 0, errors.InvalidInputKind(int32(k))
	}
}

// ParseInputKind parses a kind name. It accepts "bool" as well as "boolean".
func ParseInputKind(s string) (InputKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "number":
		return InputNumber, nil
	case "boolean", "bool":
		return InputBoolean, nil
	case "trigger":
		return InputTrigger, nil
	default:
		return 0, errors.InvalidInputKind(s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k InputKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, errors.InvalidInputKind(int32(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *InputKind) UnmarshalText(text []byte) error {
	v, err := ParseInputKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// InputSpec describes the input object to graft onto a state machine.
// Min, Max and Default are only meaningful for InputNumber.
type InputSpec struct {
	Name    string
	Kind    InputKind
	Min     float64
	Max     float64
	Default float64
}

// NewInput returns a spec whose default equals min.
func NewInput(name string, kind InputKind, min, max float64) InputSpec {
	return InputSpec{
		Name:    name,
		Kind:    kind,
		Min:     min,
		Max:     max,
		Default: min,
	}
}

// Validate checks the kind, the name and, for numbers, the bounds.
func (s InputSpec) Validate() error {
	if !s.Kind.Valid() {
		return errors.InvalidInputKind(int32(s.Kind))
	}
	if s.Name == "" {
		return errors.InvalidName(s.Name, "name must not be empty")
	}
	if !utf8.ValidString(s.Name) {
		return errors.InvalidName(s.Name, "name is not valid UTF-8")
	}
	if s.Kind != InputNumber {
		return nil
	}
	if math.IsNaN(s.Min) || math.IsNaN(s.Max) || math.IsNaN(s.Default) {
		return errors.InvalidBounds("bounds of %q must not be NaN", s.Name)
	}
	if s.Min > s.Max {
		return errors.InvalidBounds("min %v > max %v for %q", s.Min, s.Max, s.Name)
	}
	if s.Default < s.Min || s.Default > s.Max {
		return errors.InvalidBounds("default %v outside [%v, %v] for %q", s.Default, s.Min, s.Max, s.Name)
	}
	return nil
}

// Header is the fixed-size container header.
type Header struct {
	Version   uint16
	TOCOffset uint16
}

// Section is one TOC descriptor.
type Section struct {
	Index  int
	Tag    uint16
	Offset uint32
	Length uint32

	// DescriptorOffset is the absolute position of this descriptor in the TOC.
	DescriptorOffset int
}

// End returns the exclusive end offset of the section's bytes.
func (s Section) End() uint64 {
	return uint64(s.Offset) + uint64(s.Length)
}

// Name returns the readable section type name.
func (s Section) Name() string {
	return SectionName(s.Tag)
}

func (s Section) path() []string {
	return []string{"toc", fmt.Sprintf("section[%d]", s.Index)}
}

// Location is the result of locating the insertion point in a container.
type Location struct {
	Header   Header
	Sections []Section

	// Target is the state machine section that receives the record.
	Target Section

	// InsertAt is the absolute offset of Target's terminator byte.
	InsertAt int
}

// TOCEnd returns the exclusive end offset of the TOC.
func (l *Location) TOCEnd() int {
	return int(l.Header.TOCOffset) + tocCountSize + len(l.Sections)*DescriptorSize
}
