package riv

import (
	stderrors "errors"
	"fmt"

	"github.com/wippyai/riv-patcher/errors"
	"github.com/wippyai/riv-patcher/riv/internal/binary"
)

// FieldType is the wire type of a property value.
type FieldType uint8

const (
	FieldUint   FieldType = iota + 1 // varint
	FieldString                      // varint length + UTF-8 bytes
	FieldDouble                      // 8 bytes little-endian
	FieldBool                        // 1 byte
	FieldColor                       // 4 bytes little-endian
	FieldBytes                       // varint length + raw bytes
)

func (f FieldType) String() string {
	switch f {
	case FieldUint:
		return "uint"
	case FieldString:
		return "string"
	case FieldDouble:
		return "double"
	case FieldBool:
		return "bool"
	case FieldColor:
		return "color"
	case FieldBytes:
		return "bytes"
	default:
		return fmt.Sprintf("FieldType(%d)", uint8(f))
	}
}

// PropertyTypes maps property keys to their wire types. The walker cannot skip
// a property whose key is missing from the table.
type PropertyTypes map[byte]FieldType

// DefaultPropertyTypes returns the table for the keys state machine sections
// use.
func DefaultPropertyTypes() PropertyTypes {
	return PropertyTypes{
		PropertyName:             FieldString,
		PropertyParentID:         FieldUint,
		PropertyStateMachineName: FieldString,
		PropertyComponentName:    FieldString,
		PropertyDefaultValue:     FieldDouble,
		PropertyBoolValue:        FieldBool,
	}
}

// Property is one decoded key/value pair. Value holds uint64, string,
// float64, bool, uint32 or []byte according to Type.
type Property struct {
	Value any
	Key   byte
	Type  FieldType
}

// Object is one record inside a section.
type Object struct {
	Properties []Property
	Type       uint64
	Offset     int
	Length     int
}

// Property returns the first property with key.
func (o Object) Property(key byte) (Property, bool) {
	for _, p := range o.Properties {
		if p.Key == key {
			return p, true
		}
	}
	return Property{}, false
}

// Name returns the object's name from whichever name property it carries.
func (o Object) Name() string {
	for _, key := range []byte{PropertyName, PropertyComponentName, PropertyStateMachineName} {
		if p, ok := o.Property(key); ok {
			if s, ok := p.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

// InputKind reports the input kind for input objects.
func (o Object) InputKind() (InputKind, bool) {
	switch o.Type {
	case uint64(TypeNumberInput):
		return InputNumber, true
	case uint64(TypeBooleanInput):
		return InputBoolean, true
	case uint64(TypeTriggerInput):
		return InputTrigger, true
	default:
		return 0, false
	}
}

// Default returns the DEFAULT_VALUE property, if present.
func (o Object) Default() (float64, bool) {
	p, ok := o.Property(PropertyDefaultValue)
	if !ok {
		return 0, false
	}
	v, ok := p.Value.(float64)
	return v, ok
}

// WalkObjects decodes the records of section s in order and calls fn for each.
// Zero bytes where a type tag is expected are padding. The section's final
// byte is its terminator and is not part of any record.
func WalkObjects(data []byte, s Section, props PropertyTypes, fn func(Object) error) error {
	if s.End() > uint64(len(data)) {
		return errors.TruncatedTOC(s.path(), s.End(), uint64(len(data)))
	}
	if s.Length == 0 {
		return errors.MalformedSection(s.path(), "empty section has no terminator")
	}
	if props == nil {
		props = DefaultPropertyTypes()
	}

	r := binary.NewReader(data[:s.End()-1])
	if err := r.Seek(int(s.Offset)); err != nil {
		return errors.MalformedSection(s.path(), err.Error())
	}

	for r.Len() > 0 {
		start := r.Position()
		if b, _ := r.ReadByte(); b == 0 {
			continue
		}
		_ = r.Seek(start)

		obj, err := readObject(r, s, props)
		if err != nil {
			return err
		}
		if err := fn(obj); err != nil {
			return err
		}
	}
	return nil
}

// CountObjects returns the number of records in section s.
func CountObjects(data []byte, s Section, props PropertyTypes) (int, error) {
	n := 0
	err := WalkObjects(data, s, props, func(Object) error {
		n++
		return nil
	})
	return n, err
}

func readObject(r *binary.Reader, s Section, props PropertyTypes) (Object, error) {
	start := r.Position()
	path := append(s.path(), fmt.Sprintf("object@%d", start))

	typ, err := r.ReadU64()
	if err != nil {
		return Object{}, errors.MalformedVarint(start, "object type tag: "+err.Error())
	}

	obj := Object{Offset: start, Type: typ}
	for {
		key, err := r.ReadByte()
		if err != nil {
			return Object{}, errors.MalformedSection(path, "object runs past section end without terminator")
		}
		if key == Terminator {
			break
		}
		ft, ok := props[key]
		if !ok {
			return Object{}, errors.UnknownProperty(path, key)
		}
		valueAt := r.Position()
		v, err := readField(r, ft)
		if err != nil {
			return Object{}, fieldError(err, path, key, valueAt)
		}
		obj.Properties = append(obj.Properties, Property{Key: key, Type: ft, Value: v})
	}
	obj.Length = r.Position() - start
	return obj, nil
}

func readField(r *binary.Reader, ft FieldType) (any, error) {
	switch ft {
	case FieldUint:
		return r.ReadU64()
	case FieldString:
		return r.ReadName()
	case FieldDouble:
		return r.ReadF64LE()
	case FieldBool:
		b, err := r.ReadByte()
		return b != 0, err
	case FieldColor:
		return r.ReadU32LE()
	case FieldBytes:
		n, err := r.ReadU64()
		if err != nil {
			return nil, err
		}
		if n > uint64(r.Len()) {
			return nil, binary.ErrShortBuffer
		}
		b, err := r.ReadBytes(int(n))
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), b...), nil
	default:
		return nil, fmt.Errorf("unsupported field type %v", ft)
	}
}

func fieldError(err error, path []string, key byte, at int) error {
	if stderrors.Is(err, binary.ErrOverflow) {
		return errors.MalformedVarint(at, fmt.Sprintf("property %d: value overflows 64 bits", key))
	}
	return errors.New(errors.PhaseDecode, errors.KindMalformedSection).
		Path(path...).
		Detail("property %d at offset %d", key, at).
		Value(key).
		Cause(err).
		Build()
}
