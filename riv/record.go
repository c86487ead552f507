package riv

// BuildRecord serializes spec as one object record:
//
//	type tag, NAME key, name string, [DEFAULT_VALUE key, f64], terminator
//
// Only Number inputs carry a default value. Min and max are validated but not
// written.
func BuildRecord(spec InputSpec) ([]byte, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	tag, err := spec.Kind.TypeTag()
	if err != nil {
		return nil, err
	}
	return appendRecord(make([]byte, 0, RecordLen(spec)), tag, spec), nil
}

// RecordLen returns the size of the record BuildRecord produces for spec.
func RecordLen(spec InputSpec) int {
	n := 1 + 1 + VarintLen(uint64(len(spec.Name))) + len(spec.Name) + 1
	if spec.Kind == InputNumber {
		n += 1 + 8
	}
	return n
}

func appendRecord(dst []byte, tag byte, spec InputSpec) []byte {
	dst = append(dst, tag)
	dst = append(dst, PropertyName)
	dst = AppendString(dst, spec.Name)
	if spec.Kind == InputNumber {
		dst = append(dst, PropertyDefaultValue)
		dst = AppendFloat64(dst, spec.Default)
	}
	return append(dst, Terminator)
}
