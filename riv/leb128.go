package riv

import (
	"math"

	"github.com/wippyai/riv-patcher/errors"
)

// Varint and primitive encodings used by container objects.

// MaxVarintLen is the longest valid varint encoding of a uint64.
const MaxVarintLen = 10

// AppendVarint appends the unsigned LEB128 encoding of v to dst.
func AppendVarint(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if v == 0 {
			return dst
		}
	}
}

// EncodeVarint encodes v as an unsigned LEB128 value.
func EncodeVarint(v uint64) []byte {
	return AppendVarint(make([]byte, 0, VarintLen(v)), v)
}

// VarintLen returns the encoded size of v.
func VarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// DecodeVarint decodes an unsigned LEB128 value starting at data[offset].
// It returns the value and the number of bytes consumed.
func DecodeVarint(data []byte, offset int) (uint64, int, error) {
	if offset < 0 || offset > len(data) {
		return 0, 0, errors.MalformedVarint(offset, "offset outside buffer")
	}
	var result uint64
	var shift uint
	for i := 0; i < MaxVarintLen; i++ {
		p := offset + i
		if p >= len(data) {
			return 0, 0, errors.MalformedVarint(offset, "continuation runs past end of buffer")
		}
		b := data[p]
		if i == MaxVarintLen-1 && b > 1 {
			return 0, 0, errors.MalformedVarint(offset, "value overflows 64 bits")
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, errors.MalformedVarint(offset, "value overflows 64 bits")
}

// AppendString appends a varint length prefix and the raw bytes of s.
func AppendString(dst []byte, s string) []byte {
	dst = AppendVarint(dst, uint64(len(s)))
	return append(dst, s...)
}

// EncodeString encodes s as a varint length-prefixed byte string.
func EncodeString(s string) []byte {
	return AppendString(make([]byte, 0, VarintLen(uint64(len(s)))+len(s)), s)
}

// AppendFloat64 appends the IEEE-754 bits of v least significant byte first.
// The layout does not depend on the host byte order.
func AppendFloat64(dst []byte, v float64) []byte {
	bits := math.Float64bits(v)
	for i := 0; i < 8; i++ {
		dst = append(dst, byte(bits>>(8*i)))
	}
	return dst
}

// EncodeFloat64 returns the 8 byte little-endian encoding of v.
func EncodeFloat64(v float64) [8]byte {
	var out [8]byte
	bits := math.Float64bits(v)
	for i := range out {
		out[i] = byte(bits >> (8 * i))
	}
	return out
}

// DecodeFloat64 decodes 8 little-endian bytes at data[offset].
func DecodeFloat64(data []byte, offset int) (float64, error) {
	if offset < 0 || len(data)-offset < 8 {
		return 0, errors.OutOfBounds(errors.PhaseDecode, nil, offset+8, len(data))
	}
	var bits uint64
	for i := 7; i >= 0; i-- {
		bits = bits<<8 | uint64(data[offset+i])
	}
	return math.Float64frombits(bits), nil
}
