package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

// Reader errors. Callers translate them into container error kinds.
var (
	// ErrShortBuffer is returned when a read needs more bytes than remain.
	ErrShortBuffer = errors.New("short buffer")

	// ErrOverflow is returned when a varint exceeds 64 bits.
	ErrOverflow = errors.New("varint: overflow")

	// ErrInvalidUTF8 is returned by ReadName for non UTF-8 payloads.
	ErrInvalidUTF8 = errors.New("invalid UTF-8 in name")
)

// MaxVarintLen is the longest valid encoding of a uint64 varint.
const MaxVarintLen = 10

// Reader reads container primitives from a byte slice with position tracking.
// Every read is checked against the slice length; a failed read leaves the
// position unchanged.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a new Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Position returns the current byte position.
func (r *Reader) Position() int {
	return r.pos
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.data) - r.pos
}

// Size returns the length of the underlying slice.
func (r *Reader) Size() int {
	return len(r.data)
}

// Seek moves to an absolute position in [0, Size()].
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return r.wrapError(fmt.Errorf("seek to %d: %w", pos, ErrShortBuffer))
	}
	r.pos = pos
	return nil
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, r.wrapError(ErrShortBuffer)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes returns the next n bytes. The result aliases the underlying slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > r.Len() {
		return nil, r.wrapError(fmt.Errorf("need %d bytes, have %d: %w", n, r.Len(), ErrShortBuffer))
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadU16LE reads a little-endian uint16 (fixed 2 bytes).
func (r *Reader) ReadU16LE() (uint16, error) {
	buf, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf), nil
}

// ReadU32LE reads a little-endian uint32 (fixed 4 bytes).
func (r *Reader) ReadU32LE() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// ReadF64LE reads a little-endian IEEE-754 double (fixed 8 bytes).
func (r *Reader) ReadF64LE() (float64, error) {
	buf, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
}

// ReadU64 reads an unsigned LEB128 encoded uint64.
func (r *Reader) ReadU64() (uint64, error) {
	var result uint64
	var shift uint
	for i := 0; ; i++ {
		p := r.pos + i
		if p >= len(r.data) {
			return 0, r.wrapError(ErrShortBuffer)
		}
		if i == MaxVarintLen {
			return 0, r.wrapError(ErrOverflow)
		}
		b := r.data[p]
		if i == MaxVarintLen-1 && b > 1 {
			return 0, r.wrapError(ErrOverflow)
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			r.pos = p + 1
			return result, nil
		}
		shift += 7
	}
}

// ReadName reads a UTF-8 encoded name (varint length-prefixed byte sequence).
func (r *Reader) ReadName() (string, error) {
	start := r.pos
	length, err := r.ReadU64()
	if err != nil {
		return "", err
	}
	if length > uint64(r.Len()) {
		r.pos = start
		return "", r.wrapError(fmt.Errorf("name length %d exceeds %d remaining: %w", length, r.Len(), ErrShortBuffer))
	}
	data, _ := r.ReadBytes(int(length))
	if !utf8.Valid(data) {
		r.pos = start
		return "", r.wrapError(ErrInvalidUTF8)
	}
	return string(data), nil
}

func (r *Reader) wrapError(err error) error {
	return fmt.Errorf("at position %d: %w", r.pos, err)
}

// ParseError represents an error during binary parsing with position information.
type ParseError struct {
	Err      error
	Section  string
	Position int
}

func (e *ParseError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("riv: %s at position %d: %v", e.Section, e.Position, e.Err)
	}
	return fmt.Sprintf("riv: at position %d: %v", e.Position, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// WrapError creates a ParseError with the current position.
func (r *Reader) WrapError(section string, err error) error {
	return &ParseError{
		Position: r.pos,
		Section:  section,
		Err:      err,
	}
}
