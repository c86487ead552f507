package riv

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/wippyai/riv-patcher/errors"
)

type descriptorFixup struct {
	pos    int
	offset uint32
	length uint32
}

// Splice returns a new buffer with record inserted at loc.InsertAt. The target
// section's length grows by len(record); every other section starting at or
// after the insertion point, and the TOC itself when it follows the point,
// move forward by len(record). data is never modified.
func Splice(data []byte, loc *Location, record []byte) ([]byte, error) {
	if loc == nil {
		return nil, errors.New(errors.PhaseSplice, errors.KindMalformedSection).Detail("nil location").Build()
	}
	if err := loc.check(data); err != nil {
		return nil, err
	}

	at := loc.InsertAt
	n := uint64(len(record))

	tocOffset := uint64(loc.Header.TOCOffset)
	if tocOffset >= uint64(at) {
		tocOffset += n
	}
	if tocOffset > math.MaxUint16 {
		return nil, errors.OffsetOverflow([]string{"header", "toc_offset"}, tocOffset, "u16")
	}

	fixups := make([]descriptorFixup, 0, len(loc.Sections))
	for _, s := range loc.Sections {
		offset, length := uint64(s.Offset), uint64(s.Length)
		switch {
		case s.Index == loc.Target.Index:
			length += n
		case offset >= uint64(at):
			offset += n
		}
		if offset > math.MaxUint32 {
			return nil, errors.OffsetOverflow(append(s.path(), "offset"), offset, "u32")
		}
		if length > math.MaxUint32 {
			return nil, errors.OffsetOverflow(append(s.path(), "length"), length, "u32")
		}
		fixups = append(fixups, descriptorFixup{
			pos:    shiftPos(s.DescriptorOffset, at, len(record)),
			offset: uint32(offset),
			length: uint32(length),
		})
	}

	out := make([]byte, len(data)+len(record))
	copy(out, data[:at])
	copy(out[at:], record)
	copy(out[at+len(record):], data[at:])

	binary.LittleEndian.PutUint16(out[tocOffsetOffset:], uint16(tocOffset))
	for _, f := range fixups {
		if f.pos+DescriptorSize > len(out) {
			return nil, errors.OutOfBounds(errors.PhaseSplice, []string{"toc", fmt.Sprintf("descriptor@%d", f.pos)}, f.pos+DescriptorSize, len(out))
		}
		binary.LittleEndian.PutUint32(out[f.pos+2:], f.offset)
		binary.LittleEndian.PutUint32(out[f.pos+6:], f.length)
	}
	return out, nil
}

func shiftPos(pos, at, n int) int {
	if pos >= at {
		return pos + n
	}
	return pos
}
