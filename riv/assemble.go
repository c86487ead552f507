package riv

import (
	"math"

	"github.com/wippyai/riv-patcher/errors"
	"github.com/wippyai/riv-patcher/riv/internal/binary"
)

// SectionData is a section to write with Assemble.
type SectionData struct {
	Body []byte
	Tag  uint16
}

// Assemble encodes a container: header, TOC directly after the header, then
// the section bodies in order.
func Assemble(version uint16, sections ...SectionData) ([]byte, error) {
	if len(sections) > math.MaxUint16 {
		return nil, errors.New(errors.PhaseEncode, errors.KindOffsetOverflow).
			Path("toc", "count").
			Detail("%d sections overflow u16", len(sections)).
			Value(len(sections)).
			Build()
	}

	tocSize := tocCountSize + len(sections)*DescriptorSize
	total := uint64(HeaderSize + tocSize)
	for _, s := range sections {
		total += uint64(len(s.Body))
	}
	if total > math.MaxUint32 {
		return nil, errors.New(errors.PhaseEncode, errors.KindOffsetOverflow).
			Detail("container size %d overflows u32 offsets", total).
			Value(total).
			Build()
	}

	w := binary.NewWriterSize(int(total))
	w.WriteBytes([]byte(Magic))
	w.WriteU16LE(version)
	w.WriteU16LE(HeaderSize)

	w.WriteU16LE(uint16(len(sections)))
	offset := uint32(HeaderSize + tocSize)
	for _, s := range sections {
		w.WriteU16LE(s.Tag)
		w.WriteU32LE(offset)
		w.WriteU32LE(uint32(len(s.Body)))
		offset += uint32(len(s.Body))
	}
	for _, s := range sections {
		w.WriteBytes(s.Body)
	}
	return w.Bytes(), nil
}

// StateMachineBody concatenates object records and appends the section
// terminator.
func StateMachineBody(records ...[]byte) []byte {
	w := binary.NewWriter()
	for _, r := range records {
		w.WriteBytes(r)
	}
	w.Byte(Terminator)
	return w.Bytes()
}

// StateMachineRecord encodes the state machine object that owns the inputs
// following it.
func StateMachineRecord(name string) []byte {
	w := binary.NewWriter()
	w.WriteU64(uint64(SectionStateMachine))
	w.Byte(PropertyStateMachineName)
	w.WriteName(name)
	w.Byte(Terminator)
	return w.Bytes()
}
