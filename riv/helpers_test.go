package riv_test

import (
	"encoding/binary"
	"testing"

	"github.com/wippyai/riv-patcher/riv"
)

// minimalContainer is "RIVE" + header(toc=8) + one 4 byte state machine
// section at offset 20 holding only zeros.
func minimalContainer() []byte {
	return []byte{
		'R', 'I', 'V', 'E',
		0x01, 0x00, // version
		0x08, 0x00, // toc offset
		0x01, 0x00, // count
		0x35, 0x00, // tag 53
		0x14, 0x00, 0x00, 0x00, // offset 20
		0x04, 0x00, 0x00, 0x00, // length 4
		0x00, 0x00, 0x00, 0x00,
	}
}

type descriptor struct {
	tag    uint16
	offset uint32
	length uint32
}

// rawContainer writes a header and a TOC at tocOffset into a zeroed buffer of
// size bytes. Section bodies are left to the caller.
func rawContainer(t *testing.T, size int, tocOffset uint16, descs ...descriptor) []byte {
	t.Helper()
	need := int(tocOffset) + 2 + len(descs)*riv.DescriptorSize
	if size < need {
		t.Fatalf("rawContainer: size %d < %d", size, need)
	}
	data := make([]byte, size)
	copy(data, riv.Magic)
	binary.LittleEndian.PutUint16(data[4:], 1)
	binary.LittleEndian.PutUint16(data[6:], tocOffset)
	binary.LittleEndian.PutUint16(data[tocOffset:], uint16(len(descs)))
	p := int(tocOffset) + 2
	for _, d := range descs {
		binary.LittleEndian.PutUint16(data[p:], d.tag)
		binary.LittleEndian.PutUint32(data[p+2:], d.offset)
		binary.LittleEndian.PutUint32(data[p+6:], d.length)
		p += riv.DescriptorSize
	}
	return data
}

func mustAssemble(t *testing.T, sections ...riv.SectionData) []byte {
	t.Helper()
	data, err := riv.Assemble(1, sections...)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return data
}

func mustRecord(t *testing.T, spec riv.InputSpec) []byte {
	t.Helper()
	rec, err := riv.BuildRecord(spec)
	if err != nil {
		t.Fatalf("BuildRecord(%+v): %v", spec, err)
	}
	return rec
}
