package riv

import (
	"fmt"

	"github.com/wippyai/riv-patcher/errors"
	"github.com/wippyai/riv-patcher/riv/internal/binary"
)

// ParseHeader validates the magic tag and reads the fixed header.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, errors.NotAContainer(fmt.Sprintf("%d bytes is shorter than the %d byte header", len(data), HeaderSize))
	}
	if string(data[:len(Magic)]) != Magic {
		return Header{}, errors.New(errors.PhaseDecode, errors.KindNotAContainer).
			Detail("magic %q, want %q", data[:len(Magic)], Magic).
			Value(string(data[:len(Magic)])).
			Build()
	}

	r := binary.NewReader(data[:HeaderSize])
	_ = r.Seek(versionOffset)
	version, _ := r.ReadU16LE()
	tocOffset, _ := r.ReadU16LE()

	if tocOffset < HeaderSize {
		return Header{}, errors.NotAContainer(fmt.Sprintf("toc offset %d points into the header", tocOffset))
	}
	return Header{Version: version, TOCOffset: tocOffset}, nil
}

// ParseTOC reads every section descriptor. Each descriptor and each section
// range it declares must lie inside data.
func ParseTOC(data []byte, h Header) ([]Section, error) {
	size := uint64(len(data))
	tocPath := []string{"toc"}

	r := binary.NewReader(data)
	if err := r.Seek(int(h.TOCOffset)); err != nil {
		return nil, errors.TruncatedTOC(tocPath, uint64(h.TOCOffset)+tocCountSize, size)
	}
	count, err := r.ReadU16LE()
	if err != nil {
		return nil, errors.TruncatedTOC(tocPath, uint64(h.TOCOffset)+tocCountSize, size)
	}

	need := uint64(h.TOCOffset) + tocCountSize + uint64(count)*DescriptorSize
	if need > size {
		return nil, errors.New(errors.PhaseDecode, errors.KindTruncatedTOC).
			Path(tocPath...).
			Detail("%d descriptors need %d bytes, buffer has %d", count, need, size).
			Value(need).
			Build()
	}

	sections := make([]Section, 0, count)
	for i := 0; i < int(count); i++ {
		s := Section{Index: i, DescriptorOffset: r.Position()}
		// Bounds were checked above; these reads cannot fail.
		s.Tag, _ = r.ReadU16LE()
		s.Offset, _ = r.ReadU32LE()
		s.Length, _ = r.ReadU32LE()

		if s.End() > size {
			return nil, errors.TruncatedTOC(s.path(), s.End(), size)
		}
		sections = append(sections, s)
	}
	return sections, nil
}

// FindSection returns the first section carrying tag.
func FindSection(sections []Section, tag uint16) (Section, bool) {
	for _, s := range sections {
		if s.Tag == tag {
			return s, true
		}
	}
	return Section{}, false
}

// Locate parses the header and TOC and returns the first state machine section
// together with the offset of its terminator, where a new object record goes.
func Locate(data []byte) (*Location, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	sections, err := ParseTOC(data, h)
	if err != nil {
		return nil, err
	}

	target, ok := FindSection(sections, SectionStateMachine)
	if !ok {
		return nil, errors.SectionNotFound("state machine", SectionStateMachine)
	}
	if target.Length == 0 {
		return nil, errors.MalformedSection(target.path(), "empty section has no terminator")
	}

	loc := &Location{
		Header:   h,
		Sections: sections,
		Target:   target,
		InsertAt: int(target.End() - 1),
	}
	if err := loc.check(data); err != nil {
		return nil, err
	}
	return loc, nil
}

// check verifies that the insertion point can take a record without
// corrupting the header, the TOC, or another section.
func (l *Location) check(data []byte) error {
	at := l.InsertAt
	if at < HeaderSize || at >= len(data) {
		return errors.MalformedSection(l.Target.path(), fmt.Sprintf("terminator offset %d outside [%d, %d)", at, HeaderSize, len(data)))
	}
	if data[at] != Terminator {
		return errors.New(errors.PhaseDecode, errors.KindMalformedSection).
			Path(l.Target.path()...).
			Detail("last byte at offset %d is 0x%02x, want terminator", at, data[at]).
			Value(data[at]).
			Build()
	}
	if tocStart := int(l.Header.TOCOffset); at >= tocStart && at < l.TOCEnd() {
		return errors.MalformedSection(l.Target.path(), fmt.Sprintf("terminator offset %d lies inside the toc", at))
	}
	for _, s := range l.Sections {
		if s.Index == l.Target.Index {
			continue
		}
		if uint64(s.Offset) < uint64(at) && s.End() > uint64(at) {
			return errors.MalformedSection(s.path(), fmt.Sprintf("section [%d, %d) straddles insertion offset %d", s.Offset, s.End(), at))
		}
	}
	return nil
}
