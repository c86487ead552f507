// Package riv patches state machine inputs into RIVE binary containers.
//
// A container is a magic-tagged header, a table of contents (TOC) of typed
// sections, and the section bodies. Everything is plain byte-slice code: the
// package keeps no state and never modifies a caller's buffer, so calls on
// separate buffers may run concurrently.
//
// # Wire Format
//
//	offset 0          "RIVE"
//	offset 4          version     u16 LE
//	offset 6          toc offset  u16 LE
//	toc offset        count       u16 LE
//	                  count x {tag u16, offset u32, length u32} LE
//
// A section body is a run of object records followed by one terminator byte.
// An object record is a varint type tag, single byte property keys each
// followed by a value, and a zero terminator.
//
// # Patching
//
// Patch appends an input record to the first state machine section, just
// before that section's terminator, and fixes up the TOC:
//
//	out, err := riv.Patch(data, riv.NewInput("speed", riv.InputNumber, 0, 100))
//
// PatchInto writes into a caller-owned buffer and reports
// errors.KindOutputTooSmall when the result does not fit:
//
//	n, err := riv.PatchInto(dst, data, spec)
//
// # Inspection
//
// Inspect decodes the TOC and the objects of state machine sections:
//
//	doc, err := riv.Inspect(data)
//	for _, in := range doc.Inputs() {
//	    fmt.Println(in.Name, in.Kind)
//	}
package riv
