package riv

// Document is a read-only view of a container: its header, its sections, and
// the decoded objects of every state machine section.
type Document struct {
	Objects  map[int][]Object
	Sections []Section
	Header   Header
	Size     int
}

// Input is an input object found in a state machine section.
type Input struct {
	Name    string
	Section int
	Offset  int
	Kind    InputKind
	Default float64
}

// Inspect decodes data with the default property table.
func Inspect(data []byte) (*Document, error) {
	return InspectWith(data, DefaultPropertyTypes())
}

// InspectWith decodes data, walking state machine sections with props.
func InspectWith(data []byte, props PropertyTypes) (*Document, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	sections, err := ParseTOC(data, h)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Header:   h,
		Sections: sections,
		Objects:  make(map[int][]Object),
		Size:     len(data),
	}
	for _, s := range sections {
		if s.Tag != SectionStateMachine {
			continue
		}
		var objs []Object
		err := WalkObjects(data, s, props, func(o Object) error {
			objs = append(objs, o)
			return nil
		})
		if err != nil {
			return nil, err
		}
		doc.Objects[s.Index] = objs
	}
	return doc, nil
}

// StateMachines returns the state machine sections in TOC order.
func (d *Document) StateMachines() []Section {
	var out []Section
	for _, s := range d.Sections {
		if s.Tag == SectionStateMachine {
			out = append(out, s)
		}
	}
	return out
}

// Inputs returns every input object across state machine sections, in order.
func (d *Document) Inputs() []Input {
	var out []Input
	for _, s := range d.StateMachines() {
		for _, o := range d.Objects[s.Index] {
			kind, ok := o.InputKind()
			if !ok {
				continue
			}
			in := Input{
				Name:    o.Name(),
				Section: s.Index,
				Offset:  o.Offset,
				Kind:    kind,
			}
			in.Default, _ = o.Default()
			out = append(out, in)
		}
	}
	return out
}

// FindInput returns the first input called name.
func (d *Document) FindInput(name string) (Input, bool) {
	for _, in := range d.Inputs() {
		if in.Name == name {
			return in, true
		}
	}
	return Input{}, false
}
