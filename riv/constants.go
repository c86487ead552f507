package riv

// Container header layout.
const (
	// Magic is the four byte tag every container starts with.
	Magic = "RIVE"

	// HeaderSize is magic (4) + version (u16) + TOC offset (u16).
	HeaderSize = 8

	// DescriptorSize is tag (u16) + offset (u32) + length (u32).
	DescriptorSize = 10

	// tocCountSize is the u16 descriptor count that opens the TOC.
	tocCountSize = 2

	versionOffset   = 4
	tocOffsetOffset = 6
)

// Section type tags. Only the state machine tag is interpreted; the others are
// listed for inspection output.
const (
	SectionArtboard     uint16 = 1
	SectionAnimation    uint16 = 31
	SectionStateMachine uint16 = 53
)

// Terminator ends an object's property list and a section's object list.
const Terminator byte = 0

// Object type tags for state machine inputs.
const (
	TypeNumberInput  byte = 56
	TypeBooleanInput byte = 57
	TypeTriggerInput byte = 58
)

// Property keys. Keys are a single byte on the wire.
const (
	PropertyName             byte = 4
	PropertyParentID         byte = 5
	PropertyStateMachineName byte = 55
	PropertyComponentName    byte = 138
	PropertyDefaultValue     byte = 140
	PropertyBoolValue        byte = 141
)

// SectionName returns a readable name for a section tag.
func SectionName(tag uint16) string {
	switch tag {
	case SectionArtboard:
		return "artboard"
	case SectionAnimation:
		return "animation"
	case SectionStateMachine:
		return "state_machine"
	default:
		return "opaque"
	}
}
