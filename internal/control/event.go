package control

import "fmt"

// EventType is the kind of a control message. Its value is the status nibble.
type EventType uint8

// Supported event types.
const (
	NoteOff       EventType = 0x8
	NoteOn        EventType = 0x9
	ControlChange EventType = 0xB
)

// messageLen is the length of every supported message on the wire.
const messageLen = 3

func (t EventType) String() string {
	switch t {
	case NoteOff:
		return "note_off"
	case NoteOn:
		return "note_on"
	case ControlChange:
		return "control_change"
	default:
		return fmt.Sprintf("event_type(%d)", uint8(t))
	}
}

func (t EventType) valid() bool {
	return t == NoteOff || t == NoteOn || t == ControlChange
}

// Mapping identifies one physical control: a note or controller number on
// a channel. It is comparable and usable as a map key.
type Mapping struct {
	EventType EventType
	Channel   uint8
	Control   uint8
}

// NoteOnMapping returns the mapping for a note-on control.
func NoteOnMapping(channel, control uint8) Mapping {
	return Mapping{EventType: NoteOn, Channel: channel, Control: control}
}

// NoteOffMapping returns the mapping for a note-off control.
func NoteOffMapping(channel, control uint8) Mapping {
	return Mapping{EventType: NoteOff, Channel: channel, Control: control}
}

// CCMapping returns the mapping for a continuous controller.
func CCMapping(channel, control uint8) Mapping {
	return Mapping{EventType: ControlChange, Channel: channel, Control: control}
}

// Event is a control message: which control and its value.
type Event struct {
	Mapping
	Value uint8
}

// Tagged pairs an Event with the device it came from.
type Tagged struct {
	Device Device
	Event  Event
}

// ParseMessage decodes a 3-byte control message.
//
// The high nibble of the first byte is the event type, the low nibble the
// channel. The second and third bytes are the control and the value.
// Bytes past the third are ignored.
func ParseMessage(b []byte) (Event, error) {
	if len(b) < messageLen {
		return Event{}, fmt.Errorf("%w: got %d", ErrShortMessage, len(b))
	}

	t := EventType(b[0] >> 4)
	if !t.valid() {
		return Event{}, fmt.Errorf("%w: status byte 0x%02x", ErrUnsupportedEvent, b[0])
	}

	return Event{
		Mapping: Mapping{
			EventType: t,
			Channel:   b[0] & 0x0F,
			Control:   b[1],
		},
		Value: b[2],
	}, nil
}

// Bytes encodes the event in its 3-byte wire form.
func (e Event) Bytes() []byte {
	return []byte{
		byte(e.EventType)<<4 | e.Channel&0x0F,
		e.Control,
		e.Value,
	}
}
