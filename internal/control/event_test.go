package control

import (
	"errors"
	"testing"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want Event
	}{
		{
			name: "note on channel 3",
			in:   []byte{0x93, 0x35, 0x7F},
			want: Event{Mapping: NoteOnMapping(3, 0x35), Value: 0x7F},
		},
		{
			name: "note off channel 0",
			in:   []byte{0x80, 0x35, 0x00},
			want: Event{Mapping: NoteOffMapping(0, 0x35), Value: 0},
		},
		{
			name: "control change channel 15",
			in:   []byte{0xBF, 0x30, 0x40},
			want: Event{Mapping: CCMapping(15, 0x30), Value: 0x40},
		},
		{
			name: "value above 127 is kept",
			in:   []byte{0xB0, 0x07, 0xC8},
			want: Event{Mapping: CCMapping(0, 0x07), Value: 200},
		},
		{
			name: "extra bytes ignored",
			in:   []byte{0x91, 0x01, 0x02, 0x03},
			want: Event{Mapping: NoteOnMapping(1, 0x01), Value: 0x02},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMessage(tt.in)
			if err != nil {
				t.Fatalf("ParseMessage() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseMessage() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseMessage_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		wantErr error
	}{
		{name: "empty", in: nil, wantErr: ErrShortMessage},
		{name: "two bytes", in: []byte{0x90, 0x01}, wantErr: ErrShortMessage},
		{name: "polyphonic aftertouch", in: []byte{0xA0, 0x01, 0x02}, wantErr: ErrUnsupportedEvent},
		{name: "program change", in: []byte{0xC0, 0x01, 0x00}, wantErr: ErrUnsupportedEvent},
		{name: "pitch bend", in: []byte{0xE0, 0x00, 0x40}, wantErr: ErrUnsupportedEvent},
		{name: "sysex", in: []byte{0xF0, 0x47, 0xF7}, wantErr: ErrUnsupportedEvent},
		{name: "data byte first", in: []byte{0x10, 0x01, 0x02}, wantErr: ErrUnsupportedEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMessage(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseMessage() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEventBytes_InverseOfParse(t *testing.T) {
	for _, typ := range []EventType{NoteOff, NoteOn, ControlChange} {
		for ch := uint8(0); ch < 16; ch++ {
			for control := 0; control <= 0xFF; control++ {
				for value := 0; value <= 0xFF; value++ {
					msg := []byte{byte(typ)<<4 | ch, byte(control), byte(value)}

					ev, err := ParseMessage(msg)
					if err != nil {
						t.Fatalf("ParseMessage(% x) error = %v", msg, err)
					}
					if ev.Control != uint8(control) || ev.Value != uint8(value) {
						t.Fatalf("ParseMessage(% x) = %+v", msg, ev)
					}
					if got := ev.Bytes(); string(got) != string(msg) {
						t.Fatalf("Bytes() = % x, want % x", got, msg)
					}

					back, err := ParseMessage(ev.Bytes())
					if err != nil || back != ev {
						t.Fatalf("ParseMessage(Bytes()) = %+v, %v; want %+v", back, err, ev)
					}
				}
			}
		}
	}
}

func TestMapping_IsMapKey(t *testing.T) {
	bindings := map[Mapping]string{
		NoteOnMapping(0, 0x35): "clip launch",
		CCMapping(0, 0x30):     "track knob",
	}

	ev, _ := ParseMessage([]byte{0x90, 0x35, 0x7F})
	if bindings[ev.Mapping] != "clip launch" {
		t.Errorf("lookup by parsed mapping = %q, want %q", bindings[ev.Mapping], "clip launch")
	}
	if _, ok := bindings[NoteOffMapping(0, 0x35)]; ok {
		t.Error("note off mapping collided with note on")
	}
}

func TestEventType_String(t *testing.T) {
	if NoteOn.String() != "note_on" || ControlChange.String() != "control_change" {
		t.Errorf("unexpected names %q, %q", NoteOn, ControlChange)
	}
	if got := EventType(3).String(); got != "event_type(3)" {
		t.Errorf("EventType(3).String() = %q", got)
	}
}
