package control

import (
	"fmt"
	"strings"
)

// Device identifies a kind of control surface.
type Device int

// Known devices.
const (
	AkaiAPC40 Device = iota + 1
	AkaiAPC20
	TouchOSC
)

var deviceNames = map[Device]string{
	AkaiAPC40: "apc40",
	AkaiAPC20: "apc20",
	TouchOSC:  "touchosc",
}

// String returns the device's configuration name.
func (d Device) String() string {
	if name, ok := deviceNames[d]; ok {
		return name
	}
	return fmt.Sprintf("device(%d)", int(d))
}

// ParseDevice resolves a configuration name such as "apc40" or
// "Akai APC40" to a Device.
func ParseDevice(name string) (Device, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	key = strings.TrimPrefix(key, "akai")

	for d, n := range deviceNames {
		if key == n {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDevice, name)
}

// sysex framing bytes.
const (
	sysexStart = 0xF0
	sysexEnd   = 0xF7
)

// APC mode switch messages. Mode 0x41 is Ableton Live mode, in which the
// host owns every LED.
var (
	apc40ModeSysex = []byte{sysexStart, 0x47, 0x00, 0x73, 0x60, 0x00, 0x04, 0x41, 0x08, 0x04, 0x01, sysexEnd}
	apc20ModeSysex = []byte{sysexStart, 0x47, 0x7F, 0x7B, 0x60, 0x00, 0x04, 0x41, 0x08, 0x02, 0x01, sysexEnd}
)

// APC40 LED ring styles.
const (
	ringOff    = 0
	ringSingle = 1
	ringVolume = 2
	ringPan    = 3
)

// apc40RingModes assigns a ring style to each knob, keyed by the
// controller that sets it: 0x38-0x3F for the track knobs, 0x18-0x1F for
// the device knobs.
var apc40RingModes = []struct {
	control uint8
	mode    uint8
}{
	{0x38, ringPan}, {0x39, ringVolume}, {0x3A, ringSingle}, {0x3B, ringSingle},
	{0x3C, ringVolume}, {0x3D, ringPan}, {0x3E, ringOff}, {0x3F, ringOff},
	{0x18, ringSingle}, {0x19, ringSingle}, {0x1A, ringVolume}, {0x1B, ringVolume},
	{0x1C, ringPan}, {0x1D, ringVolume}, {0x1E, ringVolume}, {0x1F, ringSingle},
}

// initMessages returns the messages that put the device into the state
// the show expects. Devices that need no setup return nil.
func (d Device) initMessages() [][]byte {
	switch d {
	case AkaiAPC40:
		msgs := [][]byte{apc40ModeSysex}
		for _, r := range apc40RingModes {
			msgs = append(msgs, Event{Mapping: CCMapping(0, r.control), Value: r.mode}.Bytes())
		}
		return msgs
	case AkaiAPC20:
		return [][]byte{apc20ModeSysex}
	default:
		return nil
	}
}

// rawSender writes pre-encoded messages.
type rawSender interface {
	SendRaw(b []byte) error
}

// initialize sends the device's setup messages in order and stops at the
// first failure.
func (d Device) initialize(out rawSender) error {
	for i, msg := range d.initMessages() {
		if err := out.SendRaw(msg); err != nil {
			return fmt.Errorf("%w: %s message %d: %w", ErrInit, d, i, err)
		}
	}
	return nil
}
