package control

import "errors"

// Sentinel errors for control surface operations.
var (
	// ErrUnsupportedEvent is returned for a status nibble other than NoteOff, NoteOn or ControlChange.
	ErrUnsupportedEvent = errors.New("control: unsupported event type")

	// ErrShortMessage is returned for a message shorter than three bytes.
	ErrShortMessage = errors.New("control: message shorter than 3 bytes")

	// ErrUnknownDevice is returned by ParseDevice for an unrecognised name.
	ErrUnknownDevice = errors.New("control: unknown device")

	// ErrPortNotFound is returned when no port name matches exactly.
	ErrPortNotFound = errors.New("control: port not found")

	// ErrPortOpen is returned when the driver cannot open a port.
	ErrPortOpen = errors.New("control: opening port failed")

	// ErrPortClosed is returned when sending on a closed output.
	ErrPortClosed = errors.New("control: port closed")

	// ErrSend is returned when the driver rejects a write.
	ErrSend = errors.New("control: send failed")

	// ErrInit is returned when a device's initialisation sequence fails.
	ErrInit = errors.New("control: device initialisation failed")

	// ErrDriverUnavailable is returned by OpenDriver when no native driver is available.
	ErrDriverUnavailable = errors.New("control: MIDI driver unavailable")
)
