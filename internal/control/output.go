package control

import (
	"fmt"
	"sync"

	"gitlab.com/gomidi/midi"
)

// Output is an open MIDI output port tagged with a device identity.
type Output struct {
	port   midi.Out
	name   string
	device Device

	mu     sync.Mutex
	closed bool
}

// OpenOutput opens the output port named portName on drv. The port name
// must match exactly.
func OpenOutput(drv midi.Driver, portName string, device Device) (*Output, error) {
	outs, err := drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("%w: listing outputs: %w", ErrPortOpen, err)
	}
	port, err := findPort(outs, portName)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	if err := port.Open(); err != nil {
		return nil, fmt.Errorf("%w: output %q: %w", ErrPortOpen, portName, err)
	}

	return &Output{port: port, name: portName, device: device}, nil
}

// Send encodes ev and writes it.
func (o *Output) Send(ev Event) error {
	return o.SendRaw(ev.Bytes())
}

// SendRaw writes b unchanged. Used for sysex and other setup messages.
func (o *Output) SendRaw(b []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return fmt.Errorf("%w: %q", ErrPortClosed, o.name)
	}
	if _, err := o.port.Write(b); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrSend, o.name, err)
	}
	return nil
}

// Device returns the output's identity.
func (o *Output) Device() Device {
	return o.device
}

// Close closes the port. Later sends fail with ErrPortClosed.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true
	return o.port.Close()
}
