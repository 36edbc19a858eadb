package control

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"gitlab.com/gomidi/midi"
)

// Input is an open MIDI input port whose messages are parsed, tagged with
// the owning device and queued on a shared sink.
type Input struct {
	port   midi.In
	name   string
	device Device
	sink   chan<- Tagged
	logger Logger

	// mu guards closed. The listener holds it for reading while it
	// enqueues, so Close waits for in-flight callbacks.
	mu     sync.RWMutex
	closed bool

	dropped atomic.Uint64
}

// OpenInput opens the input port named portName on drv and starts queueing
// its events on sink. The port name must match exactly.
//
// Enqueueing never blocks the driver's callback: when sink is full the
// event is dropped with a warning.
func OpenInput(drv midi.Driver, portName string, device Device, sink chan<- Tagged, logger Logger) (*Input, error) {
	if logger == nil {
		logger = nopLogger{}
	}

	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("%w: listing inputs: %w", ErrPortOpen, err)
	}
	port, err := findPort(ins, portName)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	if err := port.Open(); err != nil {
		return nil, fmt.Errorf("%w: input %q: %w", ErrPortOpen, portName, err)
	}

	in := &Input{
		port:   port,
		name:   portName,
		device: device,
		sink:   sink,
		logger: logger,
	}
	if err := port.SetListener(in.handle); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("%w: listening on %q: %w", ErrPortOpen, portName, err)
	}
	return in, nil
}

// handle is the driver callback for one raw message.
func (in *Input) handle(data []byte, _ int64) {
	in.mu.RLock()
	defer in.mu.RUnlock()

	if in.closed {
		return
	}

	ev, err := ParseMessage(data)
	if err != nil {
		in.logger.Warn("dropping midi message",
			"device", in.device.String(),
			"port", in.name,
			"error", err,
		)
		return
	}

	select {
	case in.sink <- Tagged{Device: in.device, Event: ev}:
	default:
		in.dropped.Add(1)
		in.logger.Warn("control queue full, dropping event",
			"device", in.device.String(),
			"event", ev.EventType.String(),
			"control", ev.Control,
		)
	}
}

// Device returns the identity events from this input are tagged with.
func (in *Input) Device() Device {
	return in.device
}

// Dropped returns the number of events lost to a full sink.
func (in *Input) Dropped() uint64 {
	return in.dropped.Load()
}

// Close stops the listener and closes the port. Once Close returns no
// further event is queued.
func (in *Input) Close() error {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return nil
	}
	in.closed = true
	in.mu.Unlock()

	return errors.Join(in.port.StopListening(), in.port.Close())
}
