package control

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gitlab.com/gomidi/midi"
)

// defaultQueueSize is used when Options.QueueSize is not positive.
const defaultQueueSize = 1024

// Options configures a Manager.
type Options struct {
	// QueueSize bounds the shared aggregation queue.
	QueueSize int

	// Logger receives dropped-message and send-failure reports. Optional.
	Logger Logger
}

// DeviceSpec names a device and its port pair.
type DeviceSpec struct {
	Device     Device
	InputPort  string
	OutputPort string
}

// Manager owns the registered devices' endpoints and the queue their
// inputs share.
type Manager struct {
	drv    midi.Driver
	events chan Tagged
	logger Logger

	mu      sync.Mutex
	inputs  []*Input
	outputs []*Output
	specs   []DeviceSpec
}

// NewManager creates a Manager with no devices.
func NewManager(drv midi.Driver, opts Options) *Manager {
	size := opts.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	return &Manager{
		drv:    drv,
		events: make(chan Tagged, size),
		logger: logger,
	}
}

// AddDevice opens the device's output, runs its initialisation sequence,
// opens its input and registers both. On any failure whatever was opened
// is closed again and nothing is registered.
func (m *Manager) AddDevice(spec DeviceSpec) error {
	out, err := OpenOutput(m.drv, spec.OutputPort, spec.Device)
	if err != nil {
		return fmt.Errorf("adding %s: %w", spec.Device, err)
	}

	if err := spec.Device.initialize(out); err != nil {
		_ = out.Close()
		return fmt.Errorf("adding %s: %w", spec.Device, err)
	}

	in, err := OpenInput(m.drv, spec.InputPort, spec.Device, m.events, m.logger)
	if err != nil {
		_ = out.Close()
		return fmt.Errorf("adding %s: %w", spec.Device, err)
	}

	m.mu.Lock()
	m.inputs = append(m.inputs, in)
	m.outputs = append(m.outputs, out)
	m.specs = append(m.specs, spec)
	m.mu.Unlock()

	m.logger.Info("control device added",
		"device", spec.Device.String(),
		"input", spec.InputPort,
		"output", spec.OutputPort,
	)
	return nil
}

// Receive waits up to timeout for the next event from any device.
// A timeout of zero or less polls without waiting.
func (m *Manager) Receive(timeout time.Duration) (Tagged, bool) {
	if timeout <= 0 {
		select {
		case t := <-m.events:
			return t, true
		default:
			return Tagged{}, false
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case t := <-m.events:
		return t, true
	case <-timer.C:
		return Tagged{}, false
	}
}

// Send writes ev to every output registered for device. A failing output
// is logged and skipped; it never stops delivery to the others.
func (m *Manager) Send(device Device, ev Event) {
	m.mu.Lock()
	outputs := make([]*Output, 0, len(m.outputs))
	for _, o := range m.outputs {
		if o.Device() == device {
			outputs = append(outputs, o)
		}
	}
	m.mu.Unlock()

	for _, o := range outputs {
		if err := o.Send(ev); err != nil {
			m.logger.Error("control send failed",
				"device", device.String(),
				"port", o.name,
				"error", err,
			)
		}
	}
}

// Ports lists the names of the driver's input and output ports.
func (m *Manager) Ports() (inputs, outputs []string, err error) {
	ins, err := m.drv.Ins()
	if err != nil {
		return nil, nil, fmt.Errorf("listing inputs: %w", err)
	}
	outs, err := m.drv.Outs()
	if err != nil {
		return nil, nil, fmt.Errorf("listing outputs: %w", err)
	}
	return portNames(ins), portNames(outs), nil
}

// Devices returns the specs of every registered device in registration order.
func (m *Manager) Devices() []DeviceSpec {
	m.mu.Lock()
	defer m.mu.Unlock()

	specs := make([]DeviceSpec, len(m.specs))
	copy(specs, m.specs)
	return specs
}

// Dropped returns the number of events lost to a full queue across all inputs.
func (m *Manager) Dropped() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n uint64
	for _, in := range m.inputs {
		n += in.Dropped()
	}
	return n
}

// Close closes every endpoint and unregisters all devices. The driver is
// left open for its owner to close.
func (m *Manager) Close() error {
	m.mu.Lock()
	inputs, outputs := m.inputs, m.outputs
	m.inputs, m.outputs, m.specs = nil, nil, nil
	m.mu.Unlock()

	var errs []error
	for _, in := range inputs {
		errs = append(errs, in.Close())
	}
	for _, o := range outputs {
		errs = append(errs, o.Close())
	}
	return errors.Join(errs...)
}
