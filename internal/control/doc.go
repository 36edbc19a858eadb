// Package control aggregates input from MIDI control surfaces and sends
// feedback back to them.
//
// Each registered device has an Input endpoint, which turns raw 3-byte
// messages into tagged Events on a shared queue, and an Output endpoint,
// which encodes Events back to bytes. The Manager owns every endpoint:
// the show's control loop polls it with Receive and routes feedback with
// Send.
//
// Ports are opened through a gomidi Driver. OpenDriver returns the
// native rtmidi driver when the binary is built with -tags midi_native.
//
//	drv, err := control.OpenDriver()
//	if err != nil {
//	    return err
//	}
//	m := control.NewManager(drv, control.Options{QueueSize: 1024, Logger: logger})
//	defer m.Close()
//
//	err = m.AddDevice(control.DeviceSpec{
//	    Device:     control.AkaiAPC40,
//	    InputPort:  "Akai APC40",
//	    OutputPort: "Akai APC40",
//	})
//
//	for {
//	    if t, ok := m.Receive(10 * time.Millisecond); ok {
//	        m.Send(t.Device, t.Event)
//	    }
//	}
package control
