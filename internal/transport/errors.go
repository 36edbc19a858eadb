package transport

import "errors"

// Sentinel errors for transport operations.
var (
	// ErrQueueClosed is returned by Queue.Push once the consumer has closed the queue.
	ErrQueueClosed = errors.New("transport: queue closed")

	// ErrDial is returned when a subscriber cannot connect to its endpoint.
	ErrDial = errors.New("transport: dial failed")

	// ErrListen is returned when a publisher cannot bind its endpoint.
	ErrListen = errors.New("transport: listen failed")

	// ErrSubscribe is returned when a topic filter cannot be installed.
	ErrSubscribe = errors.New("transport: subscribe failed")

	// ErrPublish is returned when a frame cannot be handed to the backend.
	ErrPublish = errors.New("transport: publish failed")

	// ErrUnknownKind is returned for a transport kind with no backend.
	ErrUnknownKind = errors.New("transport: unknown kind")

	// ErrNoMQTTClient is returned when the mqtt backend is selected without a client.
	ErrNoMQTTClient = errors.New("transport: mqtt backend requires a connected client")
)
