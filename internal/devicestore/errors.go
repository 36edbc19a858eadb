package devicestore

import "errors"

var (
	// ErrNotFound is returned when no stored device has the given ID.
	ErrNotFound = errors.New("devicestore: not found")

	// ErrExists is returned when a device is already stored for the port pair.
	ErrExists = errors.New("devicestore: port pair already registered")

	// ErrInvalid is returned when a device spec is incomplete.
	ErrInvalid = errors.New("devicestore: invalid device")
)
