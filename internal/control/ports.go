package control

import (
	"fmt"

	"gitlab.com/gomidi/midi"
)

// Logger is the logging interface used by control endpoints.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// findPort returns the port whose name is exactly name.
func findPort[P midi.Port](ports []P, name string) (P, error) {
	for _, p := range ports {
		if p.String() == name {
			return p, nil
		}
	}
	var zero P
	return zero, fmt.Errorf("%w: %q", ErrPortNotFound, name)
}

// portNames lists the names of ports in driver order.
func portNames[P midi.Port](ports []P) []string {
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.String())
	}
	return names
}
