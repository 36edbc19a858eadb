//go:build midi_native

package control

import (
	"fmt"

	"gitlab.com/gomidi/midi"
	"gitlab.com/gomidi/rtmididrv"
)

// OpenDriver returns the native rtmidi driver.
func OpenDriver() (midi.Driver, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDriverUnavailable, err)
	}
	return drv, nil
}
