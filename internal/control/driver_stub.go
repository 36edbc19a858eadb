//go:build !midi_native

package control

import (
	"fmt"

	"gitlab.com/gomidi/midi"
)

// OpenDriver reports that this build has no native MIDI driver.
func OpenDriver() (midi.Driver, error) {
	return nil, fmt.Errorf("%w: build with -tags midi_native", ErrDriverUnavailable)
}
