//go:build !cgo

package cmd

import (
	"errors"

	"gitlab.com/gomidi/midi/v2/drivers"
)

// OpenMIDIInput always fails: without cgo, there is no MIDI driver.
func OpenMIDIInput(prefix string) (in drivers.In, closeDriver func(), err error) {
	return nil, nil, errors.New("MIDI is not supported in builds without cgo")
}
