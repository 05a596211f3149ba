//go:build cgo

package cmd

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/shapetone/shapetone/midi"
)

// OpenMIDIInput finds the first MIDI input whose name starts with prefix.
// closeDriver should be called when the input is no longer needed.
func OpenMIDIInput(prefix string) (in drivers.In, closeDriver func(), err error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open MIDI driver: %w", err)
	}
	ins, err := drv.Ins()
	if err != nil {
		drv.Close()
		return nil, nil, fmt.Errorf("cannot list MIDI inputs: %w", err)
	}
	in, ok := midi.FindInput(ins, prefix)
	if !ok {
		drv.Close()
		return nil, nil, fmt.Errorf("no MIDI input found with prefix %q", prefix)
	}
	return in, func() { drv.Close() }, nil
}
