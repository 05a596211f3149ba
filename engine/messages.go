package engine

import (
	"fmt"

	"github.com/shapetone/shapetone"
)

// Messages to the engine. Slot is the name of the bus channel of the slot,
// e.g. the color of the shapes that play through it.
type (
	// MountMsg mounts a controller for a new slot.
	MountMsg struct {
		Slot       string
		Instrument string
		Knobs      []float64
	}

	// InstrumentMsg changes the instrument of a slot, rebuilding its chain.
	InstrumentMsg struct {
		Slot       string
		Instrument string
		Knobs      []float64
	}

	// KnobMsg changes a single knob of a slot.
	KnobMsg struct {
		Slot  string
		Index int
		Value float64
	}

	// UpdateMsg delivers the latest observed instrument and knob vector of a
	// slot; the engine works out what changed.
	UpdateMsg struct {
		Slot       string
		Instrument string
		Knobs      []float64
	}

	// StepMsg moves a slot Delta instruments forward or backward in the
	// catalog.
	StepMsg struct {
		Slot  string
		Delta int
	}

	// UnmountMsg tears down a slot.
	UnmountMsg struct {
		Slot string
	}

	// SourceMsg sets the dry signal source rendered into the channel of a
	// slot. A nil Source removes it.
	SourceMsg struct {
		Slot   string
		Source shapetone.Source
	}
)

// Messages from the engine.
type (
	// Alert reports a failure while handling a message for a slot. Failures
	// never stop the playback of other slots.
	Alert struct {
		Slot string
		Err  error
	}

	// InstrumentChanged tells the application that a slot switched to another
	// instrument as the result of a StepMsg.
	InstrumentChanged struct {
		Slot       string
		Instrument string
	}
)

func (a Alert) Error() string {
	return fmt.Sprintf("slot %q: %v", a.Slot, a.Err)
}

func (a Alert) Unwrap() error { return a.Err }
