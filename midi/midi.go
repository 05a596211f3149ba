// Package midi turns MIDI control changes from a hardware controller into
// knob and instrument messages for the engine.
package midi

import (
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/shapetone/shapetone/engine"
)

// Mapping tells which slot each MIDI channel plays and which knob each control
// change number turns. Channels are zero based, as on the wire.
type Mapping struct {
	// Channels maps a MIDI channel to the slot it controls.
	Channels map[uint8]string
	// Knobs maps a control change number to a knob index. The control value
	// 0..127 is scaled to the knob range 0..1.
	Knobs map[uint8]int
	// Steps maps a control change number to an instrument step, e.g. -1 for a
	// "previous" button. The step is taken when the control goes non-zero.
	Steps map[uint8]int `yaml:",omitempty"`
}

// Translate converts msg into an engine.KnobMsg or engine.StepMsg. ok is false
// for messages that are not mapped.
func (m *Mapping) Translate(msg midi.Message) (ret any, ok bool) {
	var ch, cc, val uint8
	if !msg.GetControlChange(&ch, &cc, &val) {
		return nil, false
	}
	slot, ok := m.Channels[ch]
	if !ok {
		return nil, false
	}
	if knob, ok := m.Knobs[cc]; ok {
		return engine.KnobMsg{Slot: slot, Index: knob, Value: float64(val) / 127}, true
	}
	if delta, ok := m.Steps[cc]; ok && val > 0 {
		return engine.StepMsg{Slot: slot, Delta: delta}, true
	}
	return nil, false
}

// Handler returns a receive function for midi.ListenTo that forwards every
// mapped message to the engine. Messages are dropped if the engine falls
// behind.
func (m *Mapping) Handler(broker *engine.Broker) func(msg midi.Message, timestampms int32) {
	return func(msg midi.Message, timestampms int32) {
		if ret, ok := m.Translate(msg); ok {
			engine.TrySend(broker.ToEngine, ret)
		}
	}
}

// Listen opens in, if not already open, and forwards its mapped messages to
// the engine until stop is called.
func Listen(in drivers.In, m *Mapping, broker *engine.Broker) (stop func(), err error) {
	if !in.IsOpen() {
		if err := in.Open(); err != nil {
			return nil, fmt.Errorf("open MIDI input %v: %w", in, err)
		}
	}
	stop, err = midi.ListenTo(in, m.Handler(broker))
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("listen to MIDI input %v: %w", in, err)
	}
	return stop, nil
}

// FindInput returns the first of ins whose name starts with prefix.
func FindInput(ins []drivers.In, prefix string) (drivers.In, bool) {
	for _, in := range ins {
		if strings.HasPrefix(in.String(), prefix) {
			return in, true
		}
	}
	return nil, false
}
