// Package controller implements the instrument controller: the owner of one
// effect chain, which rebuilds the chain when the instrument changes and
// forwards knob changes to the live nodes.
package controller

import (
	"errors"
	"fmt"
	"log"
	"slices"

	"github.com/shapetone/shapetone"
	"github.com/shapetone/shapetone/bus"
	"github.com/shapetone/shapetone/chain"
	"github.com/shapetone/shapetone/graph"
)

type (
	// Config is the per-slot configuration of a controller.
	Config struct {
		// Channel is the bus channel the chain input receives, unique to the
		// slot of the controller.
		Channel string
		// BusGain is the linear gain of the chain input bus. Zero means the
		// default of 0.8.
		BusGain float64
		// Logger is used for reporting knob failures. Nil means log.Default().
		Logger *log.Logger
		// OnInstrumentChange is called with the new instrument id when Step
		// requests a change of instrument.
		OnInstrumentChange func(id string)
	}

	// Controller owns the effect chain of one slot. It is not safe for
	// concurrent use.
	Controller struct {
		catalog  shapetone.Catalog
		buses    *bus.Registry
		builder  *chain.Builder
		cfg      Config
		id       string
		knobs    []float64
		chain    *chain.Chain
		dispatch *chain.Dispatch
		output   *graph.Node
	}
)

const DefaultBusGain = 0.8

var errNotMounted = errors.New("controller not mounted")

func New(catalog shapetone.Catalog, buses *bus.Registry, cfg Config) *Controller {
	if cfg.BusGain == 0 {
		cfg.BusGain = DefaultBusGain
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Controller{
		catalog: catalog,
		buses:   buses,
		builder: chain.NewBuilder(buses.Nodes()),
		cfg:     cfg,
	}
}

// Mount creates the output of the controller, sends it to the master channel,
// builds the chain of instrument id and replays all knobs against it. If the
// chain cannot be built, the controller stays mounted but chain-less. A
// controller on bus.MasterChannel cannot be mounted, as its output would feed
// its own input.
func (c *Controller) Mount(id string, knobs []float64) error {
	if c.output != nil {
		return fmt.Errorf("mount %q: controller already mounted", id)
	}
	if c.cfg.Channel == bus.MasterChannel {
		return fmt.Errorf("mount %q: %w: %q", id, shapetone.ErrReservedChannel, c.cfg.Channel)
	}
	out, err := c.buses.Nodes().Create(shapetone.NodeDescriptor{Kind: "gain"})
	if err != nil {
		return fmt.Errorf("mount %q: %w", id, err)
	}
	if err := c.buses.Send(out, bus.MasterChannel, 0); err != nil {
		out.Dispose()
		return fmt.Errorf("mount %q: %w", id, err)
	}
	c.output = out
	c.id = id
	c.knobs = slices.Clone(knobs)
	if err := c.rebuild(); err != nil {
		return err
	}
	return c.replay()
}

// ChangeInstrument disposes the current chain, builds the chain of id and
// replays all knobs against it. Changing to the current instrument does
// nothing, unless the previous build failed.
func (c *Controller) ChangeInstrument(id string, knobs []float64) error {
	if c.output == nil {
		return fmt.Errorf("change instrument to %q: %w", id, errNotMounted)
	}
	if id == c.id && c.chain != nil {
		return nil
	}
	c.id = id
	c.knobs = slices.Clone(knobs)
	if err := c.rebuild(); err != nil {
		return err
	}
	return c.replay()
}

// ChangeKnob applies value to the binding of knob index. Knobs bound to the
// synth, knobs beyond the bindings of the instrument and knob changes while
// chain-less are ignored.
func (c *Controller) ChangeKnob(index int, value float64) error {
	if index < 0 {
		return nil
	}
	if index >= len(c.knobs) {
		c.knobs = append(c.knobs, make([]float64, index+1-len(c.knobs))...)
	}
	c.knobs[index] = value
	return c.apply(index, value)
}

// Update reconciles the controller with the latest instrument id and knob
// vector observed from the application state. An instrument change rebuilds
// the chain. Otherwise only the first knob that differs from the previous
// vector is applied; any further differences in the same update are dropped.
func (c *Controller) Update(id string, knobs []float64) error {
	if id != c.id || c.chain == nil {
		return c.ChangeInstrument(id, knobs)
	}
	prev := c.knobs
	c.knobs = slices.Clone(knobs)
	if prev == nil {
		return c.replay()
	}
	i := FirstChanged(prev, knobs)
	if i < 0 || i >= len(knobs) {
		return nil
	}
	return c.apply(i, knobs[i])
}

// Step returns the instrument delta steps away from the current one in the
// catalog, wrapping around at both ends, and reports it to the
// OnInstrumentChange callback. Step does not rebuild the chain; the
// application state is expected to follow up with ChangeInstrument or Update.
func (c *Controller) Step(delta int) string {
	next := shapetone.Cycle(c.catalog.IDs(), c.id, delta)
	if next != "" && c.cfg.OnInstrumentChange != nil {
		c.cfg.OnInstrumentChange(next)
	}
	return next
}

// Unmount disposes the chain and the output of the controller. The master
// bus itself is left untouched. Unmounting a controller that was never
// mounted does nothing.
func (c *Controller) Unmount() {
	c.teardown()
	if c.output != nil {
		c.output.Disconnect()
		c.output.Dispose()
		c.output = nil
	}
}

func (c *Controller) Instrument() string  { return c.id }
func (c *Controller) Channel() string     { return c.cfg.Channel }
func (c *Controller) Built() bool         { return c.chain != nil }
func (c *Controller) Chain() *chain.Chain { return c.chain }
func (c *Controller) Output() *graph.Node { return c.output }
func (c *Controller) Knobs() []float64    { return slices.Clone(c.knobs) }
func (c *Controller) Mounted() bool       { return c.output != nil }

// Dispatch returns the knob dispatch table of the current chain, or nil.
func (c *Controller) Dispatch() *chain.Dispatch { return c.dispatch }

// FirstChanged returns the first index at which a and b differ, or -1 if they
// are equal. When one is a prefix of the other, the length of the shorter one
// is returned, so a knob appended to the vector counts as changed rather than
// being ignored.
func FirstChanged(a, b []float64) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}

// rebuild tears down the current chain fully before building the chain of the
// current instrument, so that two chains are never connected to the output at
// the same time.
func (c *Controller) rebuild() error {
	c.teardown()
	preset, ok := c.catalog.Preset(c.id)
	if !ok {
		return fmt.Errorf("%w: %q", shapetone.ErrUnknownInstrument, c.id)
	}
	input, err := c.buses.NewBus(c.cfg.BusGain)
	if err != nil {
		return fmt.Errorf("build %q: %w", c.id, err)
	}
	if err := c.buses.Receive(input, c.cfg.Channel); err != nil {
		input.Dispose()
		return fmt.Errorf("build %q: %w", c.id, err)
	}
	ch, err := c.builder.Build(preset.Effects, input, c.output)
	if err != nil {
		input.Dispose()
		return fmt.Errorf("build %q: %w", c.id, err)
	}
	d, err := chain.NewDispatch(preset.Knobs, ch)
	if err != nil {
		ch.Dispose()
		return fmt.Errorf("build %q: %w", c.id, err)
	}
	c.chain, c.dispatch = ch, d
	return nil
}

func (c *Controller) teardown() {
	if c.chain != nil {
		c.chain.Dispose()
	}
	c.chain, c.dispatch = nil, nil
}

// replay applies every knob in ascending index order.
func (c *Controller) replay() error {
	var errs []error
	for i, v := range c.knobs {
		if err := c.apply(i, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Controller) apply(index int, value float64) error {
	t, ok := c.dispatch.Resolve(index)
	if !ok {
		return nil
	}
	if err := t.Apply(value); err != nil {
		c.cfg.Logger.Printf("%s: instrument %q: %v", c.cfg.Channel, c.id, err)
		return err
	}
	return nil
}
