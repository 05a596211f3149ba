// Package engine hosts the instrument controllers of all slots, the channel
// buses between them and the master output, and renders the mix block by
// block.
package engine

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/viterin/vek/vek32"

	"github.com/shapetone/shapetone"
	"github.com/shapetone/shapetone/bus"
	"github.com/shapetone/shapetone/controller"
	"github.com/shapetone/shapetone/graph"
	"github.com/shapetone/shapetone/node"
)

type (
	// Engine renders the master mix of every mounted slot. It is controlled
	// only through the messages of its Broker, which are processed at the
	// start of Render; apart from the read-only accessors, all of its methods
	// should be called from the goroutine calling Render.
	Engine struct {
		cfg     Config
		catalog shapetone.Catalog
		broker  *Broker
		ctx     *graph.Context
		buses   *bus.Registry
		master  *bus.Bus
		dest    *graph.Node
		sink    *destination
		slots   map[string]*controller.Controller
		sources map[string]shapetone.Source
		block   []float32
		abs     []float32
		peak    float32
		closed  bool
	}

	Config struct {
		SampleRate float64
		// BusGain is the gain of the input bus of every slot. Zero means
		// controller.DefaultBusGain.
		BusGain float64
		// MasterGain is the gain of the master bus. Zero means unity.
		MasterGain float64
		Logger     *log.Logger
	}

	// destination is the end of the graph: it adds everything pushed to it
	// into the output buffer of the block being rendered.
	destination struct {
		out []float32
	}
)

var errUnknownSlot = errors.New("slot not mounted")

// New creates an engine with an empty master bus receiving bus.MasterChannel.
func New(catalog shapetone.Catalog, broker *Broker, cfg Config) (*Engine, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("engine: invalid sample rate %v", cfg.SampleRate)
	}
	if cfg.MasterGain == 0 {
		cfg.MasterGain = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	ctx := graph.NewContext(cfg.SampleRate)
	buses := bus.NewRegistry(node.DefaultRegistry(ctx))
	master, err := buses.NewBus(cfg.MasterGain)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if err := buses.Receive(master, bus.MasterChannel); err != nil {
		master.Dispose()
		return nil, fmt.Errorf("engine: %w", err)
	}
	sink := &destination{}
	dest := graph.New(ctx, "destination", sink)
	if err := master.Connect(dest); err != nil {
		master.Dispose()
		dest.Dispose()
		return nil, fmt.Errorf("engine: %w", err)
	}
	return &Engine{
		cfg:     cfg,
		catalog: catalog,
		broker:  broker,
		ctx:     ctx,
		buses:   buses,
		master:  master,
		dest:    dest,
		sink:    sink,
		slots:   map[string]*controller.Controller{},
		sources: map[string]shapetone.Source{},
	}, nil
}

// Render processes the pending messages and renders one block of the master
// mix into out, overwriting it. Every source is mixed into the channel of its
// slot, every slot channel is flushed through its chain, and finally the
// master channel is flushed into out.
func (e *Engine) Render(out []float32) {
	e.processMessages()
	clear(out)
	if e.closed {
		return
	}
	frames := len(out)
	if cap(e.block) < frames {
		e.block = make([]float32, frames)
		e.abs = make([]float32, frames)
	}
	block := e.block[:frames]
	for _, slot := range sortedKeys(e.sources) {
		clear(block)
		e.sources[slot].Render(block)
		e.buses.Mix(slot, block, 1)
	}
	for _, ch := range e.buses.Channels() {
		if ch != bus.MasterChannel {
			e.buses.Flush(ch, frames)
		}
	}
	e.sink.out = out
	e.buses.Flush(bus.MasterChannel, frames)
	e.sink.out = nil
	if frames > 0 {
		e.peak = vek32.Max(vek32.Abs_Into(e.abs[:frames], out))
	}
}

// Close unmounts every slot and disposes the master bus. The engine renders
// silence after Close.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	for _, slot := range sortedKeys(e.slots) {
		e.slots[slot].Unmount()
	}
	clear(e.slots)
	clear(e.sources)
	e.master.Dispose()
	e.dest.Dispose()
	e.closed = true
}

// Controller returns the controller of slot, or nil if slot is not mounted.
func (e *Engine) Controller(slot string) *controller.Controller {
	return e.slots[slot]
}

// Slots returns the mounted slots, sorted.
func (e *Engine) Slots() []string { return sortedKeys(e.slots) }

func (e *Engine) Context() *graph.Context    { return e.ctx }
func (e *Engine) Buses() *bus.Registry       { return e.buses }
func (e *Engine) Broker() *Broker            { return e.broker }
func (e *Engine) Catalog() shapetone.Catalog { return e.catalog }

// Peak returns the absolute peak level of the last rendered block.
func (e *Engine) Peak() float32 { return e.peak }

func (e *Engine) processMessages() {
loop:
	for {
		select {
		case msg := <-e.broker.ToEngine:
			e.handle(msg)
		default:
			break loop
		}
	}
}

func (e *Engine) handle(msg any) {
	if e.closed {
		return
	}
	switch m := msg.(type) {
	case MountMsg:
		if m.Slot == bus.MasterChannel {
			e.alert(m.Slot, fmt.Errorf("mount %q: %w", m.Instrument, shapetone.ErrReservedChannel))
			return
		}
		if _, ok := e.slots[m.Slot]; ok {
			e.alert(m.Slot, fmt.Errorf("mount %q: slot already mounted", m.Instrument))
			return
		}
		c := e.newController(m.Slot)
		e.slots[m.Slot] = c
		e.alert(m.Slot, c.Mount(m.Instrument, m.Knobs))
	case InstrumentMsg:
		if c := e.slot(m.Slot); c != nil {
			e.alert(m.Slot, c.ChangeInstrument(m.Instrument, m.Knobs))
		}
	case KnobMsg:
		if c := e.slot(m.Slot); c != nil {
			e.alert(m.Slot, c.ChangeKnob(m.Index, m.Value))
		}
	case UpdateMsg:
		if c := e.slot(m.Slot); c != nil {
			e.alert(m.Slot, c.Update(m.Instrument, m.Knobs))
		}
	case StepMsg:
		if c := e.slot(m.Slot); c != nil {
			if next := c.Step(m.Delta); next != "" {
				e.alert(m.Slot, c.ChangeInstrument(next, c.Knobs()))
			}
		}
	case UnmountMsg:
		if c := e.slot(m.Slot); c != nil {
			c.Unmount()
			delete(e.slots, m.Slot)
		}
	case SourceMsg:
		if m.Slot == bus.MasterChannel {
			e.alert(m.Slot, fmt.Errorf("set source: %w", shapetone.ErrReservedChannel))
			return
		}
		if m.Source == nil {
			delete(e.sources, m.Slot)
		} else {
			e.sources[m.Slot] = m.Source
		}
	case func():
		m()
	default:
		e.alert("", fmt.Errorf("unknown message %T", msg))
	}
}

func (e *Engine) newController(slot string) *controller.Controller {
	return controller.New(e.catalog, e.buses, controller.Config{
		Channel: slot,
		BusGain: e.cfg.BusGain,
		Logger:  e.cfg.Logger,
		OnInstrumentChange: func(id string) {
			TrySend(e.broker.ToApp, any(InstrumentChanged{Slot: slot, Instrument: id}))
		},
	})
}

func (e *Engine) slot(name string) *controller.Controller {
	c, ok := e.slots[name]
	if !ok {
		e.alert(name, errUnknownSlot)
	}
	return c
}

func (e *Engine) alert(slot string, err error) {
	if err == nil {
		return
	}
	a := Alert{Slot: slot, Err: err}
	if !TrySend(e.broker.ToApp, any(a)) {
		e.cfg.Logger.Printf("engine: dropped alert: %v", a)
	}
}

func (d *destination) SetParameter(string, float64) {}

func (d *destination) Process(block []float32) {
	if d.out != nil {
		vek32.Add_Inplace(d.out[:len(block)], block)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
