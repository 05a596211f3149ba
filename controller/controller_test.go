package controller_test

import (
	"bytes"
	"errors"
	"log"
	"math"
	"slices"
	"testing"

	"github.com/shapetone/shapetone"
	"github.com/shapetone/shapetone/bus"
	"github.com/shapetone/shapetone/controller"
	"github.com/shapetone/shapetone/graph"
	"github.com/shapetone/shapetone/node"
)

type mapCatalog map[string]shapetone.Preset

func (m mapCatalog) Preset(id string) (shapetone.Preset, bool) {
	p, ok := m[id]
	return p, ok
}

func (m mapCatalog) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

var testCatalog = mapCatalog{
	"x": {
		Effects: []shapetone.NodeDescriptor{{Kind: "filter"}, {Kind: "reverb"}},
		Knobs: []shapetone.KnobBinding{
			{Name: "cutoff", Target: shapetone.TargetEffect, Node: 0, Param: "frequency", Min: 100, Max: 5100},
			{Name: "reverb", Target: shapetone.TargetEffect, Node: 1, Param: "wet"},
		},
	},
	"y": {
		Effects: []shapetone.NodeDescriptor{{Kind: "distortion"}, {Kind: "tremolo", AutoStart: true}},
		Knobs: []shapetone.KnobBinding{
			{Name: "drive", Target: shapetone.TargetEffect, Node: 0, Param: "distortion"},
			{Name: "harmonicity", Target: shapetone.TargetSynth},
		},
	},
	"z": {
		Effects: []shapetone.NodeDescriptor{{Kind: "delay"}, {Kind: "chorus", AutoStart: true}, {Kind: "bitcrusher"}},
		Knobs: []shapetone.KnobBinding{
			{Name: "echo", Target: shapetone.TargetEffect, Node: 0, Param: "wet"},
		},
	},
	"bare": {},
	"broken": {
		Effects: []shapetone.NodeDescriptor{{Kind: "gain"}, {Kind: "filter"}, {Kind: "theremin"}},
	},
	"typo": {
		Effects: []shapetone.NodeDescriptor{{Kind: "gain"}},
		Knobs:   []shapetone.KnobBinding{{Target: shapetone.TargetEffect, Node: 0, Param: "volume"}},
	},
}

type fixture struct {
	ctx    *graph.Context
	buses  *bus.Registry
	logbuf bytes.Buffer
}

func newFixture() *fixture {
	ctx := graph.NewContext(44100)
	return &fixture{ctx: ctx, buses: bus.NewRegistry(node.DefaultRegistry(ctx))}
}

func (f *fixture) controller(channel string) *controller.Controller {
	return controller.New(testCatalog, f.buses, controller.Config{
		Channel: channel,
		Logger:  log.New(&f.logbuf, "", 0),
	})
}

func param(t *testing.T, n *graph.Node, name string) float64 {
	t.Helper()
	v, err := n.Parameter(name)
	if err != nil {
		t.Fatalf("Parameter(%q) failed: %v", name, err)
	}
	return v
}

func TestMountReplaysKnobs(t *testing.T) {
	f := newFixture()
	c := f.controller("red")
	if err := c.Mount("x", []float64{0.2, 0.5}); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	nodes := c.Chain().Nodes()
	if got := param(t, nodes[0], "frequency"); math.Abs(got-1100) > 1e-9 {
		t.Errorf("frequency = %v, want 1100", got)
	}
	if got := param(t, nodes[1], "wet"); got != 0.5 {
		t.Errorf("wet = %v, want 0.5", got)
	}
	if sends := c.Output().Sends(); len(sends) != 1 || sends[0] != bus.MasterChannel {
		t.Errorf("output sends to %v, want only the master channel", sends)
	}
	if f.buses.Receivers("red") != 1 {
		t.Errorf("%d buses receive the slot channel, want 1", f.buses.Receivers("red"))
	}
	if err := c.Mount("x", nil); err == nil {
		t.Error("expected error mounting twice")
	}
}

func TestMountOnMasterChannel(t *testing.T) {
	f := newFixture()
	c := f.controller(bus.MasterChannel)
	err := c.Mount("bare", nil)
	if !errors.Is(err, shapetone.ErrReservedChannel) {
		t.Fatalf("Mount error = %v, want ErrReservedChannel", err)
	}
	if c.Mounted() {
		t.Error("controller mounted on the master channel")
	}
	if f.ctx.Live() != 0 {
		t.Errorf("Live() = %d, want 0", f.ctx.Live())
	}
	if f.buses.Receivers(bus.MasterChannel) != 0 {
		t.Errorf("%d buses receive the master channel, want 0", f.buses.Receivers(bus.MasterChannel))
	}
}

func TestSynthKnobIsNoop(t *testing.T) {
	f := newFixture()
	c := f.controller("red")
	if err := c.Mount("y", []float64{0.3, 0.1}); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	nodes := c.Chain().Nodes()
	before := make([]map[string]float64, len(nodes))
	for i, n := range nodes {
		before[i] = n.Params()
	}
	live := f.ctx.Live()
	if err := c.ChangeKnob(1, 0.9); err != nil {
		t.Fatalf("ChangeKnob failed: %v", err)
	}
	after := c.Chain().Nodes()
	if !slices.Equal(nodes, after) {
		t.Fatal("synth knob change altered the chain")
	}
	for i, n := range after {
		for k, v := range n.Params() {
			if before[i][k] != v {
				t.Errorf("node %d: %s changed from %v to %v", i, k, before[i][k], v)
			}
		}
	}
	if f.ctx.Live() != live {
		t.Errorf("Live() = %d, want %d", f.ctx.Live(), live)
	}
}

func TestChangeKnob(t *testing.T) {
	f := newFixture()
	c := f.controller("red")
	if err := c.Mount("x", []float64{0, 0}); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if err := c.ChangeKnob(1, 0.75); err != nil {
		t.Fatalf("ChangeKnob failed: %v", err)
	}
	if got := param(t, c.Chain().Nodes()[1], "wet"); got != 0.75 {
		t.Errorf("wet = %v, want 0.75", got)
	}
	if err := c.ChangeKnob(7, 0.5); err != nil {
		t.Errorf("knob beyond the bindings should be ignored, got %v", err)
	}
	if err := c.ChangeKnob(-1, 0.5); err != nil {
		t.Errorf("negative knob should be ignored, got %v", err)
	}
}

func TestUnknownParameterIsReported(t *testing.T) {
	f := newFixture()
	c := f.controller("red")
	err := c.Mount("typo", []float64{0.5})
	if !errors.Is(err, shapetone.ErrUnknownParameter) {
		t.Fatalf("Mount error = %v, want ErrUnknownParameter", err)
	}
	if !c.Built() {
		t.Fatal("a failing knob should not tear down the chain")
	}
	if err := c.ChangeKnob(0, 0.1); !errors.Is(err, shapetone.ErrUnknownParameter) {
		t.Fatalf("ChangeKnob error = %v, want ErrUnknownParameter", err)
	}
	if f.logbuf.Len() == 0 {
		t.Error("expected the failure to be logged")
	}
}

func TestSwitchesDoNotLeak(t *testing.T) {
	f := newFixture()
	baseline := f.ctx.Live()
	c := f.controller("red")
	if err := c.Mount("x", []float64{0.2, 0.5}); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	outputOnly := baseline + 1
	old := c.Chain().Nodes()
	for _, id := range []string{"y", "z"} {
		if err := c.ChangeInstrument(id, []float64{0.5}); err != nil {
			t.Fatalf("ChangeInstrument(%q) failed: %v", id, err)
		}
		if n := len(c.Output().Inputs()); n != 1 {
			t.Fatalf("output has %d inputs after switching to %q, want 1", n, id)
		}
	}
	for i, n := range old {
		if !n.Disposed() {
			t.Errorf("node %d of the first chain not disposed", i)
		}
	}
	// output + input bus + three effects of z
	if want := outputOnly + 1 + 3; f.ctx.Live() != want {
		t.Fatalf("Live() = %d, want %d", f.ctx.Live(), want)
	}
	if f.buses.Receivers("red") != 1 {
		t.Fatalf("%d buses receive the slot channel, want 1", f.buses.Receivers("red"))
	}
	if got := param(t, c.Chain().Nodes()[0], "wet"); got != 0.5 {
		t.Errorf("knobs not replayed on switch, wet = %v", got)
	}
	c.Unmount()
	if f.ctx.Live() != baseline {
		t.Fatalf("Live() = %d after unmount, want %d", f.ctx.Live(), baseline)
	}
}

func TestChangeToSameInstrument(t *testing.T) {
	f := newFixture()
	c := f.controller("red")
	c.Mount("z", nil)
	before := c.Chain()
	if err := c.ChangeInstrument("z", []float64{1}); err != nil {
		t.Fatalf("ChangeInstrument failed: %v", err)
	}
	if c.Chain() != before {
		t.Fatal("changing to the current instrument rebuilt the chain")
	}
}

func TestEmptyPreset(t *testing.T) {
	f := newFixture()
	c := f.controller("red")
	if err := c.Mount("bare", []float64{0.5, 0.5}); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if c.Chain().Input().Next() != c.Output() {
		t.Fatal("empty preset should connect the input bus straight to the output")
	}
}

func TestFailedBuildLeavesControllerChainless(t *testing.T) {
	f := newFixture()
	c := f.controller("red")
	if err := c.Mount("x", nil); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if err := c.ChangeInstrument("broken", nil); !errors.Is(err, shapetone.ErrUnsupportedNodeKind) {
		t.Fatalf("ChangeInstrument error = %v, want ErrUnsupportedNodeKind", err)
	}
	if c.Built() {
		t.Fatal("controller should be chain-less after a failed build")
	}
	if f.ctx.Live() != 1 {
		t.Fatalf("Live() = %d, want only the output", f.ctx.Live())
	}
	if len(c.Output().Inputs()) != 0 {
		t.Fatal("failed build left the output connected")
	}
	if err := c.ChangeKnob(0, 0.4); err != nil {
		t.Fatalf("knob change on a chain-less controller should be ignored, got %v", err)
	}
	if err := c.ChangeInstrument("nope", nil); !errors.Is(err, shapetone.ErrUnknownInstrument) {
		t.Fatalf("ChangeInstrument error = %v, want ErrUnknownInstrument", err)
	}
	if err := c.ChangeInstrument("x", nil); err != nil || !c.Built() {
		t.Fatalf("controller should recover with a valid instrument, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	f := newFixture()
	c := f.controller("red")
	if err := c.Mount("x", []float64{0, 0}); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	nodes := c.Chain().Nodes()
	if err := c.Update("x", []float64{1, 1}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got := param(t, nodes[0], "frequency"); got != 5100 {
		t.Errorf("first changed knob not applied, frequency = %v", got)
	}
	if got := param(t, nodes[1], "wet"); got != 0 {
		t.Errorf("only the first changed knob should be applied, wet = %v", got)
	}
	if err := c.Update("x", []float64{1, 0.25}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got := param(t, nodes[1], "wet"); got != 0.25 {
		t.Errorf("wet = %v, want 0.25", got)
	}
	if err := c.Update("y", []float64{0.5, 0.5}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if c.Instrument() != "y" || c.Chain().Nodes()[0].Kind() != "distortion" {
		t.Fatal("instrument change in Update should rebuild the chain")
	}
}

func TestStep(t *testing.T) {
	f := newFixture()
	var got []string
	c := controller.New(testCatalog, f.buses, controller.Config{
		Channel:            "red",
		OnInstrumentChange: func(id string) { got = append(got, id) },
	})
	c.Mount("z", nil)
	// ids: bare broken typo x y z
	if next := c.Step(1); next != "bare" {
		t.Errorf("Step(1) = %q, want bare", next)
	}
	if next := c.Step(-1); next != "y" {
		t.Errorf("Step(-1) = %q, want y", next)
	}
	if !slices.Equal(got, []string{"bare", "y"}) {
		t.Errorf("callback got %v", got)
	}
	if c.Instrument() != "z" {
		t.Error("Step should not change the instrument by itself")
	}
}

func TestUnmount(t *testing.T) {
	f := newFixture()
	never := f.controller("blue")
	never.Unmount()
	never.Unmount()

	master, _ := f.buses.NewBus(1)
	f.buses.Receive(master, bus.MasterChannel)
	c := f.controller("red")
	c.Mount("x", nil)
	c.Unmount()
	c.Unmount()
	if c.Output() != nil || c.Built() {
		t.Fatal("unmount left state behind")
	}
	if master.Disposed() || f.buses.Receivers(bus.MasterChannel) != 1 {
		t.Fatal("unmount must not touch the master bus")
	}
	if err := c.ChangeInstrument("y", nil); err == nil {
		t.Fatal("expected error changing instrument of an unmounted controller")
	}
}

func TestFirstChanged(t *testing.T) {
	tests := []struct {
		a, b []float64
		want int
	}{
		{nil, nil, -1},
		{[]float64{1, 2}, []float64{1, 2}, -1},
		{[]float64{1, 2}, []float64{1, 3}, 1},
		{[]float64{1, 2, 3}, []float64{0, 2, 0}, 0},
		{[]float64{1}, []float64{1, 2}, 1},
		{[]float64{1, 2}, []float64{1}, 1},
	}
	for _, tt := range tests {
		if got := controller.FirstChanged(tt.a, tt.b); got != tt.want {
			t.Errorf("FirstChanged(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
