package chain

import (
	"fmt"

	"github.com/shapetone/shapetone"
	"github.com/shapetone/shapetone/graph"
)

type (
	// Dispatch maps knob indices to the live nodes of one chain. It is built
	// fresh for every chain and never reused across chains.
	Dispatch struct {
		targets []Target
	}

	// Target is a knob binding resolved against a chain. Node is nil for
	// synth-intrinsic bindings.
	Target struct {
		Binding shapetone.KnobBinding
		Node    *graph.Node
	}
)

// NewDispatch resolves knobs against the nodes of c. Effect bindings pointing
// outside the chain are reported as shapetone.ErrInvalidBinding.
func NewDispatch(knobs []shapetone.KnobBinding, c *Chain) (*Dispatch, error) {
	d := &Dispatch{targets: make([]Target, len(knobs))}
	for i, k := range knobs {
		d.targets[i].Binding = k
		switch k.Target {
		case shapetone.TargetSynth:
		case shapetone.TargetEffect:
			if k.Node < 0 || k.Node >= len(c.nodes) {
				return nil, fmt.Errorf("%w: knob %d controls node %d of a chain of %d", shapetone.ErrInvalidBinding, i, k.Node, len(c.nodes))
			}
			d.targets[i].Node = c.nodes[k.Node]
		default:
			return nil, fmt.Errorf("%w: knob %d has target %q", shapetone.ErrInvalidBinding, i, k.Target)
		}
	}
	return d, nil
}

// Resolve returns the target of knob index. ok is false for indices beyond
// the bound knobs.
func (d *Dispatch) Resolve(index int) (t Target, ok bool) {
	if d == nil || index < 0 || index >= len(d.targets) {
		return Target{}, false
	}
	return d.targets[index], true
}

// Len returns the number of bound knobs.
func (d *Dispatch) Len() int {
	if d == nil {
		return 0
	}
	return len(d.targets)
}

// Apply runs the bound update with value. Synth-intrinsic targets are handled
// elsewhere, so for them Apply does nothing.
func (t Target) Apply(value float64) error {
	if t.Binding.Target != shapetone.TargetEffect {
		return nil
	}
	if err := t.Binding.Apply(t.Node, value); err != nil {
		return fmt.Errorf("knob %q on %v: %w", t.Binding.Name, t.Node, err)
	}
	return nil
}
