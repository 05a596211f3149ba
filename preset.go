package shapetone

import "slices"

type (
	// NodeDescriptor tells which processing node to instantiate and with which
	// construction parameters. Descriptors come from the preset catalog and
	// are never mutated by the engine.
	NodeDescriptor struct {
		// Kind is the kind of the node, e.g. "delay" or "tremolo". Should be
		// one of the keys of NodeKinds.
		Kind string

		// Params is the construction parameters of the node. Parameters not
		// given here get the defaults documented in NodeKinds.
		Params map[string]float64 `yaml:",flow,omitempty"`

		// AutoStart is set for nodes that have to be started right after
		// construction, most notably the LFO-driven modulators.
		AutoStart bool `yaml:",omitempty"`
	}

	// BindingTarget classifies what a knob controls.
	BindingTarget string

	// ParameterSetter is anything a knob update can be applied to.
	ParameterSetter interface {
		SetParameter(name string, value float64) error
	}

	// UpdateFunc applies a knob value to a live node.
	UpdateFunc func(n ParameterSetter, value float64) error

	// KnobBinding describes what a single knob of an instrument controls.
	KnobBinding struct {
		// Name is the label of the knob, e.g. "reverb" or "cutoff".
		Name string `yaml:",omitempty"`

		// Target tells if the knob controls an effect in the chain or a
		// parameter intrinsic to the synth. Synth targets are handled by the
		// synthesis collaborator and ignored by the routing engine.
		Target BindingTarget

		// Node is the index of the controlled node in Preset.Effects. Only
		// meaningful for effect targets.
		Node int `yaml:",omitempty"`

		// Param is the name of the controlled node parameter.
		Param string `yaml:",omitempty"`

		// Min and Max map the knob range 0..1 linearly into the parameter
		// range. When both are zero, the knob value is used as is.
		Min float64 `yaml:",omitempty"`
		Max float64 `yaml:",omitempty"`

		// Update overrides the default update of setting Param to the scaled
		// knob value. Can only be given in code.
		Update UpdateFunc `yaml:"-"`
	}

	// Preset is the immutable description of one instrument: the effect chain
	// topology and the knobs exposed to the user.
	Preset struct {
		Name    string `yaml:",omitempty"`
		Comment string `yaml:",omitempty"`
		// Synth identifies the base synth for the synthesis collaborator; the
		// routing engine does not interpret it.
		Synth   string `yaml:",omitempty"`
		Effects []NodeDescriptor
		Knobs   []KnobBinding
	}

	// Catalog is a read-only collection of instrument presets.
	Catalog interface {
		// Preset returns the preset with the given id.
		Preset(id string) (Preset, bool)
		// IDs returns all instrument ids, in the order they are cycled through.
		IDs() []string
	}
)

const (
	TargetEffect BindingTarget = "effect"
	TargetSynth  BindingTarget = "synth"
)

// Copy makes a deep copy of a descriptor.
func (d *NodeDescriptor) Copy() NodeDescriptor {
	var params map[string]float64
	if d.Params != nil {
		params = make(map[string]float64, len(d.Params))
		for k, v := range d.Params {
			params[k] = v
		}
	}
	return NodeDescriptor{Kind: d.Kind, Params: params, AutoStart: d.AutoStart}
}

// Copy makes a deep copy of a preset.
func (p *Preset) Copy() Preset {
	effects := make([]NodeDescriptor, len(p.Effects))
	for i, e := range p.Effects {
		effects[i] = e.Copy()
	}
	return Preset{Name: p.Name, Comment: p.Comment, Synth: p.Synth, Effects: effects, Knobs: slices.Clone(p.Knobs)}
}

// Scale maps a knob value into the parameter range of the binding.
func (b *KnobBinding) Scale(value float64) float64 {
	if b.Min == 0 && b.Max == 0 {
		return value
	}
	return b.Min + value*(b.Max-b.Min)
}

// Apply runs the update of the binding against n.
func (b *KnobBinding) Apply(n ParameterSetter, value float64) error {
	if b.Update != nil {
		return b.Update(n, value)
	}
	return n.SetParameter(b.Param, b.Scale(value))
}

// Cycle returns the id delta steps away from current in ids. Stepping past the
// last id wraps to the first one and stepping before the first id wraps to the
// last one. An unknown current is treated as being at index -1. Returns "" if
// ids is empty.
func Cycle(ids []string, current string, delta int) string {
	if len(ids) == 0 {
		return ""
	}
	i := slices.Index(ids, current) + delta
	if i >= len(ids) {
		i = 0
	}
	if i < 0 {
		i = len(ids) - 1
	}
	return ids[i]
}
