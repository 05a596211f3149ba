package catalog

import (
	"errors"
	"fmt"

	"github.com/shapetone/shapetone"
)

// Validate checks that every node kind of p is known, every construction
// parameter exists and is within its range, and every knob binding points to
// an existing parameter of an existing node. All problems are reported.
func Validate(p shapetone.Preset) error {
	var errs []error
	for i, d := range p.Effects {
		kind, ok := shapetone.NodeKinds[d.Kind]
		if !ok {
			errs = append(errs, fmt.Errorf("effect %d: %w %q", i, shapetone.ErrUnsupportedNodeKind, d.Kind))
			continue
		}
		for name, v := range d.Params {
			param, ok := kind.Param(name)
			if !ok {
				errs = append(errs, fmt.Errorf("effect %d: %w: %s has no parameter %q", i, shapetone.ErrUnknownParameter, d.Kind, name))
				continue
			}
			if v < param.Min || v > param.Max {
				errs = append(errs, fmt.Errorf("effect %d: %s = %v out of range [%v, %v]", i, name, v, param.Min, param.Max))
			}
		}
	}
	for i, k := range p.Knobs {
		switch k.Target {
		case shapetone.TargetSynth:
		case shapetone.TargetEffect:
			if k.Node < 0 || k.Node >= len(p.Effects) {
				errs = append(errs, fmt.Errorf("knob %d: %w: no effect %d", i, shapetone.ErrInvalidBinding, k.Node))
				continue
			}
			if k.Update != nil {
				continue
			}
			kind := p.Effects[k.Node].Kind
			if _, ok := shapetone.NodeKinds[kind].Param(k.Param); !ok {
				errs = append(errs, fmt.Errorf("knob %d: %w: %s has no parameter %q", i, shapetone.ErrUnknownParameter, kind, k.Param))
			}
		default:
			errs = append(errs, fmt.Errorf("knob %d: %w: unknown target %q", i, shapetone.ErrInvalidBinding, k.Target))
		}
	}
	return errors.Join(errs...)
}

// Validate validates every preset of the catalog.
func (c *Catalog) Validate() error {
	var errs []error
	for _, id := range c.ids {
		if err := Validate(c.entries[id].preset); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
