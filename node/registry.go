// Package node instantiates processing nodes from descriptors and provides the
// built-in processors.
package node

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shapetone/shapetone"
	"github.com/shapetone/shapetone/graph"
)

// Factory builds one processor instance.
type Factory func(ctx *graph.Context) (graph.Processor, error)

// Registry maps node kinds to their factories.
type Registry struct {
	ctx       *graph.Context
	factories map[string]Factory
}

var errDuplicateKind = errors.New("duplicate node kind")

// NewRegistry creates an empty registry creating nodes in ctx.
func NewRegistry(ctx *graph.Context) *Registry {
	return &Registry{ctx: ctx, factories: make(map[string]Factory)}
}

// Context returns the graph context the nodes are created in.
func (r *Registry) Context() *graph.Context { return r.ctx }

// Register adds a factory for the given node kind.
func (r *Registry) Register(kind string, factory Factory) error {
	if kind == "" {
		return errors.New("empty node kind")
	}
	if factory == nil {
		return errors.New("nil factory")
	}
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("%w: %s", errDuplicateKind, kind)
	}
	r.factories[kind] = factory
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(kind string, factory Factory) {
	if err := r.Register(kind, factory); err != nil {
		panic("node registry: " + err.Error())
	}
}

// Lookup returns the factory for the given node kind, or nil.
func (r *Registry) Lookup(kind string) Factory {
	return r.factories[kind]
}

// Create instantiates the node described by desc. The node gets the default
// parameters of its kind, overridden by the descriptor parameters. If any of
// the descriptor parameters is unknown, the node is disposed and an error
// wrapping shapetone.ErrUnknownParameter is returned. Create does not start
// periodic nodes; that is left to the caller.
func (r *Registry) Create(desc shapetone.NodeDescriptor) (*graph.Node, error) {
	factory := r.factories[desc.Kind]
	if factory == nil {
		return nil, fmt.Errorf("%w: %q", shapetone.ErrUnsupportedNodeKind, desc.Kind)
	}
	proc, err := factory(r.ctx)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", desc.Kind, err)
	}
	n := graph.New(r.ctx, desc.Kind, proc)
	names := make([]string, 0, len(desc.Params))
	for name := range desc.Params {
		names = append(names, name)
	}
	sort.Strings(names) // for deterministic parameter order
	for _, name := range names {
		if err := n.SetParameter(name, desc.Params[name]); err != nil {
			n.Dispose()
			return nil, err
		}
	}
	return n, nil
}

// DefaultRegistry returns a Registry pre-populated with all built-in
// processors.
func DefaultRegistry(ctx *graph.Context) *Registry {
	r := NewRegistry(ctx)
	r.MustRegister("gain", func(*graph.Context) (graph.Processor, error) {
		return &Gain{}, nil
	})
	r.MustRegister("distortion", func(*graph.Context) (graph.Processor, error) {
		return &Distortion{}, nil
	})
	r.MustRegister("bitcrusher", func(*graph.Context) (graph.Processor, error) {
		return &BitCrusher{}, nil
	})
	r.MustRegister("filter", func(ctx *graph.Context) (graph.Processor, error) {
		return NewFilter(ctx.SampleRate)
	})
	r.MustRegister("delay", func(ctx *graph.Context) (graph.Processor, error) {
		return NewDelay(ctx.SampleRate)
	})
	r.MustRegister("chorus", func(ctx *graph.Context) (graph.Processor, error) {
		return NewChorus(ctx.SampleRate)
	})
	r.MustRegister("tremolo", func(ctx *graph.Context) (graph.Processor, error) {
		return NewTremolo(ctx.SampleRate)
	})
	r.MustRegister("autofilter", func(ctx *graph.Context) (graph.Processor, error) {
		return NewAutoFilter(ctx.SampleRate)
	})
	r.MustRegister("reverb", func(ctx *graph.Context) (graph.Processor, error) {
		return NewReverb(ctx.SampleRate)
	})
	return r
}
