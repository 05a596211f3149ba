// Package graph implements the live audio processing graph: nodes wrapping
// opaque processors, series connections between them and named sends.
//
// The graph is not safe for concurrent use. All mutations and all processing
// are expected to happen on one goroutine, typically the audio goroutine that
// also drains the engine messages between blocks.
package graph

import (
	"fmt"
	"slices"

	"github.com/shapetone/shapetone"
)

type (
	// Processor is the opaque processing unit inside a node. Processors are
	// only ever given parameter values that have been validated and clamped
	// against shapetone.NodeKinds.
	Processor interface {
		SetParameter(name string, value float64)
		Process(block []float32)
	}

	// Starter is implemented by processors with an internal oscillator that
	// has to be started explicitly.
	Starter interface {
		Start()
	}

	// Releaser is implemented by processors holding resources, e.g. delay
	// lines, that should be freed when the node is disposed.
	Releaser interface {
		Release()
	}

	// Mixer receives the blocks a node sends to a named channel.
	Mixer interface {
		Mix(channel string, block []float32, gain float32)
	}

	// Node is a single live processing unit in the graph. A node has at most
	// one series successor, any number of predecessors and any number of
	// sends to named channels.
	Node struct {
		ctx      *Context
		id       int
		kind     string
		proc     Processor
		params   map[string]float64
		next     *Node
		inputs   []*Node
		sends    []send
		started  bool
		disposed bool
	}

	send struct {
		mixer   Mixer
		channel string
		gain    float32
	}
)

// New wraps proc into a node of the given kind. Every parameter documented for
// the kind in shapetone.NodeKinds is initialized to its default value.
func New(ctx *Context, kind string, proc Processor) *Node {
	n := &Node{ctx: ctx, id: ctx.allocate(), kind: kind, proc: proc, params: map[string]float64{}}
	for _, p := range shapetone.NodeKinds[kind].Params {
		n.params[p.Name] = p.Default
		proc.SetParameter(p.Name, p.Default)
	}
	return n
}

func (n *Node) ID() int      { return n.id }
func (n *Node) Kind() string { return n.kind }

func (n *Node) String() string {
	return fmt.Sprintf("%s#%d", n.kind, n.id)
}

// Connect connects the output of n in series to the input of next.
func (n *Node) Connect(next *Node) error {
	if n.disposed || next.disposed {
		return fmt.Errorf("connect %v -> %v: %w", n, next, shapetone.ErrDisposed)
	}
	if n == next {
		return fmt.Errorf("connect %v to itself", n)
	}
	if n.next != nil {
		return fmt.Errorf("connect %v -> %v: %w to %v", n, next, shapetone.ErrAlreadyConnected, n.next)
	}
	n.next = next
	next.inputs = append(next.inputs, n)
	return nil
}

// Disconnect removes the series connection and all the sends of n. Nodes
// connected to the input of n are not affected.
func (n *Node) Disconnect() {
	if n.next != nil {
		n.next.removeInput(n)
		n.next = nil
	}
	n.sends = nil
}

// AddSend routes the output of n to the named channel of m, scaled by gain.
func (n *Node) AddSend(m Mixer, channel string, gain float32) error {
	if n.disposed {
		return fmt.Errorf("send %v to %q: %w", n, channel, shapetone.ErrDisposed)
	}
	n.sends = append(n.sends, send{mixer: m, channel: channel, gain: gain})
	return nil
}

// Next returns the series successor of n, or nil.
func (n *Node) Next() *Node { return n.next }

// Inputs returns the nodes connected to the input of n.
func (n *Node) Inputs() []*Node { return slices.Clone(n.inputs) }

// Prev returns the single predecessor of n. Returns nil if n has no inputs or
// more than one input.
func (n *Node) Prev() *Node {
	if len(n.inputs) != 1 {
		return nil
	}
	return n.inputs[0]
}

// Sends returns the channels n sends to.
func (n *Node) Sends() []string {
	ret := make([]string, len(n.sends))
	for i, s := range n.sends {
		ret[i] = s.channel
	}
	return ret
}

// SetParameter sets the named parameter, clamped to its documented range.
func (n *Node) SetParameter(name string, value float64) error {
	if n.disposed {
		return fmt.Errorf("set %s on %v: %w", name, n, shapetone.ErrDisposed)
	}
	p, ok := shapetone.NodeKinds[n.kind].Param(name)
	if !ok {
		return fmt.Errorf("%w: %s has no parameter %q", shapetone.ErrUnknownParameter, n.kind, name)
	}
	value = p.Clamp(value)
	n.params[name] = value
	n.proc.SetParameter(name, value)
	return nil
}

// Parameter returns the current value of the named parameter.
func (n *Node) Parameter(name string) (float64, error) {
	v, ok := n.params[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s has no parameter %q", shapetone.ErrUnknownParameter, n.kind, name)
	}
	return v, nil
}

// Params returns a copy of all the current parameter values.
func (n *Node) Params() map[string]float64 {
	ret := make(map[string]float64, len(n.params))
	for k, v := range n.params {
		ret[k] = v
	}
	return ret
}

// Start starts the internal oscillator of a periodic node. Starting a node
// that is not periodic, or is already started, does nothing.
func (n *Node) Start() error {
	if n.disposed {
		return fmt.Errorf("start %v: %w", n, shapetone.ErrDisposed)
	}
	if n.started {
		return nil
	}
	if s, ok := n.proc.(Starter); ok {
		s.Start()
	}
	n.started = true
	return nil
}

func (n *Node) Started() bool { return n.started }

// Dispose disconnects n from both directions and releases its processor.
// Disposing an already disposed node does nothing.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.Disconnect()
	for _, in := range n.inputs {
		if in.next == n {
			in.next = nil
		}
	}
	n.inputs = nil
	if r, ok := n.proc.(Releaser); ok {
		r.Release()
	}
	n.proc = nil
	n.disposed = true
	n.ctx.release()
}

func (n *Node) Disposed() bool { return n.disposed }

// Push processes block in place, delivers it to the sends and then forwards it
// to the series successor. Disposed nodes drop the block.
func (n *Node) Push(block []float32) {
	if n.disposed {
		return
	}
	n.proc.Process(block)
	for _, s := range n.sends {
		s.mixer.Mix(s.channel, block, s.gain)
	}
	if n.next != nil {
		n.next.Push(block)
	}
}

func (n *Node) removeInput(in *Node) {
	if i := slices.Index(n.inputs, in); i >= 0 {
		n.inputs = slices.Delete(n.inputs, i, i+1)
	}
}
