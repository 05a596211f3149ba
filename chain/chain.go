// Package chain builds effect chains: series connections of processing nodes
// between an input bus and an output node, and the knob dispatch tables bound
// to them.
package chain

import (
	"fmt"

	"github.com/shapetone/shapetone"
	"github.com/shapetone/shapetone/bus"
	"github.com/shapetone/shapetone/graph"
	"github.com/shapetone/shapetone/node"
)

type (
	// State is the lifecycle state of a Chain.
	State int

	// Chain is an ordered list of live nodes connected in strict series from
	// an input bus to an output node. A chain is either fully connected or
	// fully disposed; it is never patched in place.
	Chain struct {
		state  State
		input  *bus.Bus
		nodes  []*graph.Node
		output *graph.Node
	}

	// Builder instantiates chains from node descriptors.
	Builder struct {
		nodes *node.Registry
	}
)

const (
	Unbuilt State = iota
	Built
	Disposed
)

func (s State) String() string {
	switch s {
	case Unbuilt:
		return "unbuilt"
	case Built:
		return "built"
	case Disposed:
		return "disposed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func NewBuilder(nodes *node.Registry) *Builder {
	return &Builder{nodes: nodes}
}

// Build instantiates descs in order, starting the ones flagged AutoStart right
// after construction, and connects input -> descs[0] -> ... -> descs[n-1] ->
// output. An empty descs connects input directly to output.
//
// Build is all-or-nothing: on error, every node created by this call has been
// disposed and input is left unconnected. The input bus is not disposed on
// error; it still belongs to the caller.
func (b *Builder) Build(descs []shapetone.NodeDescriptor, input *bus.Bus, output *graph.Node) (*Chain, error) {
	c := &Chain{input: input, output: output, nodes: make([]*graph.Node, 0, len(descs))}
	for i, desc := range descs {
		n, err := b.nodes.Create(desc)
		if err != nil {
			c.unwind()
			return nil, fmt.Errorf("chain: node %d: %w", i, err)
		}
		c.nodes = append(c.nodes, n)
		if desc.AutoStart {
			if err := n.Start(); err != nil {
				c.unwind()
				return nil, fmt.Errorf("chain: start node %d: %w", i, err)
			}
		}
	}
	prev := input.Node
	for _, n := range c.nodes {
		if err := prev.Connect(n); err != nil {
			c.unwind()
			return nil, fmt.Errorf("chain: %w", err)
		}
		prev = n
	}
	if err := prev.Connect(output); err != nil {
		c.unwind()
		return nil, fmt.Errorf("chain: %w", err)
	}
	c.state = Built
	return c, nil
}

// unwind disposes the nodes created so far. Disposing a node also removes the
// connection from input to it.
func (c *Chain) unwind() {
	for _, n := range c.nodes {
		n.Dispose()
	}
	c.nodes = nil
}

// Dispose disconnects and disposes every node of the chain and the input bus.
// The output node is left alive, with the chain removed from its inputs.
// Disposing a chain that is not built does nothing.
func (c *Chain) Dispose() {
	if c.state != Built {
		return
	}
	for _, n := range c.nodes {
		n.Disconnect()
		n.Dispose()
	}
	c.input.Disconnect()
	c.input.Dispose()
	c.nodes = nil
	c.state = Disposed
}

func (c *Chain) State() State { return c.state }

// Nodes returns the live nodes of the chain in series order.
func (c *Chain) Nodes() []*graph.Node {
	return append([]*graph.Node(nil), c.nodes...)
}

func (c *Chain) Input() *bus.Bus      { return c.input }
func (c *Chain) Output() *graph.Node { return c.output }

// Len returns the number of nodes in the chain.
func (c *Chain) Len() int { return len(c.nodes) }
