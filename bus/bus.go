// Package bus implements named channel buses: many-to-one mixing points that
// let independent producers send audio to a channel name without holding a
// reference to whoever receives it.
package bus

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/viterin/vek/vek32"

	"github.com/shapetone/shapetone"
	"github.com/shapetone/shapetone/graph"
	"github.com/shapetone/shapetone/node"
)

// MasterChannel is the well-known channel every instrument output is sent to.
const MasterChannel = "master-output"

type (
	// Registry is the named channel registry of one engine. Any number of
	// buses may receive the same channel, and sending to a channel nobody
	// receives is not an error.
	Registry struct {
		nodes     *node.Registry
		receivers map[string][]*Bus
		tmp       []float32
	}

	// Bus is a gain node that accumulates everything sent to the channels it
	// receives, and pushes the mix through the graph when the channel is
	// flushed.
	Bus struct {
		*graph.Node
		registry *Registry
		channels []string
		acc      []float32
	}
)

// NewRegistry creates a registry whose buses are created with nodes.
func NewRegistry(nodes *node.Registry) *Registry {
	return &Registry{nodes: nodes, receivers: make(map[string][]*Bus)}
}

// Nodes returns the node registry used for creating the buses.
func (r *Registry) Nodes() *node.Registry { return r.nodes }

// NewBus creates a bus with the given linear gain.
func (r *Registry) NewBus(gain float64) (*Bus, error) {
	n, err := r.nodes.Create(shapetone.NodeDescriptor{Kind: "gain", Params: map[string]float64{"gain": gain}})
	if err != nil {
		return nil, fmt.Errorf("create bus: %w", err)
	}
	return &Bus{Node: n, registry: r}, nil
}

// Receive subscribes b to everything sent to channel.
func (r *Registry) Receive(b *Bus, channel string) error {
	if b.Disposed() {
		return fmt.Errorf("receive %q on %v: %w", channel, b, shapetone.ErrDisposed)
	}
	if b.registry != r {
		return fmt.Errorf("receive %q on %v: bus belongs to another registry", channel, b)
	}
	if slices.Contains(b.channels, channel) {
		return nil
	}
	b.channels = append(b.channels, channel)
	r.receivers[channel] = append(r.receivers[channel], b)
	return nil
}

// Send routes the output of n to channel, with level given in decibels; 0 dB
// is unity gain.
func (r *Registry) Send(n *graph.Node, channel string, levelDB float64) error {
	return n.AddSend(r, channel, float32(math.Pow(10, levelDB/20)))
}

// Mix adds block, scaled by gain, to every bus receiving channel.
func (r *Registry) Mix(channel string, block []float32, gain float32) {
	buses := r.receivers[channel]
	if len(buses) == 0 {
		return
	}
	src := block
	if gain != 1 {
		if cap(r.tmp) < len(block) {
			r.tmp = make([]float32, len(block))
		}
		src = vek32.MulNumber_Into(r.tmp[:len(block)], block, gain)
	}
	for _, b := range buses {
		b.accumulate(src)
	}
}

// Flush pushes frames samples of the accumulated mix of every bus receiving
// channel through the graph, and clears the accumulators. Buses that got
// nothing push silence, so that effect tails keep ringing.
func (r *Registry) Flush(channel string, frames int) {
	for _, b := range r.receivers[channel] {
		b.flush(frames)
	}
}

// Receivers returns the number of buses receiving channel.
func (r *Registry) Receivers(channel string) int { return len(r.receivers[channel]) }

// Channels returns, sorted, all the channels with at least one receiver.
func (r *Registry) Channels() []string {
	ret := make([]string, 0, len(r.receivers))
	for ch := range r.receivers {
		ret = append(ret, ch)
	}
	sort.Strings(ret)
	return ret
}

func (r *Registry) unsubscribe(b *Bus) {
	for _, ch := range b.channels {
		buses := r.receivers[ch]
		if i := slices.Index(buses, b); i >= 0 {
			buses = slices.Delete(buses, i, i+1)
		}
		if len(buses) == 0 {
			delete(r.receivers, ch)
		} else {
			r.receivers[ch] = buses
		}
	}
	b.channels = nil
}

// Channels returns the channels b receives.
func (b *Bus) Channels() []string { return slices.Clone(b.channels) }

// Dispose unsubscribes b from all its channels and disposes its node.
// Disposing an already disposed bus does nothing.
func (b *Bus) Dispose() {
	b.registry.unsubscribe(b)
	b.acc = nil
	b.Node.Dispose()
}

func (b *Bus) accumulate(block []float32) {
	if len(b.acc) < len(block) {
		acc := make([]float32, len(block))
		copy(acc, b.acc)
		b.acc = acc
	}
	vek32.Add_Inplace(b.acc[:len(block)], block)
}

func (b *Bus) flush(frames int) {
	if len(b.acc) < frames {
		acc := make([]float32, frames)
		copy(acc, b.acc)
		b.acc = acc
	}
	block := b.acc[:frames]
	b.Push(block)
	clear(b.acc)
}
