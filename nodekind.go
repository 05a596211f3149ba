package shapetone

import (
	"math"
	"sort"
)

type (
	// NodeParameter documents one parameter that a node kind takes.
	NodeParameter struct {
		Name    string  // should be found with this name in NodeDescriptor.Params
		Min     float64 // minimum value of the parameter, inclusive
		Max     float64 // maximum value of the parameter, inclusive
		Default float64 // value used when the descriptor does not give one
	}

	// NodeType documents a processing node kind.
	NodeType struct {
		Params []NodeParameter
		// Periodic is true for nodes driven by an internal oscillator, which
		// stay frozen until started.
		Periodic bool
	}
)

var wetParam = NodeParameter{Name: "wet", Min: 0, Max: 1, Default: 1}

// NodeKinds documents all the processing node kinds the engine knows and what
// parameters they take.
var NodeKinds = map[string]NodeType{
	"gain": {Params: []NodeParameter{
		{Name: "gain", Min: 0, Max: 4, Default: 1}}},
	"distortion": {Params: []NodeParameter{
		{Name: "distortion", Min: 0, Max: 1, Default: 0.4},
		wetParam}},
	"bitcrusher": {Params: []NodeParameter{
		{Name: "bits", Min: 1, Max: 16, Default: 4},
		wetParam}},
	"filter": {Params: []NodeParameter{
		{Name: "frequency", Min: 10, Max: 20000, Default: 350},
		{Name: "q", Min: 0.1, Max: 30, Default: 1},
		wetParam}},
	"delay": {Params: []NodeParameter{
		{Name: "delaytime", Min: 0, Max: 2, Default: 0.25},
		{Name: "feedback", Min: 0, Max: 0.95, Default: 0.125},
		wetParam}},
	"chorus": {Periodic: true, Params: []NodeParameter{
		{Name: "frequency", Min: 0, Max: 20, Default: 1.5},
		{Name: "delaytime", Min: 0.5, Max: 30, Default: 3.5},
		{Name: "depth", Min: 0, Max: 1, Default: 0.7},
		wetParam}},
	"tremolo": {Periodic: true, Params: []NodeParameter{
		{Name: "frequency", Min: 0, Max: 40, Default: 10},
		{Name: "depth", Min: 0, Max: 1, Default: 0.5},
		wetParam}},
	"autofilter": {Periodic: true, Params: []NodeParameter{
		{Name: "frequency", Min: 0, Max: 20, Default: 1},
		{Name: "basefrequency", Min: 10, Max: 10000, Default: 200},
		{Name: "octaves", Min: 0, Max: 8, Default: 2.6},
		{Name: "depth", Min: 0, Max: 1, Default: 1},
		wetParam}},
	"reverb": {Params: []NodeParameter{
		{Name: "roomsize", Min: 0, Max: 1, Default: 0.7},
		{Name: "dampening", Min: 0, Max: 1, Default: 0.5},
		wetParam}},
}

// NodeKindNames is a list of all the node kinds, sorted alphabetically.
var NodeKindNames []string

func init() {
	NodeKindNames = make([]string, 0, len(NodeKinds))
	for k := range NodeKinds {
		NodeKindNames = append(NodeKindNames, k)
	}
	sort.Strings(NodeKindNames)
}

// Param returns the documentation of the named parameter of the node kind.
func (t NodeType) Param(name string) (NodeParameter, bool) {
	for _, p := range t.Params {
		if p.Name == name {
			return p, true
		}
	}
	return NodeParameter{}, false
}

// Clamp limits value to the range of the parameter. NaN is replaced with the
// default value.
func (p NodeParameter) Clamp(value float64) float64 {
	if math.IsNaN(value) {
		return p.Default
	}
	return max(min(value, p.Max), p.Min)
}
