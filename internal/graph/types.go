// Package graph implements the render-thread graph engine: node records,
// the control-message protocol, topological ordering of the live subgraph,
// and the per-quantum render loop.
package graph

import (
	"audiograph/internal/param"
	"audiograph/internal/pool"
	"audiograph/internal/quantum"
)

// NodeID identifies a node. Allocated by an atomic counter on the control
// thread; ids 0 (destination) and 1..=10 (listener and its nine params)
// are reserved.
type NodeID uint64

// CountMode controls how a node's channel count reconciles with its
// inputs' channel counts.
type CountMode int

const (
	Max CountMode = iota
	ClampedMax
	Explicit
)

// ChannelConfig is a node's channel-count policy.
type ChannelConfig struct {
	Count          int
	CountMode      CountMode
	Interpretation quantum.Interpretation
}

// DefaultChannelConfig is the Web Audio default for ordinary nodes: 2
// channels, Max count-mode, Speakers interpretation.
func DefaultChannelConfig() ChannelConfig {
	return ChannelConfig{Count: 2, CountMode: Max, Interpretation: quantum.Speakers}
}

// Scope carries per-quantum render context into a Processor.
type Scope struct {
	CurrentTime float64
	SampleRate  float64
	Frame       uint64
}

// ParamValues maps a node's param names to the quantum of computed values
// sampled for it this render tick.
type ParamValues map[string]*[pool.Quantum]float32

// Processor is the uniform contract every node implements on the render
// thread. Process reads inputs and the sampled param values for the
// current scope, writes outputs, and returns whether the node wants to
// be kept alive next quantum.
type Processor interface {
	Process(inputs []*quantum.Quantum, outputs []*quantum.Quantum, params ParamValues, scope Scope) bool
}

// ParamSpec declares one of a node's AudioParams at registration time.
type ParamSpec struct {
	Name string
	Desc param.Descriptor
}
