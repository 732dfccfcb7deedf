package node

import (
	"audiograph/internal/graph"
	"audiograph/internal/pool"
	"audiograph/internal/quantum"
)

// ChannelSplitterNode fans a single multi-channel input out to N
// single-channel outputs (Discrete interpretation: no mixing, just
// routing channel i of the input to output port i).
type ChannelSplitterNode struct {
	pool        *pool.Pool
	numOutputs  int
}

// NewChannelSplitter returns a ChannelSplitterNode with numOutputs ports.
func NewChannelSplitter(p *pool.Pool, numOutputs int) *ChannelSplitterNode {
	return &ChannelSplitterNode{pool: p, numOutputs: numOutputs}
}

func (s *ChannelSplitterNode) Process(inputs []*quantum.Quantum, outputs []*quantum.Quantum, params graph.ParamValues, scope graph.Scope) bool {
	in := inputs[0]
	n := in.NumberOfChannels()
	for i := 0; i < s.numOutputs; i++ {
		out := outputs[i]
		out.SetNumberOfChannels(s.pool, 1)
		dst := out.ChannelMut(s.pool, 0)
		if i < n {
			src := in.Channel(i).View()
			copy(dst[:], src[:])
		} else {
			for j := range dst {
				dst[j] = 0
			}
		}
	}
	return true
}

// ChannelMergerNode fans N single-channel inputs in to one multi-channel
// output (Discrete interpretation: input port i becomes output channel
// i, zero-extended for any unconnected input).
type ChannelMergerNode struct {
	pool     *pool.Pool
	numInputs int
}

// NewChannelMerger returns a ChannelMergerNode with numInputs ports.
func NewChannelMerger(p *pool.Pool, numInputs int) *ChannelMergerNode {
	return &ChannelMergerNode{pool: p, numInputs: numInputs}
}

func (m *ChannelMergerNode) Process(inputs []*quantum.Quantum, outputs []*quantum.Quantum, params graph.ParamValues, scope graph.Scope) bool {
	out := outputs[0]
	out.SetNumberOfChannels(m.pool, m.numInputs)
	for i := 0; i < m.numInputs; i++ {
		src := inputs[i].Channel(0).View()
		dst := out.ChannelMut(m.pool, i)
		copy(dst[:], src[:])
	}
	return true
}
