package node

import (
	"audiograph/internal/graph"
	"audiograph/internal/pool"
	"audiograph/internal/quantum"
)

// GainNode multiplies every input channel by its "gain" AudioParam,
// sample-wise for a-rate, or by a single scalar for k-rate.
type GainNode struct {
	pool *pool.Pool
}

// NewGain returns a GainNode.
func NewGain(p *pool.Pool) *GainNode {
	return &GainNode{pool: p}
}

func (g *GainNode) Process(inputs []*quantum.Quantum, outputs []*quantum.Quantum, params graph.ParamValues, scope graph.Scope) bool {
	in := inputs[0]
	out := outputs[0]
	n := in.NumberOfChannels()
	out.SetNumberOfChannels(g.pool, n)

	gain := params["gain"]
	for ch := 0; ch < n; ch++ {
		src := in.Channel(ch).View()
		dst := out.ChannelMut(g.pool, ch)
		for i := range dst {
			dst[i] = src[i] * gain[i]
		}
	}
	return true
}
