package node

import (
	"audiograph/internal/graph"
	"audiograph/internal/pool"
	"audiograph/internal/quantum"
)

// DestinationNode is the sink every graph renders into: reserved node id
// 0, always Explicit/Speakers, with its channel count clamped to the
// context's max hardware channel count. It copies input 0 into its single
// output, which the backend reads after Step (Context.RenderedQuantum).
type DestinationNode struct {
	pool           *pool.Pool
	maxChannels    int
	channelCount   int
}

// NewDestination returns a DestinationNode clamped to maxChannels.
func NewDestination(p *pool.Pool, channelCount, maxChannels int) *DestinationNode {
	if channelCount > maxChannels {
		channelCount = maxChannels
	}
	if channelCount < 1 {
		channelCount = 1
	}
	return &DestinationNode{pool: p, maxChannels: maxChannels, channelCount: channelCount}
}

// ChannelCount returns the destination's configured channel count.
func (d *DestinationNode) ChannelCount() int { return d.channelCount }

// Process copies input 0 into outputs[0] at the destination's channel
// count, zero-filling any channel the input lacks, so the backend has a
// stable place to read the rendered quantum from between Step calls.
// Any further input port (the listener's sentinel port) is not read.
func (d *DestinationNode) Process(inputs []*quantum.Quantum, outputs []*quantum.Quantum, params graph.ParamValues, scope graph.Scope) bool {
	in := inputs[0]
	out := outputs[0]
	n := in.NumberOfChannels()
	if n > d.channelCount {
		n = d.channelCount
	}
	out.SetNumberOfChannels(d.pool, d.channelCount)
	for ch := 0; ch < d.channelCount; ch++ {
		dst := out.ChannelMut(d.pool, ch)
		if ch < n {
			src := in.Channel(ch).View()
			copy(dst[:], src[:])
		} else {
			for i := range dst {
				dst[i] = 0
			}
		}
	}
	return true
}
