package node

import (
	"audiograph/internal/graph"
	"audiograph/internal/pool"
	"audiograph/internal/quantum"
)

// ConvolverNode applies direct-form FIR convolution against a small
// impulse response, carrying the convolution tail across quanta in a
// per-channel ring of past input samples. Full FFT-based convolution
// (the cost-effective approach for long impulse responses) is out of
// scope per spec.md §1; this is a correct, simple implementation.
type ConvolverNode struct {
	pool    *pool.Pool
	impulse []float32
	history [][]float32 // per channel, len(impulse)-1 past samples
	scratch []float32   // len(impulse)-1+pool.Quantum, reused by Process

	tailRemaining int // quanta left to emit after input goes silent
}

// NewConvolver returns a ConvolverNode with the given (mono) impulse
// response, applied identically to every channel.
func NewConvolver(p *pool.Pool, impulse []float32) *ConvolverNode {
	return &ConvolverNode{
		pool:    p,
		impulse: impulse,
		scratch: make([]float32, len(impulse)-1+pool.Quantum),
	}
}

func (c *ConvolverNode) ensureHistory(channels int) {
	if len(c.history) == channels {
		return
	}
	c.history = make([][]float32, channels)
	for i := range c.history {
		c.history[i] = make([]float32, len(c.impulse)-1)
	}
}

func (c *ConvolverNode) Process(inputs []*quantum.Quantum, outputs []*quantum.Quantum, params graph.ParamValues, scope graph.Scope) bool {
	in := inputs[0]
	out := outputs[0]
	n := in.NumberOfChannels()
	out.SetNumberOfChannels(c.pool, n)
	c.ensureHistory(n)

	m := len(c.impulse)
	anyNonzero := false

	for ch := 0; ch < n; ch++ {
		src := in.Channel(ch).View()
		dst := out.ChannelMut(c.pool, ch)
		hist := c.history[ch]

		// Extended buffer: history followed by this quantum's samples.
		// c.scratch is sized len(impulse)-1+pool.Quantum once at
		// construction, so this never allocates.
		ext := c.scratch[:len(hist)+len(src)]
		copy(ext, hist)
		copy(ext[len(hist):], src[:])

		for i := range dst {
			var acc float64
			base := i + len(hist)
			for k := 0; k < m; k++ {
				acc += float64(c.impulse[k]) * float64(ext[base-k])
			}
			dst[i] = float32(acc)
			if src[i] != 0 {
				anyNonzero = true
			}
		}

		if m > 1 {
			copy(hist, ext[len(ext)-(m-1):])
		}
	}

	if anyNonzero {
		c.tailRemaining = 2 // a couple quanta of ringing for a short impulse
		return true
	}
	if c.tailRemaining > 0 {
		c.tailRemaining--
		return true
	}
	return false
}
