package node

import (
	"math"
	"sync/atomic"

	"audiograph/internal/graph"
	"audiograph/internal/pool"
	"audiograph/internal/quantum"
)

// BiquadType selects a BiquadFilterNode's topology.
type BiquadType int32

const (
	Lowpass BiquadType = iota
	Highpass
)

// BiquadFilterNode is a standard RBJ "Audio EQ Cookbook" biquad, one set
// of per-channel state variables per channel count change. Frequency and
// Q are AudioParams sampled k-rate (coefficients are recomputed once per
// quantum, matching how most Web Audio implementations update biquad
// coefficients at block granularity rather than per sample).
type BiquadFilterNode struct {
	pool       *pool.Pool
	filterType atomic.Int32

	sampleRate float64

	// Direct Form I state per channel: x[n-1], x[n-2], y[n-1], y[n-2].
	x1, x2, y1, y2 []float64
}

// NewBiquadFilter returns a Lowpass BiquadFilterNode.
func NewBiquadFilter(p *pool.Pool, sampleRate float64) *BiquadFilterNode {
	return &BiquadFilterNode{pool: p, sampleRate: sampleRate}
}

// SetType switches between Lowpass and Highpass.
func (b *BiquadFilterNode) SetType(t BiquadType) {
	b.filterType.Store(int32(t))
}

func (b *BiquadFilterNode) ensureState(channels int) {
	if len(b.x1) == channels {
		return
	}
	b.x1 = make([]float64, channels)
	b.x2 = make([]float64, channels)
	b.y1 = make([]float64, channels)
	b.y2 = make([]float64, channels)
}

// coefficients computes the RBJ cookbook lowpass/highpass biquad
// coefficients, normalised so a0 == 1.
func (b *BiquadFilterNode) coefficients(freq, q float64) (b0, b1, b2, a1, a2 float64) {
	if freq <= 0 {
		freq = 1
	}
	if freq >= b.sampleRate/2 {
		freq = b.sampleRate/2 - 1
	}
	if q <= 0 {
		q = 0.0001
	}
	w0 := 2 * math.Pi * freq / b.sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	var a0 float64
	switch BiquadType(b.filterType.Load()) {
	case Highpass:
		b0 = (1 + cosw0) / 2
		b1 = -(1 + cosw0)
		b2 = (1 + cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	default: // Lowpass
		b0 = (1 - cosw0) / 2
		b1 = 1 - cosw0
		b2 = (1 - cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	}
	return b0 / a0, b1 / a0, b2 / a0, a1 / a0, a2 / a0
}

func (b *BiquadFilterNode) Process(inputs []*quantum.Quantum, outputs []*quantum.Quantum, params graph.ParamValues, scope graph.Scope) bool {
	in := inputs[0]
	out := outputs[0]
	n := in.NumberOfChannels()
	out.SetNumberOfChannels(b.pool, n)
	b.ensureState(n)

	freq := params["frequency"]
	q := params["Q"]
	b0, b1, b2, a1, a2 := b.coefficients(float64(freq[0]), float64(q[0]))

	for ch := 0; ch < n; ch++ {
		src := in.Channel(ch).View()
		dst := out.ChannelMut(b.pool, ch)
		x1, x2, y1, y2 := b.x1[ch], b.x2[ch], b.y1[ch], b.y2[ch]
		for i, x0 := range src {
			xf := float64(x0)
			y0 := b0*xf + b1*x1 + b2*x2 - a1*y1 - a2*y2
			dst[i] = float32(y0)
			x2, x1 = x1, xf
			y2, y1 = y1, y0
		}
		b.x1[ch], b.x2[ch], b.y1[ch], b.y2[ch] = x1, x2, y1, y2
	}
	return true
}
