package node

import (
	"math"

	"audiograph/internal/graph"
	"audiograph/internal/pool"
	"audiograph/internal/quantum"
)

// DynamicsCompressorNode reduces gain on signal above a threshold,
// smoothing with the same attack/release exponential-approach formula
// internal/param uses for SetTargetAtTime (written inline here, not
// called from there) and the RMS-driven gain computation
// from the teacher's internal/agc, generalized from a fixed 20ms frame
// to one render quantum and from a hand-tuned target level to
// threshold/knee/ratio AudioParams.
type DynamicsCompressorNode struct {
	pool       *pool.Pool
	sampleRate float64
	gain       float64 // current linear gain multiplier, smoothed across quanta
	reduction  float64 // last computed gain reduction, in dB, for metering
}

// NewDynamicsCompressor returns a DynamicsCompressorNode at unity gain.
func NewDynamicsCompressor(p *pool.Pool, sampleRate float64) *DynamicsCompressorNode {
	return &DynamicsCompressorNode{pool: p, sampleRate: sampleRate, gain: 1.0}
}

// Reduction reports the most recently applied gain reduction in dB
// (always <= 0), informational only.
func (d *DynamicsCompressorNode) Reduction() float64 { return d.reduction }

func rms(buf *[pool.Quantum]float32) float64 {
	var sum float64
	for _, s := range buf {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(buf)))
}

func linearToDB(v float64) float64 {
	if v <= 0 {
		return -1000
	}
	return 20 * math.Log10(v)
}

func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

func (d *DynamicsCompressorNode) Process(inputs, outputs []*quantum.Quantum, params graph.ParamValues, scope graph.Scope) bool {
	in := inputs[0]
	out := outputs[0]
	n := in.NumberOfChannels()
	out.SetNumberOfChannels(d.pool, n)

	threshold := float64(params["threshold"][0])
	knee := float64(params["knee"][0])
	ratio := float64(params["ratio"][0])
	attack := float64(params["attack"][0])
	release := float64(params["release"][0])

	level := linearToDB(rms(in.Channel(0).View()))

	// Standard soft-knee compression curve: below the knee's lower edge,
	// no reduction; above its upper edge, full 1/ratio slope; inside the
	// knee, a quadratic blend between the two.
	var targetDB float64
	kneeStart := threshold - knee/2
	kneeEnd := threshold + knee/2
	switch {
	case level < kneeStart:
		targetDB = 0
	case level > kneeEnd:
		targetDB = (threshold - level) * (1 - 1/ratio)
	default:
		x := level - kneeStart
		targetDB = -((1 - 1/ratio) * x * x) / (2 * knee)
	}
	targetGain := dbToLinear(targetDB)

	quantumDuration := float64(pool.Quantum) / d.sampleRate
	tau := release
	if targetGain < d.gain {
		tau = attack
	}
	if tau <= 0 {
		d.gain = targetGain
	} else {
		d.gain = targetGain + (d.gain-targetGain)*math.Exp(-quantumDuration/tau)
	}
	d.reduction = linearToDB(d.gain)

	g := float32(d.gain)
	for ch := 0; ch < n; ch++ {
		src := in.Channel(ch).View()
		dst := out.ChannelMut(d.pool, ch)
		for i := range dst {
			dst[i] = src[i] * g
		}
	}
	return true
}
