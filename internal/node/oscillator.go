package node

import (
	"math"
	"sync/atomic"

	"audiograph/internal/aerrors"
	"audiograph/internal/graph"
	"audiograph/internal/pool"
	"audiograph/internal/quantum"
)

// WaveType selects an OscillatorNode's waveform.
type WaveType int32

const (
	Sine WaveType = iota
	Square
	Sawtooth
	Triangle
	Custom
)

func waveformAt(t WaveType, phase float64, table []float32) float64 {
	switch t {
	case Sine:
		return math.Sin(2 * math.Pi * phase)
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		return 2*phase - 1
	case Triangle:
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	case Custom:
		if len(table) == 0 {
			return 0
		}
		pos := phase * float64(len(table))
		i0 := int(pos) % len(table)
		i1 := (i0 + 1) % len(table)
		frac := pos - math.Floor(pos)
		return float64(table[i0]) + (float64(table[i1])-float64(table[i0]))*frac
	default:
		return 0
	}
}

func detuneMultiplier(cents float64) float64 {
	return math.Pow(2, cents/1200)
}

// OscillatorNode generates a periodic waveform at the frequency/detune
// AudioParams, driven by an embedded Scheduler for start_at/stop_at.
// Expects params "frequency" (Hz, A-rate) and "detune" (cents, A-rate) to
// be registered on the owning graph.Node.
type OscillatorNode struct {
	pool *pool.Pool

	sched    *Scheduler
	waveType atomic.Int32

	customTable []float32

	phase   float64 // render-thread owned, in cycles [0,1)
	running bool    // render-thread owned: has playback begun
}

// NewOscillator returns a Sine oscillator with a fresh Scheduler.
func NewOscillator(p *pool.Pool) *OscillatorNode {
	return &OscillatorNode{pool: p, sched: NewScheduler()}
}

// Scheduler returns the node's start/stop controller.
func (o *OscillatorNode) Scheduler() *Scheduler { return o.sched }

// SetType changes the waveform. Custom cannot be set directly — it is
// only entered via SetPeriodicWave (spec.md §7 InvalidState).
func (o *OscillatorNode) SetType(t WaveType) error {
	if t == Custom {
		return aerrors.New(aerrors.InvalidState, "oscillator type Custom cannot be set directly; use SetPeriodicWave")
	}
	o.waveType.Store(int32(t))
	return nil
}

// SetPeriodicWave installs a custom single-cycle wavetable and switches
// the oscillator to Custom.
func (o *OscillatorNode) SetPeriodicWave(table []float32) {
	o.customTable = table
	o.waveType.Store(int32(Custom))
}

func (o *OscillatorNode) Process(inputs []*quantum.Quantum, outputs []*quantum.Quantum, params graph.ParamValues, scope graph.Scope) bool {
	out := outputs[0]
	out.SetNumberOfChannels(o.pool, 1)
	buf := out.ChannelMut(o.pool, 0)

	start := o.sched.StartTime()
	stop := o.sched.StopTime()
	t0 := scope.CurrentTime
	t1 := t0 + float64(pool.Quantum)/scope.SampleRate

	if t0 >= stop {
		for i := range buf {
			buf[i] = 0
		}
		return false
	}
	if start >= t1 {
		for i := range buf {
			buf[i] = 0
		}
		return true
	}

	freq := params["frequency"]
	detune := params["detune"]

	startSample := 0
	phase := o.phase
	if !o.running {
		if start > t0 {
			startFrac := (start - t0) * scope.SampleRate
			startSample = int(math.Ceil(startFrac))
			if startSample > len(buf) {
				startSample = len(buf)
			}
			f0 := float64(freq[minIdx(startSample, len(buf)-1)]) * detuneMultiplier(float64(detune[minIdx(startSample, len(buf)-1)]))
			phase = f0 * (float64(startSample) - startFrac) / scope.SampleRate
		}
		o.running = true
	}

	// The sample at or after stop_at is zero (spec.md §4.3): find the first
	// such index within this quantum, if stop_at falls inside it.
	stopSample := len(buf)
	if stop < t1 {
		s := int(math.Ceil((stop - t0) * scope.SampleRate))
		if s < 0 {
			s = 0
		}
		if s > len(buf) {
			s = len(buf)
		}
		stopSample = s
	}

	for i := 0; i < startSample; i++ {
		buf[i] = 0
	}
	wt := WaveType(o.waveType.Load())
	for i := startSample; i < stopSample; i++ {
		f := float64(freq[i]) * detuneMultiplier(float64(detune[i]))
		buf[i] = float32(waveformAt(wt, phase, o.customTable))
		phase += f / scope.SampleRate
		if phase >= 1 || phase < 0 {
			phase -= math.Floor(phase)
		}
	}
	for i := stopSample; i < len(buf); i++ {
		buf[i] = 0
	}
	o.phase = phase

	return stopSample == len(buf)
}

func minIdx(i, max int) int {
	if i > max {
		return max
	}
	if i < 0 {
		return 0
	}
	return i
}
