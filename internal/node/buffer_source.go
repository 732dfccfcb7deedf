package node

import (
	"math"

	"audiograph/internal/graph"
	"audiograph/internal/pool"
	"audiograph/internal/quantum"
)

// DecodedBuffer is an owned multi-channel float array at some source
// sample rate (the decoding collaborator of spec.md §6 — e.g.
// decode/opus's output). Resampling to the context's sample rate is the
// buffer-source node's own responsibility, per spec.md §6.
type DecodedBuffer struct {
	SampleRate float64
	Channels   [][]float32
}

// AudioBufferSourceNode plays a DecodedBuffer, resampling by linear
// interpolation to the context sample rate, honoring loop/loop_start/
// loop_end/offset/duration and a (possibly negative) playbackRate
// AudioParam (spec.md §4.7).
type AudioBufferSourceNode struct {
	pool   *pool.Pool
	sched  *Scheduler
	buffer *DecodedBuffer

	playhead float64 // source-frame position, render-thread owned
	started  bool
	finished bool
}

// NewAudioBufferSource returns an AudioBufferSourceNode playing buf.
func NewAudioBufferSource(p *pool.Pool, buf *DecodedBuffer) *AudioBufferSourceNode {
	return &AudioBufferSourceNode{pool: p, sched: NewScheduler(), buffer: buf}
}

// Scheduler returns the node's start/stop/loop/offset/duration controller.
func (a *AudioBufferSourceNode) Scheduler() *Scheduler { return a.sched }

func sampleAt(ch []float32, idx int) float32 {
	if idx < 0 || idx >= len(ch) {
		return 0
	}
	return ch[idx]
}

// wrap folds pos into [lo, hi) by modular arithmetic, for looped playback.
func wrap(pos, lo, hi float64) float64 {
	span := hi - lo
	if span <= 0 {
		return pos
	}
	m := math.Mod(pos-lo, span)
	if m < 0 {
		m += span
	}
	return lo + m
}

func (a *AudioBufferSourceNode) Process(inputs []*quantum.Quantum, outputs []*quantum.Quantum, params graph.ParamValues, scope graph.Scope) bool {
	numCh := 1
	if a.buffer != nil && len(a.buffer.Channels) > 0 {
		numCh = len(a.buffer.Channels)
	}
	out := outputs[0]
	out.SetNumberOfChannels(a.pool, numCh)

	dsts := make([]*[pool.Quantum]float32, numCh)
	for ch := 0; ch < numCh; ch++ {
		dsts[ch] = out.ChannelMut(a.pool, ch)
	}

	zero := func(from int) {
		for ch := range dsts {
			for i := from; i < pool.Quantum; i++ {
				dsts[ch][i] = 0
			}
		}
	}

	start := a.sched.StartTime()
	stop := a.sched.StopTime()
	t0 := scope.CurrentTime
	t1 := t0 + float64(pool.Quantum)/scope.SampleRate

	if a.buffer == nil || a.finished || t0 >= stop {
		zero(0)
		return false
	}
	if start >= t1 {
		zero(0)
		return true
	}

	startSample := 0
	if !a.started {
		if start > t0 {
			startSample = int(math.Ceil((start - t0) * scope.SampleRate))
			if startSample > pool.Quantum {
				startSample = pool.Quantum
			}
		}
		a.playhead = a.sched.Offset() * a.buffer.SampleRate
		a.started = true
	}
	for ch := range dsts {
		for i := 0; i < startSample; i++ {
			dsts[ch][i] = 0
		}
	}

	rate := params["playbackRate"]
	looping := a.sched.Loop()
	loopStartSec, loopEndSec := a.sched.LoopBounds()
	srcLen := 0
	if len(a.buffer.Channels) > 0 {
		srcLen = len(a.buffer.Channels[0])
	}
	loopStart := loopStartSec * a.buffer.SampleRate
	loopEnd := loopEndSec * a.buffer.SampleRate
	if loopEnd <= loopStart {
		loopStart, loopEnd = 0, float64(srcLen)
	}

	offsetFrames := a.sched.Offset() * a.buffer.SampleRate
	durationFrames := math.Inf(1)
	if !math.IsInf(a.sched.Duration(), 1) {
		durationFrames = a.sched.Duration() * a.buffer.SampleRate
	}
	endFrame := offsetFrames + durationFrames

	stopSample := pool.Quantum
	if stop < t1 {
		s := int(math.Ceil((stop - t0) * scope.SampleRate))
		if s < 0 {
			s = 0
		}
		if s > pool.Quantum {
			s = pool.Quantum
		}
		stopSample = s
	}

	for i := startSample; i < pool.Quantum; i++ {
		if a.finished || i >= stopSample {
			for ch := range dsts {
				dsts[ch][i] = 0
			}
			if i >= stopSample {
				a.finished = true
			}
			continue
		}

		pos := a.playhead
		if pos >= endFrame || pos < 0 || pos >= float64(srcLen) {
			if looping && pos >= loopStart && pos < loopEnd+1 {
				pos = wrap(pos, loopStart, loopEnd)
			} else {
				a.finished = true
				for ch := range dsts {
					dsts[ch][i] = 0
				}
				continue
			}
		}

		idx := int(math.Floor(pos))
		frac := float32(pos - float64(idx))
		for ch := 0; ch < numCh; ch++ {
			s0 := sampleAt(a.buffer.Channels[ch], idx)
			s1 := sampleAt(a.buffer.Channels[ch], idx+1)
			dsts[ch][i] = s0 + (s1-s0)*frac
		}

		step := float64(rate[i]) * (a.buffer.SampleRate / scope.SampleRate)
		next := pos + step
		if looping {
			next = wrap(next, loopStart, loopEnd)
		}
		a.playhead = next
	}

	return !a.finished
}
