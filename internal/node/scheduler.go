// Package node implements the built-in render-thread processors: sources
// (oscillator, constant, buffer), sinks (destination), and effects (gain,
// biquad filter, convolver, panner, channel splitter/merger).
package node

import (
	"math"
	"sync/atomic"

	"audiograph/internal/aerrors"
)

// Scheduler tracks a source node's start_at/stop_at and, for buffer
// sources, loop/offset/duration. Fields read by the render thread are
// atomics so the control thread can set them without a lock (spec.md §5).
type Scheduler struct {
	startAt atomic.Uint64 // float64 bits; +Inf until start_at is called
	stopAt  atomic.Uint64 // float64 bits; +Inf until stop_at is called
	started atomic.Bool   // start_at has been called once already

	loop      atomic.Bool
	loopStart atomic.Uint64 // float64 bits
	loopEnd   atomic.Uint64 // float64 bits
	offset    atomic.Uint64 // float64 bits
	duration  atomic.Uint64 // float64 bits; +Inf means "play to the end"
}

// NewScheduler returns a Scheduler with start_at/stop_at at +∞ (never
// started, never stopped) and duration at +∞.
func NewScheduler() *Scheduler {
	s := &Scheduler{}
	s.startAt.Store(math.Float64bits(math.Inf(1)))
	s.stopAt.Store(math.Float64bits(math.Inf(1)))
	s.duration.Store(math.Float64bits(math.Inf(1)))
	return s
}

func loadF64(a *atomic.Uint64) float64 { return math.Float64frombits(a.Load()) }
func storeF64(a *atomic.Uint64, v float64) { a.Store(math.Float64bits(v)) }

// StartAt schedules the node to begin producing output at t seconds.
// Calling it a second time, or with t < 0, is a user error.
func (s *Scheduler) StartAt(t float64) error {
	if t < 0 {
		return aerrors.New(aerrors.InvalidAccess, "start_at: t must be >= 0")
	}
	if !s.started.CompareAndSwap(false, true) {
		return aerrors.New(aerrors.InvalidAccess, "start_at: already called")
	}
	storeF64(&s.startAt, t)
	return nil
}

// StopAt schedules the node to stop producing output at t seconds. After
// the block containing t, the source emits zeros and may return false.
func (s *Scheduler) StopAt(t float64) error {
	if t < 0 {
		return aerrors.New(aerrors.InvalidAccess, "stop_at: t must be >= 0")
	}
	storeF64(&s.stopAt, t)
	return nil
}

// StartTime returns the scheduled start time in seconds.
func (s *Scheduler) StartTime() float64 { return loadF64(&s.startAt) }

// StopTime returns the scheduled stop time in seconds.
func (s *Scheduler) StopTime() float64 { return loadF64(&s.stopAt) }

// SetLoop enables or disables looping (buffer sources).
func (s *Scheduler) SetLoop(enabled bool) { s.loop.Store(enabled) }

// Loop reports whether looping is enabled.
func (s *Scheduler) Loop() bool { return s.loop.Load() }

// SetLoopBounds sets loop_start/loop_end in seconds.
func (s *Scheduler) SetLoopBounds(start, end float64) {
	storeF64(&s.loopStart, start)
	storeF64(&s.loopEnd, end)
}

// LoopBounds returns loop_start/loop_end in seconds.
func (s *Scheduler) LoopBounds() (start, end float64) {
	return loadF64(&s.loopStart), loadF64(&s.loopEnd)
}

// SetOffset sets the initial playback offset in seconds.
func (s *Scheduler) SetOffset(offset float64) { storeF64(&s.offset, offset) }

// Offset returns the initial playback offset in seconds.
func (s *Scheduler) Offset() float64 { return loadF64(&s.offset) }

// SetDuration sets how long (seconds) the source plays before stopping.
func (s *Scheduler) SetDuration(d float64) { storeF64(&s.duration, d) }

// Duration returns the configured playback duration in seconds.
func (s *Scheduler) Duration() float64 { return loadF64(&s.duration) }
