// Package param implements per-parameter event timelines and the sampler
// that turns them into a-rate or k-rate blocks of computed values, the way
// the teacher's internal/agc and internal/noisegate turn a running RMS
// estimate into a per-frame gain or gate decision — except here the state
// is a scheduled timeline rather than a running average.
package param

import (
	"math"
	"sort"

	"audiograph/internal/aerrors"
	"audiograph/internal/pool"
)

// Rate selects how often a parameter's value is recomputed.
type Rate int

const (
	// ARate evaluates the parameter once per sample.
	ARate Rate = iota
	// KRate evaluates the parameter once per render quantum.
	KRate
)

// Descriptor bounds and classifies a parameter.
type Descriptor struct {
	Min, Max, Default float64
	Rate              Rate
}

// EventKind tags the variant of a scheduled Event.
type EventKind int

const (
	SetValue EventKind = iota
	LinearRamp
	ExponentialRamp
	SetTarget
	SetValueCurve
)

// Event is one scheduled automation point. Which fields are meaningful
// depends on Kind: Value for SetValue/LinearRamp/ExponentialRamp/SetTarget
// (the target), TimeConstant for SetTarget (tau), Curve/Duration for
// SetValueCurve.
type Event struct {
	Kind         EventKind
	Value        float64
	Time         float64
	TimeConstant float64
	Curve        []float64
	Duration     float64
}

// Timeline is a per-parameter ordered event list plus the running state
// needed to evaluate it.
type Timeline struct {
	desc    Descriptor
	events  []Event
	anchors []float64 // anchors[i] = value of the parameter at events[i].Time; for SetValueCurve, the curve's last value
	dirty   bool
}

// NewTimeline creates an empty Timeline for the given descriptor.
func NewTimeline(desc Descriptor) *Timeline {
	return &Timeline{desc: desc}
}

// Descriptor returns the parameter's descriptor.
func (t *Timeline) Descriptor() Descriptor {
	return t.desc
}

// indexAtOrBefore returns the index of the last event with Time <= at, or
// -1 if there is none.
func (t *Timeline) indexAtOrBefore(at float64) int {
	// sort.Search finds the first index for which the predicate is true;
	// events are sorted ascending by Time (with insertion order preserved
	// for ties), so the first index with Time > at is one past our answer.
	i := sort.Search(len(t.events), func(i int) bool { return t.events[i].Time > at })
	return i - 1
}

// insertionIndex returns where to insert an event scheduled at time,
// placing it after any existing events at the same timestamp so that,
// per the spec, "the later-inserted event wins" a tie.
func (t *Timeline) insertionIndex(time float64) int {
	return sort.Search(len(t.events), func(i int) bool { return t.events[i].Time > time })
}

func (t *Timeline) recomputeAnchors() {
	t.anchors = make([]float64, len(t.events))
	prev := t.desc.Default
	for i, ev := range t.events {
		switch ev.Kind {
		case SetValue, LinearRamp, ExponentialRamp:
			t.anchors[i] = ev.Value
			prev = ev.Value
		case SetTarget:
			t.anchors[i] = prev
		case SetValueCurve:
			if len(ev.Curve) > 0 {
				t.anchors[i] = ev.Curve[len(ev.Curve)-1]
				prev = t.anchors[i]
			} else {
				t.anchors[i] = prev
			}
		}
	}
	t.dirty = false
}

func (t *Timeline) ensureAnchors() {
	if t.dirty {
		t.recomputeAnchors()
	}
}

// computeValue evaluates the timeline's curve at time t, ignoring any
// connected audio-rate input (that is summed in by the Sampler).
func (t *Timeline) computeValue(at float64) float64 {
	t.ensureAnchors()

	i := t.indexAtOrBefore(at)
	if i < 0 {
		return t.desc.Default
	}

	cur := t.events[i]
	curVal := t.anchors[i]

	if i+1 < len(t.events) {
		next := t.events[i+1]
		if next.Kind == LinearRamp || next.Kind == ExponentialRamp {
			nextVal := t.anchors[i+1]
			span := next.Time - cur.Time
			frac := 1.0
			if span > 0 {
				frac = (at - cur.Time) / span
			}
			if next.Kind == LinearRamp {
				return curVal + (nextVal-curVal)*frac
			}
			if curVal <= 0 || nextVal <= 0 {
				return nextVal
			}
			return curVal * math.Pow(nextVal/curVal, frac)
		}
	}

	switch cur.Kind {
	case SetTarget:
		tau := cur.TimeConstant
		if tau <= 0 {
			return cur.Value
		}
		return cur.Value + (curVal-cur.Value)*math.Exp(-(at-cur.Time)/tau)
	case SetValueCurve:
		n := len(cur.Curve)
		if n == 0 {
			return curVal
		}
		if at >= cur.Time+cur.Duration || cur.Duration <= 0 {
			return cur.Curve[n-1]
		}
		frac := (at - cur.Time) / cur.Duration
		pos := frac * float64(n-1)
		idx := int(pos)
		if idx >= n-1 {
			return cur.Curve[n-1]
		}
		f := pos - float64(idx)
		return cur.Curve[idx] + (cur.Curve[idx+1]-cur.Curve[idx])*f
	default: // SetValue, LinearRamp, ExponentialRamp: holds until overridden
		return curVal
	}
}

// ValueAt exposes computeValue for callers needing a point sample (e.g.
// CancelAndHoldAtTime or tests) without advancing the timeline.
func (t *Timeline) ValueAt(at float64) float64 {
	return t.computeValue(at)
}

// InsertEvent validates and inserts ev in time order. Invalid sequences
// (a non-positive exponential-ramp target or starting value, a
// non-positive SetTargetAtTime time constant, a non-positive
// SetValueCurve duration) are rejected with an InvalidAccess error and
// the timeline is left unmodified.
func (t *Timeline) InsertEvent(ev Event) error {
	switch ev.Kind {
	case ExponentialRamp:
		if ev.Value <= 0 {
			return aerrors.New(aerrors.InvalidAccess, "exponential ramp target must be > 0")
		}
		prev := t.computeValue(ev.Time)
		if prev <= 0 {
			return aerrors.New(aerrors.InvalidAccess, "exponential ramp requires a positive starting value")
		}
	case SetTarget:
		if ev.TimeConstant <= 0 {
			return aerrors.New(aerrors.InvalidAccess, "setTargetAtTime requires a positive time constant")
		}
	case SetValueCurve:
		if ev.Duration <= 0 {
			return aerrors.New(aerrors.InvalidAccess, "setValueCurve requires a positive duration")
		}
		if len(ev.Curve) == 0 {
			return aerrors.New(aerrors.InvalidAccess, "setValueCurve requires a non-empty curve")
		}
	}

	idx := t.insertionIndex(ev.Time)
	t.events = append(t.events, Event{})
	copy(t.events[idx+1:], t.events[idx:])
	t.events[idx] = ev
	t.dirty = true
	return nil
}

// CancelScheduledValues removes every event with Time >= at.
func (t *Timeline) CancelScheduledValues(at float64) {
	i := sort.Search(len(t.events), func(i int) bool { return t.events[i].Time >= at })
	if i < len(t.events) {
		t.events = t.events[:i]
		t.dirty = true
	}
}

// CancelAndHoldAtTime cancels every event with Time >= at, but first
// synthesises a SetValue event at at holding whatever value the timeline
// would have produced there, so playback does not jump.
func (t *Timeline) CancelAndHoldAtTime(at float64) {
	held := t.computeValue(at)
	t.CancelScheduledValues(at)
	// InsertEvent cannot fail for a SetValue event.
	_ = t.InsertEvent(Event{Kind: SetValue, Value: held, Time: at})
}

// Sampler produces one quantum of computed values for a parameter,
// summing any connected audio-rate input and clamping to [min, max].
type Sampler struct {
	timeline *Timeline
}

// NewSampler creates a Sampler backed by a fresh Timeline for desc.
func NewSampler(desc Descriptor) *Sampler {
	return &Sampler{timeline: NewTimeline(desc)}
}

// Timeline returns the underlying event timeline, for scheduling events
// and for CancelScheduledValues/CancelAndHoldAtTime.
func (s *Sampler) Timeline() *Timeline {
	return s.timeline
}

// Sample fills buf with one quantum's worth of computed parameter values
// for the window starting at t0 (context seconds), at the given sample
// rate, then sums audioInput (nil means no connected audio signal,
// treated as zero) and clamps to [min, max].
func (s *Sampler) Sample(buf *[pool.Quantum]float32, audioInput *[pool.Quantum]float32, t0, sampleRate float64) {
	desc := s.timeline.desc
	if desc.Rate == KRate {
		v := float32(s.timeline.computeValue(t0))
		for i := range buf {
			buf[i] = v
		}
	} else {
		for i := range buf {
			t := t0 + float64(i)/sampleRate
			buf[i] = float32(s.timeline.computeValue(t))
		}
	}

	if audioInput != nil {
		for i := range buf {
			buf[i] += audioInput[i]
		}
	}

	minv, maxv := float32(desc.Min), float32(desc.Max)
	for i, v := range buf {
		if v < minv {
			buf[i] = minv
		} else if v > maxv {
			buf[i] = maxv
		}
	}
}
