package param

import (
	"math"
	"testing"

	"audiograph/internal/pool"
)

const sampleRate = 44100.0

func TestSetValueHoldsConstant(t *testing.T) {
	tl := NewTimeline(Descriptor{Min: -1e9, Max: 1e9, Default: 0, Rate: ARate})
	if err := tl.InsertEvent(Event{Kind: SetValue, Value: 3, Time: 0}); err != nil {
		t.Fatal(err)
	}
	if v := tl.ValueAt(10); v != 3 {
		t.Fatalf("ValueAt(10) = %v, want 3", v)
	}
}

func TestLinearRampGainScenario(t *testing.T) {
	// A gain at value 0 at t=0 ramping linearly to 1 at t=1.0 should
	// produce value n/44100 for sample n, matching spec scenario 6.
	tl := NewTimeline(Descriptor{Min: 0, Max: 1, Default: 0, Rate: ARate})
	if err := tl.InsertEvent(Event{Kind: SetValue, Value: 0, Time: 0}); err != nil {
		t.Fatal(err)
	}
	if err := tl.InsertEvent(Event{Kind: LinearRamp, Value: 1, Time: 1.0}); err != nil {
		t.Fatal(err)
	}

	for _, n := range []int{0, 1, 100, 44099} {
		want := float64(n) / sampleRate
		got := tl.ValueAt(want)
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("ValueAt(%v) = %v, want %v", want, got, want)
		}
	}
}

func TestExponentialRampRejectsNonPositiveTarget(t *testing.T) {
	tl := NewTimeline(Descriptor{Min: -1e9, Max: 1e9, Default: 1, Rate: ARate})
	err := tl.InsertEvent(Event{Kind: ExponentialRamp, Value: -1, Time: 1})
	if err == nil {
		t.Fatal("expected an error for a non-positive exponential ramp target")
	}
}

func TestExponentialRampRejectsNonPositiveStart(t *testing.T) {
	tl := NewTimeline(Descriptor{Min: -1e9, Max: 1e9, Default: 0, Rate: ARate})
	// default value is 0, which is non-positive, so any exponential ramp
	// from the initial state must be rejected.
	err := tl.InsertEvent(Event{Kind: ExponentialRamp, Value: 2, Time: 1})
	if err == nil {
		t.Fatal("expected an error: exponential ramp needs a positive starting value")
	}
}

func TestExponentialRampInterpolates(t *testing.T) {
	tl := NewTimeline(Descriptor{Min: 0, Max: 1e9, Default: 1, Rate: ARate})
	if err := tl.InsertEvent(Event{Kind: SetValue, Value: 1, Time: 0}); err != nil {
		t.Fatal(err)
	}
	if err := tl.InsertEvent(Event{Kind: ExponentialRamp, Value: 4, Time: 2}); err != nil {
		t.Fatal(err)
	}
	// Halfway through (t=1), exponential interpolation should give sqrt(1*4)=2.
	got := tl.ValueAt(1)
	if math.Abs(got-2) > 1e-9 {
		t.Fatalf("ValueAt(1) = %v, want 2", got)
	}
}

func TestSetTargetAtTimeDecays(t *testing.T) {
	tl := NewTimeline(Descriptor{Min: -1e9, Max: 1e9, Default: 0, Rate: ARate})
	if err := tl.InsertEvent(Event{Kind: SetValue, Value: 1, Time: 0}); err != nil {
		t.Fatal(err)
	}
	if err := tl.InsertEvent(Event{Kind: SetTarget, Value: 0, Time: 0, TimeConstant: 1}); err != nil {
		t.Fatal(err)
	}
	got := tl.ValueAt(1) // one time constant in: v = 0 + (1-0)*e^-1
	want := math.Exp(-1)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("ValueAt(1) = %v, want %v", got, want)
	}
}

func TestSetTargetRejectsNonPositiveTau(t *testing.T) {
	tl := NewTimeline(Descriptor{Min: -1e9, Max: 1e9, Default: 0, Rate: ARate})
	err := tl.InsertEvent(Event{Kind: SetTarget, Value: 0, Time: 0, TimeConstant: 0})
	if err == nil {
		t.Fatal("expected an error for a non-positive time constant")
	}
}

func TestSetValueCurveInterpolatesPiecewise(t *testing.T) {
	tl := NewTimeline(Descriptor{Min: -1e9, Max: 1e9, Default: 0, Rate: ARate})
	err := tl.InsertEvent(Event{
		Kind:     SetValueCurve,
		Curve:    []float64{0, 1, 0},
		Time:     0,
		Duration: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := tl.ValueAt(0); got != 0 {
		t.Fatalf("ValueAt(0) = %v, want 0", got)
	}
	if got := tl.ValueAt(1); got != 1 {
		t.Fatalf("ValueAt(1) = %v, want 1", got)
	}
	if got := tl.ValueAt(2); got != 0 {
		t.Fatalf("ValueAt(2) = %v, want 0", got)
	}
	if got := tl.ValueAt(3); got != 0 {
		t.Fatalf("ValueAt(3) past duration = %v, want held 0", got)
	}
}

func TestEqualTimestampLaterInsertedWins(t *testing.T) {
	tl := NewTimeline(Descriptor{Min: -1e9, Max: 1e9, Default: 0, Rate: ARate})
	if err := tl.InsertEvent(Event{Kind: SetValue, Value: 1, Time: 5}); err != nil {
		t.Fatal(err)
	}
	if err := tl.InsertEvent(Event{Kind: SetValue, Value: 2, Time: 5}); err != nil {
		t.Fatal(err)
	}
	if got := tl.ValueAt(5); got != 2 {
		t.Fatalf("ValueAt(5) = %v, want 2 (later-inserted event should win)", got)
	}
}

func TestCancelScheduledValuesRemovesFutureEvents(t *testing.T) {
	tl := NewTimeline(Descriptor{Min: -1e9, Max: 1e9, Default: 0, Rate: ARate})
	if err := tl.InsertEvent(Event{Kind: SetValue, Value: 1, Time: 0}); err != nil {
		t.Fatal(err)
	}
	if err := tl.InsertEvent(Event{Kind: LinearRamp, Value: 5, Time: 1}); err != nil {
		t.Fatal(err)
	}
	tl.CancelScheduledValues(0.5)
	if got := tl.ValueAt(1); got != 1 {
		t.Fatalf("ValueAt(1) after cancel = %v, want 1 (ramp should be removed)", got)
	}
}

func TestCancelAndHoldHoldsComputedValue(t *testing.T) {
	tl := NewTimeline(Descriptor{Min: -1e9, Max: 1e9, Default: 0, Rate: ARate})
	if err := tl.InsertEvent(Event{Kind: SetValue, Value: 0, Time: 0}); err != nil {
		t.Fatal(err)
	}
	if err := tl.InsertEvent(Event{Kind: LinearRamp, Value: 1, Time: 1}); err != nil {
		t.Fatal(err)
	}
	tl.CancelAndHoldAtTime(0.5)
	if got := tl.ValueAt(0.5); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("ValueAt(0.5) at hold point = %v, want 0.5", got)
	}
	if got := tl.ValueAt(2); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("ValueAt(2) after hold = %v, want 0.5 (held, ramp cancelled)", got)
	}
}

func TestSamplerClampsToRange(t *testing.T) {
	s := NewSampler(Descriptor{Min: 0, Max: 1, Default: 0, Rate: KRate})
	if err := s.Timeline().InsertEvent(Event{Kind: SetValue, Value: 5, Time: 0}); err != nil {
		t.Fatal(err)
	}
	var buf [pool.Quantum]float32
	s.Sample(&buf, nil, 0, sampleRate)
	for i, v := range buf {
		if v != 1 {
			t.Fatalf("buf[%d] = %v, want clamped 1", i, v)
		}
	}
}

func TestSamplerSumsAudioInput(t *testing.T) {
	s := NewSampler(Descriptor{Min: -10, Max: 10, Default: 0, Rate: KRate})
	if err := s.Timeline().InsertEvent(Event{Kind: SetValue, Value: 1, Time: 0}); err != nil {
		t.Fatal(err)
	}
	var buf, input [pool.Quantum]float32
	for i := range input {
		input[i] = 0.5
	}
	s.Sample(&buf, &input, 0, sampleRate)
	for i, v := range buf {
		if v != 1.5 {
			t.Fatalf("buf[%d] = %v, want 1.5", i, v)
		}
	}
}

func TestSamplerARateVariesPerSample(t *testing.T) {
	s := NewSampler(Descriptor{Min: -10, Max: 10, Default: 0, Rate: ARate})
	if err := s.Timeline().InsertEvent(Event{Kind: SetValue, Value: 0, Time: 0}); err != nil {
		t.Fatal(err)
	}
	if err := s.Timeline().InsertEvent(Event{Kind: LinearRamp, Value: 1, Time: float64(pool.Quantum) / sampleRate}); err != nil {
		t.Fatal(err)
	}
	var buf [pool.Quantum]float32
	s.Sample(&buf, nil, 0, sampleRate)
	if buf[0] == buf[pool.Quantum-1] {
		t.Fatal("a-rate sampling should vary across the quantum during a ramp")
	}
}
