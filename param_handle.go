package audiograph

import (
	"audiograph/internal/graph"
	"audiograph/internal/param"
)

// AudioParam is a handle to one named automation target on a node. Every
// method enqueues a control message on the same serialized queue every
// other control call uses, so automation events interleave with
// register/connect/disconnect in the order the control thread issued
// them (spec's single-producer message channel).
//
// Validation that needs only the call's own arguments (negative times, a
// non-positive time constant, an empty curve) is rejected synchronously
// here. Validation that depends on render-thread state (an exponential
// ramp's current value being positive) can only be checked once the
// event reaches the timeline; a rejection there is logged and the event
// dropped rather than returned as an error (see graph.Engine.apply).
type AudioParam struct {
	ctx  *Context
	node NodeID
	name string
}

func (p AudioParam) send(ev param.Event) {
	p.ctx.engine.Send(graph.Message{Kind: graph.AudioParamEvent, Node: p.node, ParamName: p.name, ParamEvent: ev})
}

// SetValueAtTime schedules an instantaneous value change at time.
func (p AudioParam) SetValueAtTime(value, time float64) error {
	if time < 0 {
		return newError(InvalidAccess, "setValueAtTime: time must be >= 0")
	}
	p.send(param.Event{Kind: param.SetValue, Value: value, Time: time})
	return nil
}

// LinearRampToValueAtTime schedules a linear ramp to value, ending at time.
func (p AudioParam) LinearRampToValueAtTime(value, time float64) error {
	if time < 0 {
		return newError(InvalidAccess, "linearRampToValueAtTime: time must be >= 0")
	}
	p.send(param.Event{Kind: param.LinearRamp, Value: value, Time: time})
	return nil
}

// ExponentialRampToValueAtTime schedules an exponential ramp to value,
// ending at time. value must be > 0; the ramp's starting value must also
// be positive, but that can only be checked once the timeline is walked
// on the render thread.
func (p AudioParam) ExponentialRampToValueAtTime(value, time float64) error {
	if time < 0 {
		return newError(InvalidAccess, "exponentialRampToValueAtTime: time must be >= 0")
	}
	if value <= 0 {
		return newError(InvalidAccess, "exponentialRampToValueAtTime: value must be > 0")
	}
	p.send(param.Event{Kind: param.ExponentialRamp, Value: value, Time: time})
	return nil
}

// SetTargetAtTime schedules an exponential approach toward target,
// starting at startTime with time constant timeConstant (seconds).
func (p AudioParam) SetTargetAtTime(target, startTime, timeConstant float64) error {
	if startTime < 0 {
		return newError(InvalidAccess, "setTargetAtTime: startTime must be >= 0")
	}
	if timeConstant <= 0 {
		return newError(InvalidAccess, "setTargetAtTime: timeConstant must be > 0")
	}
	p.send(param.Event{Kind: param.SetTarget, Value: target, Time: startTime, TimeConstant: timeConstant})
	return nil
}

// SetValueCurveAtTime schedules curve, resampled across duration seconds
// starting at startTime.
func (p AudioParam) SetValueCurveAtTime(curve []float64, startTime, duration float64) error {
	if startTime < 0 {
		return newError(InvalidAccess, "setValueCurveAtTime: startTime must be >= 0")
	}
	if duration <= 0 {
		return newError(InvalidAccess, "setValueCurveAtTime: duration must be > 0")
	}
	if len(curve) == 0 {
		return newError(InvalidAccess, "setValueCurveAtTime: curve must be non-empty")
	}
	cp := append([]float64(nil), curve...)
	p.send(param.Event{Kind: param.SetValueCurve, Curve: cp, Time: startTime, Duration: duration})
	return nil
}

// CancelScheduledValues removes every scheduled event at or after time.
func (p AudioParam) CancelScheduledValues(time float64) error {
	if time < 0 {
		return newError(InvalidAccess, "cancelScheduledValues: time must be >= 0")
	}
	p.ctx.engine.Send(graph.Message{Kind: graph.CancelParamEvents, Node: p.node, ParamName: p.name, CancelAt: time})
	return nil
}

// CancelAndHoldAtTime cancels every scheduled event at or after time, but
// holds whatever value the timeline would have produced at time instead
// of jumping back to the last unaffected event.
func (p AudioParam) CancelAndHoldAtTime(time float64) error {
	if time < 0 {
		return newError(InvalidAccess, "cancelAndHoldAtTime: time must be >= 0")
	}
	p.ctx.engine.Send(graph.Message{Kind: graph.CancelParamAndHold, Node: p.node, ParamName: p.name, CancelAt: time})
	return nil
}
