package node

import (
	"math"

	"audiograph/internal/graph"
	"audiograph/internal/pool"
	"audiograph/internal/quantum"
)

// ConstantSourceNode emits its "offset" AudioParam on a single channel,
// honoring its Scheduler's start_at/stop_at exactly like OscillatorNode.
// Expects a param named "offset".
type ConstantSourceNode struct {
	pool  *pool.Pool
	sched *Scheduler
}

// NewConstantSource returns a ConstantSourceNode with a fresh Scheduler.
func NewConstantSource(p *pool.Pool) *ConstantSourceNode {
	return &ConstantSourceNode{pool: p, sched: NewScheduler()}
}

// Scheduler returns the node's start/stop controller.
func (c *ConstantSourceNode) Scheduler() *Scheduler { return c.sched }

func (c *ConstantSourceNode) Process(inputs []*quantum.Quantum, outputs []*quantum.Quantum, params graph.ParamValues, scope graph.Scope) bool {
	out := outputs[0]
	out.SetNumberOfChannels(c.pool, 1)
	buf := out.ChannelMut(c.pool, 0)

	start := c.sched.StartTime()
	stop := c.sched.StopTime()
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

	offset := params["offset"]
	startSample := 0
	if start > t0 {
		startFrac := (start - t0) * scope.SampleRate
		startSample = int(math.Ceil(startFrac))
		if startSample > len(buf) {
			startSample = len(buf)
		}
	}

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
	for i := startSample; i < stopSample; i++ {
		buf[i] = offset[i]
	}
	for i := stopSample; i < len(buf); i++ {
		buf[i] = 0
	}
	return stopSample == len(buf)
}
