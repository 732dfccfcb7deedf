package graph

import (
	"log"
	"sync"
	"sync/atomic"

	"audiograph/internal/pool"
	"audiograph/internal/quantum"
)

// Logger is the render thread's diagnostic sink. Matches the teacher's
// package-level *log.Logger convention (see client/audio.go's "[audio]"
// prefixed lines); overridable so a host can redirect render-thread
// diagnostics without touching stdout.
var Logger = log.New(log.Writer(), "[audiograph] ", log.LstdFlags)

// maxMessagesPerQuantum bounds how many pending control messages Step
// applies in one quantum, keeping render-thread latency variance low even
// if a control thread floods the queue (spec: "bounded per-quantum
// drain").
const maxMessagesPerQuantum = 256

// Engine owns the graph, the block pool, and the render thread's view of
// time. It is driven one quantum at a time by a backend (realtime device
// callback or an offline pull loop).
type Engine struct {
	pool        *pool.Pool
	graph       *Graph
	sampleRate  float64
	destination NodeID

	frame atomic.Uint64

	mu      sync.Mutex
	pending []Message

	droppedMessages atomic.Uint64
}

// NewEngine creates an Engine for the given pool, sample rate, and
// destination node id (conventionally 0, already registered by the
// caller before the first Step).
func NewEngine(p *pool.Pool, sampleRate float64, destination NodeID) *Engine {
	return &Engine{
		pool:        p,
		graph:       newGraph(),
		sampleRate:  sampleRate,
		destination: destination,
	}
}

// Frame returns the number of frames rendered so far.
func (e *Engine) Frame() uint64 {
	return e.frame.Load()
}

// CurrentTime returns Frame()/sampleRate, for synthesising Scope values
// and for control-thread callers needing the render clock in seconds.
func (e *Engine) CurrentTime() float64 {
	return float64(e.frame.Load()) / e.sampleRate
}

// Send enqueues a control message. Safe to call from any control thread;
// internally serialized by a mutex around the pending queue (the facade
// is expected to funnel all control threads through one Engine, matching
// spec.md §5's "serialised into a single producer... via an internal
// mutex").
func (e *Engine) Send(m Message) {
	e.mu.Lock()
	e.pending = append(e.pending, m)
	e.mu.Unlock()
}

// drainMessages applies up to maxCount pending messages. If the render
// thread cannot acquire the pending-queue lock without blocking, it skips
// this quantum's drain entirely and retries next quantum (spec.md §5:
// "if it cannot acquire a message list try-lock, it simply processes
// messages on a later quantum" — the render thread never blocks on a
// control-thread lock).
func (e *Engine) drainMessages(maxCount int) {
	if !e.mu.TryLock() {
		return
	}
	n := len(e.pending)
	if n > maxCount {
		n = maxCount
	}
	batch := e.pending[:n]
	e.pending = e.pending[n:]
	e.mu.Unlock()

	for _, m := range batch {
		e.apply(m)
	}
}

func (e *Engine) apply(m Message) {
	switch m.Kind {
	case RegisterNode:
		n := newNode(e.pool, m.Node, m.Processor, m.Channel, m.NumInputs, m.NumOutputs, m.Params)
		e.graph.register(n)

	case ConnectNode:
		dst, ok := e.graph.get(m.DstNode)
		if !ok {
			e.dropMessage(m, "connect to unregistered node %d", m.DstNode)
			return
		}
		src, ok := e.graph.get(m.SrcNode)
		if !ok {
			e.dropMessage(m, "connect from unregistered node %d", m.SrcNode)
			return
		}
		if m.SrcPort < 0 || m.SrcPort >= src.NumOutputs {
			e.dropMessage(m, "connect: src port %d out of range for node %d (%d outputs)", m.SrcPort, m.SrcNode, src.NumOutputs)
			return
		}
		if m.DstParam == "" && (m.DstPort < 0 || m.DstPort >= dst.NumInputs) {
			e.dropMessage(m, "connect: dst port %d out of range for node %d (%d inputs)", m.DstPort, m.DstNode, dst.NumInputs)
			return
		}
		e.graph.connect(Edge{SrcNode: m.SrcNode, SrcPort: m.SrcPort, DstNode: m.DstNode, DstPort: m.DstPort, DstParam: m.DstParam})

	case DisconnectNode:
		e.graph.disconnect(m.SrcNode, m.DstNode, m.DstPort, m.DstParam)

	case DisconnectAll:
		e.graph.disconnectAll(m.Node)

	case FreeWhenFinished:
		if n, ok := e.graph.get(m.Node); ok {
			n.freeWhenFinished = true
		}

	case AudioParamEvent:
		n, ok := e.graph.get(m.Node)
		if !ok {
			e.dropMessage(m, "param event for unregistered node %d", m.Node)
			return
		}
		s, ok := n.params[m.ParamName]
		if !ok {
			e.dropMessage(m, "param event for unknown param %q on node %d", m.ParamName, m.Node)
			return
		}
		if err := s.Timeline().InsertEvent(m.ParamEvent); err != nil {
			e.dropMessage(m, "rejected param event for %q on node %d: %v", m.ParamName, m.Node, err)
		}

	case CancelParamEvents:
		n, ok := e.graph.get(m.Node)
		if !ok {
			e.dropMessage(m, "cancel events for unregistered node %d", m.Node)
			return
		}
		if s, ok := n.params[m.ParamName]; ok {
			s.Timeline().CancelScheduledValues(m.CancelAt)
		} else {
			e.dropMessage(m, "cancel events for unknown param %q on node %d", m.ParamName, m.Node)
		}

	case CancelParamAndHold:
		n, ok := e.graph.get(m.Node)
		if !ok {
			e.dropMessage(m, "cancel-and-hold for unregistered node %d", m.Node)
			return
		}
		if s, ok := n.params[m.ParamName]; ok {
			s.Timeline().CancelAndHoldAtTime(m.CancelAt)
		} else {
			e.dropMessage(m, "cancel-and-hold for unknown param %q on node %d", m.ParamName, m.Node)
		}

	case SetChannelCount:
		n, ok := e.graph.get(m.Node)
		if !ok {
			e.dropMessage(m, "set channel count for unregistered node %d", m.Node)
			return
		}
		n.Channel.Count = m.ChannelCount

	case SetChannelCountMode:
		n, ok := e.graph.get(m.Node)
		if !ok {
			e.dropMessage(m, "set channel count mode for unregistered node %d", m.Node)
			return
		}
		n.Channel.CountMode = m.ChannelCountMode

	case SetChannelInterpretation:
		n, ok := e.graph.get(m.Node)
		if !ok {
			e.dropMessage(m, "set channel interpretation for unregistered node %d", m.Node)
			return
		}
		n.Channel.Interpretation = m.ChannelInterpretation
	}
}

func (e *Engine) dropMessage(m Message, format string, args ...any) {
	e.droppedMessages.Add(1)
	Logger.Printf("dropped message: "+format, args...)
}

// DroppedMessages returns the count of control messages discarded on the
// render thread due to referring to unknown nodes or params, or failing
// param-event validation (spec.md §7: logged/counted, never crashes
// rendering).
func (e *Engine) DroppedMessages() uint64 {
	return e.droppedMessages.Load()
}

// Step renders one quantum: drains pending control messages, orders the
// reachable subgraph, mixes inputs, invokes each processor, garbage
// collects finished free-when-finished nodes, and advances the frame
// counter by the quantum length.
func (e *Engine) Step() {
	e.drainMessages(maxMessagesPerQuantum)

	order, silenced := e.graph.topoOrder(e.destination)
	scope := Scope{CurrentTime: e.CurrentTime(), SampleRate: e.sampleRate, Frame: e.frame.Load()}

	var toFree []NodeID

	for _, id := range order {
		n := e.graph.nodes[id]

		for i, q := range n.inputs {
			q.Reset(e.pool)
			for _, edge := range e.graph.incoming[id] {
				if edge.isParam() || edge.DstPort != i || silenced[edge] {
					continue
				}
				src, ok := e.graph.nodes[edge.SrcNode]
				if !ok {
					continue
				}
				e.mixInto(q, src.outputs[edge.SrcPort], n.Channel, n.mixScratch)
			}
		}

		params := n.paramValues
		for _, name := range n.paramOrder {
			audioIn := n.paramIn[name]
			for i := range audioIn {
				audioIn[i] = 0
			}
			haveInput := false
			for _, edge := range e.graph.incoming[id] {
				if !edge.isParam() || edge.DstParam != name || silenced[edge] {
					continue
				}
				src, ok := e.graph.nodes[edge.SrcNode]
				if !ok {
					continue
				}
				haveInput = true
				mono := src.outputs[edge.SrcPort].Channel(0).View()
				for i, v := range mono {
					audioIn[i] += v
				}
			}
			buf := n.paramBufs[name]
			if haveInput {
				n.params[name].Sample(buf, audioIn, scope.CurrentTime, scope.SampleRate)
			} else {
				n.params[name].Sample(buf, nil, scope.CurrentTime, scope.SampleRate)
			}
			params[name] = buf
		}

		keepAlive := n.Processor.Process(n.inputs, n.outputs, params, scope)
		n.tailTime = keepAlive

		if !keepAlive && n.freeWhenFinished {
			toFree = append(toFree, id)
		}
	}

	for _, id := range toFree {
		e.graph.remove(e.pool, id)
	}

	e.frame.Add(pool.Quantum)
}

// mixInto mixes src (after channel conversion to dst's channel config)
// into dst via accumulation, without mutating src (src may fan out to
// other edges this same quantum). scratch is the destination node's own
// reused Quantum (Node.mixScratch), so no allocation happens here on the
// render hot path: src is cloned into it (cheap, refcounted) rather than
// into a freshly allocated Quantum.
func (e *Engine) mixInto(dst *quantum.Quantum, src *quantum.Quantum, cfg ChannelConfig, scratch *quantum.Quantum) {
	scratch.CloneInto(e.pool, src)
	target := cfg.Count
	if cfg.CountMode != Explicit && scratch.NumberOfChannels() > target {
		target = scratch.NumberOfChannels()
	}
	scratch.Mix(e.pool, target, cfg.Interpretation)
	dst.AddMixed(e.pool, scratch, cfg.Interpretation)
}

// Destination returns the node id Step treats as the render sink.
func (e *Engine) Destination() NodeID {
	return e.destination
}

// Output returns the quantum at node id's output port, valid to read
// until the next Step call. A realtime backend or the offline renderer
// uses this to pull the destination's rendered audio after each Step.
func (e *Engine) Output(id NodeID, port int) (*quantum.Quantum, bool) {
	n, ok := e.graph.get(id)
	if !ok || port >= len(n.outputs) {
		return nil, false
	}
	return n.outputs[port], true
}

// SampleRate returns the engine's configured sample rate.
func (e *Engine) SampleRate() float64 {
	return e.sampleRate
}
