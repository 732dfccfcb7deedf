package audiograph

import (
	"sync"
	"sync/atomic"

	"audiograph/internal/graph"
	"audiograph/internal/node"
	"audiograph/internal/pool"
	"audiograph/internal/quantum"
)

// State is a Context's place in its Suspended/Running/Closed lifecycle.
type State int32

const (
	Running State = iota
	Suspended
	Closed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Context owns the render graph, the block pool, and the lifecycle and
// id bookkeeping a host drives through a realtime Backend or through
// offline.Render. Reserved nodes (destination, listener) are never held
// as owning fields; Destination and Listener rebuild a handle from the
// reserved id on every call, which is how the cyclic ownership a naive
// "Context holds a *Destination which holds its Context" design would
// create is avoided.
type Context struct {
	opts   Options
	pool   *pool.Pool
	engine *graph.Engine

	destProc *node.DestinationNode

	nextID atomic.Uint64
	state  atomic.Int32

	listenerOnce sync.Once
	listenerIDs  [9]NodeID // the nine coordinate source nodes, ids 2..10
}

// NewContext creates a Context and registers the destination (reserved
// id 0) with two input ports: 0 for the summed mix every other node
// connects into, 1 a sentinel port the listener connects to once created
// so it keeps being rendered even though nothing reads its output.
func NewContext(opts Options) *Context {
	if opts.SampleRate <= 0 {
		opts = DefaultOptions()
	}
	p := pool.New(opts.PoolCapacity)
	engine := graph.NewEngine(p, opts.SampleRate, DestinationID)

	ctx := &Context{opts: opts, pool: p, engine: engine}
	ctx.nextID.Store(uint64(firstDynamicID))

	dest := node.NewDestination(p, 2, opts.MaxChannels)
	ctx.destProc = dest

	cfg := graph.DefaultChannelConfig()
	cfg.Count = dest.ChannelCount()
	cfg.CountMode = graph.Explicit

	engine.Send(graph.Message{
		Kind: graph.RegisterNode, Node: DestinationID, Processor: dest,
		Channel: cfg, NumInputs: 2, NumOutputs: 1,
	})
	return ctx
}

// SampleRate returns the context's sample rate in Hz.
func (ctx *Context) SampleRate() float64 { return ctx.opts.SampleRate }

// MaxChannels returns the context's configured channel-count ceiling.
func (ctx *Context) MaxChannels() int { return ctx.opts.MaxChannels }

// CurrentTime returns the render clock in seconds: frames rendered so
// far divided by the sample rate.
func (ctx *Context) CurrentTime() float64 { return ctx.engine.CurrentTime() }

// Frame returns the number of frames rendered so far.
func (ctx *Context) Frame() uint64 { return ctx.engine.Frame() }

// State returns the context's current lifecycle state.
func (ctx *Context) State() State { return State(ctx.state.Load()) }

// Suspend pauses rendering: Step becomes a no-op until Resume. Returns
// InvalidState if the context is not currently running.
func (ctx *Context) Suspend() error {
	if !ctx.state.CompareAndSwap(int32(Running), int32(Suspended)) {
		return newError(InvalidState, "suspend: context is not running")
	}
	return nil
}

// Resume resumes rendering after Suspend. Returns InvalidState if the
// context is not currently suspended.
func (ctx *Context) Resume() error {
	if !ctx.state.CompareAndSwap(int32(Suspended), int32(Running)) {
		return newError(InvalidState, "resume: context is not suspended")
	}
	return nil
}

// Close permanently stops the context. Returns InvalidState if the
// context is already closed.
func (ctx *Context) Close() error {
	prev := State(ctx.state.Swap(int32(Closed)))
	if prev == Closed {
		return newError(InvalidState, "close: context already closed")
	}
	return nil
}

// Step renders one quantum if the context is running; a suspended or
// closed context skips the render, so a backend can keep its device
// callback or pull loop alive across a suspend/resume cycle without
// tearing the stream down.
func (ctx *Context) Step() {
	if ctx.State() != Running {
		return
	}
	ctx.engine.Step()
}

// RenderedQuantum returns the destination's most recently rendered
// audio, valid until the next call to Step. A Backend or offline.Render
// pulls from here immediately after each Step.
func (ctx *Context) RenderedQuantum() (*quantum.Quantum, bool) {
	return ctx.engine.Output(DestinationID, 0)
}

// DroppedMessages returns the number of control messages the render
// thread has discarded (unknown node/param references, or a param event
// that failed render-thread validation). Logged by the engine as they
// happen; exposed here for a host that wants to surface the count.
func (ctx *Context) DroppedMessages() uint64 {
	return ctx.engine.DroppedMessages()
}

// Destination returns a handle to the reserved destination node.
func (ctx *Context) Destination() DestinationHandle {
	return DestinationHandle{Node{ctx: ctx, id: DestinationID, numInputs: 2, numOutputs: 1}}
}

func (ctx *Context) allocID() NodeID {
	return NodeID(ctx.nextID.Add(1) - 1)
}
