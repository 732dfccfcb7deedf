package audiograph

import (
	"audiograph/internal/graph"
	"audiograph/internal/node"
	"audiograph/internal/param"
	"audiograph/internal/quantum"
)

// listenerCoord names the nine coordinate nodes in registration order,
// doubling as the AudioParam name a panner connects them under.
var listenerCoord = [9]struct {
	name    string
	initial float64
}{
	{"listenerPositionX", 0},
	{"listenerPositionY", 0},
	{"listenerPositionZ", 0},
	{"listenerForwardX", 0},
	{"listenerForwardY", 0},
	{"listenerForwardZ", -1},
	{"listenerUpX", 0},
	{"listenerUpY", 1},
	{"listenerUpZ", 0},
}

// listenerSentinel is the reserved listener node (id 1) itself: it has
// no audio of its own, just nine input ports pulling in the coordinate
// nodes and one output wired to the destination's sentinel port so the
// whole constellation gets rendered (and its params sampled) every
// quantum even though nothing downstream uses its output.
type listenerSentinel struct{}

func (listenerSentinel) Process(inputs, outputs []*quantum.Quantum, params graph.ParamValues, scope graph.Scope) bool {
	return true
}

// AudioListener exposes the nine coordinate AudioParams every panner
// reads from (spec's reserved ids 2..10). Registration is deferred until
// the first call to Context.Listener or Context.CreatePanner, not created
// eagerly with the Context.
type AudioListener struct {
	ctx *Context
}

func (l AudioListener) param(i int) AudioParam {
	return AudioParam{ctx: l.ctx, node: l.ctx.listenerIDs[i], name: "offset"}
}

func (l AudioListener) PositionX() AudioParam { return l.param(0) }
func (l AudioListener) PositionY() AudioParam { return l.param(1) }
func (l AudioListener) PositionZ() AudioParam { return l.param(2) }
func (l AudioListener) ForwardX() AudioParam  { return l.param(3) }
func (l AudioListener) ForwardY() AudioParam  { return l.param(4) }
func (l AudioListener) ForwardZ() AudioParam  { return l.param(5) }
func (l AudioListener) UpX() AudioParam       { return l.param(6) }
func (l AudioListener) UpY() AudioParam       { return l.param(7) }
func (l AudioListener) UpZ() AudioParam       { return l.param(8) }

// Listener returns a handle to the AudioListener, materialising its nine
// coordinate nodes and the listener sentinel node on the first call
// (spec's deferred-registration note: the listener does not exist on the
// render side until something needs it).
func (ctx *Context) Listener() AudioListener {
	ctx.ensureListener()
	return AudioListener{ctx: ctx}
}

func (ctx *Context) ensureListener() {
	ctx.listenerOnce.Do(func() {
		for i, c := range listenerCoord {
			id := ListenerID + 1 + NodeID(i) // 2..10
			ctx.listenerIDs[i] = id
			src := node.NewConstantSource(ctx.pool)
			_ = src.Scheduler().StartAt(0)
			ctx.engine.Send(graph.Message{
				Kind: graph.RegisterNode, Node: id, Processor: src,
				Channel: graph.DefaultChannelConfig(), NumOutputs: 1,
				Params: []graph.ParamSpec{{Name: "offset", Desc: param.Descriptor{Min: -1e9, Max: 1e9, Default: c.initial, Rate: param.KRate}}},
			})
		}

		ctx.engine.Send(graph.Message{
			Kind: graph.RegisterNode, Node: ListenerID, Processor: listenerSentinel{},
			Channel: graph.DefaultChannelConfig(), NumInputs: 9, NumOutputs: 1,
		})
		for i, id := range ctx.listenerIDs {
			ctx.engine.Send(graph.Message{Kind: graph.ConnectNode, SrcNode: id, SrcPort: 0, DstNode: ListenerID, DstPort: i})
		}
		ctx.engine.Send(graph.Message{Kind: graph.ConnectNode, SrcNode: ListenerID, SrcPort: 0, DstNode: DestinationID, DstPort: 1})
	})
}

// connectListenerParams wires the listener's nine coordinate nodes into
// dst's matching AudioParams, for a newly created panner.
func (ctx *Context) connectListenerParams(dst Node) {
	ctx.ensureListener()
	for i, c := range listenerCoord {
		ctx.engine.Send(graph.Message{Kind: graph.ConnectNode, SrcNode: ctx.listenerIDs[i], SrcPort: 0, DstNode: dst.id, DstParam: c.name})
	}
}
