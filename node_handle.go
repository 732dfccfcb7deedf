package audiograph

import "audiograph/internal/graph"

// Node is the embeddable base every typed node handle carries: its id,
// the Context that owns it, and the port counts it was registered with.
// A Node is reconstructed from (id, ctx, ports) rather than holding an
// owning reference into the Context's internals, so handles can be
// freely copied and compared without creating a cycle back into the
// Context's own bookkeeping. numInputs/numOutputs are fixed at creation
// (every node type's port count is set once and never changes), so
// ConnectTo/ConnectParam can validate port indices synchronously without
// a render-thread round trip.
type Node struct {
	ctx *Context
	id  NodeID

	numInputs  int
	numOutputs int
}

// ID returns the node's engine-assigned identifier.
func (n Node) ID() NodeID { return n.id }

// ConnectTo wires this node's output srcPort to dst's input dstPort.
// Returns IndexSize if either port is out of range for its node.
func (n Node) ConnectTo(dst Node, srcPort, dstPort int) error {
	if srcPort < 0 || srcPort >= n.numOutputs {
		return newError(IndexSize, "connectTo: output port out of range")
	}
	if dstPort < 0 || dstPort >= dst.numInputs {
		return newError(IndexSize, "connectTo: input port out of range")
	}
	n.ctx.engine.Send(graph.Message{Kind: graph.ConnectNode, SrcNode: n.id, SrcPort: srcPort, DstNode: dst.id, DstPort: dstPort})
	return nil
}

// ConnectParam wires this node's output srcPort into dst's named
// AudioParam as an audio-rate modulation signal, summed with whatever
// value dst's own automation timeline produces. Returns IndexSize if
// srcPort is out of range.
func (n Node) ConnectParam(dst Node, srcPort int, paramName string) error {
	if srcPort < 0 || srcPort >= n.numOutputs {
		return newError(IndexSize, "connectParam: output port out of range")
	}
	n.ctx.engine.Send(graph.Message{Kind: graph.ConnectNode, SrcNode: n.id, SrcPort: srcPort, DstNode: dst.id, DstParam: paramName})
	return nil
}

// DisconnectFrom removes every edge from this node to dst's input
// dstPort. srcPort is carried in the message but does not narrow the
// match: edges from all of this node's outputs to that input are removed.
func (n Node) DisconnectFrom(dst Node, srcPort, dstPort int) {
	n.ctx.engine.Send(graph.Message{Kind: graph.DisconnectNode, SrcNode: n.id, SrcPort: srcPort, DstNode: dst.id, DstPort: dstPort})
}

// DisconnectParam removes every edge from this node to dst's named
// AudioParam. srcPort does not narrow the match.
func (n Node) DisconnectParam(dst Node, srcPort int, paramName string) {
	n.ctx.engine.Send(graph.Message{Kind: graph.DisconnectNode, SrcNode: n.id, SrcPort: srcPort, DstNode: dst.id, DstParam: paramName})
}

// DisconnectAll removes every outgoing edge from this node.
func (n Node) DisconnectAll() {
	n.ctx.engine.Send(graph.Message{Kind: graph.DisconnectAll, Node: n.id})
}

// FreeWhenFinished marks the node for garbage collection the first
// render quantum its Process returns false, instead of it living until
// the Context itself is closed.
func (n Node) FreeWhenFinished() {
	n.ctx.engine.Send(graph.Message{Kind: graph.FreeWhenFinished, Node: n.id})
}

// isFixedDestination reports whether n is the offline destination, whose
// channel configuration is fixed once the context is constructed.
func (n Node) isFixedDestination() bool {
	return n.id == DestinationID && n.ctx.opts.Offline
}

// SetChannelCount changes how many channels this node mixes its inputs
// down (or up) to. Returns NotSupported on an offline context's
// destination, and IndexSize if count is outside [1, ctx.MaxChannels()].
func (n Node) SetChannelCount(count int) error {
	if n.isFixedDestination() {
		return newError(NotSupported, "setChannelCount: offline destination channel count is fixed")
	}
	if count < 1 || count > n.ctx.opts.MaxChannels {
		return newError(IndexSize, "setChannelCount: count out of range")
	}
	n.ctx.engine.Send(graph.Message{Kind: graph.SetChannelCount, Node: n.id, ChannelCount: count})
	return nil
}

// SetChannelCountMode changes how this node's declared channel count
// reconciles against its inputs. Returns NotSupported on an offline
// context's destination.
func (n Node) SetChannelCountMode(mode ChannelCountMode) error {
	if n.isFixedDestination() {
		return newError(NotSupported, "setChannelCountMode: offline destination channel count is fixed")
	}
	n.ctx.engine.Send(graph.Message{Kind: graph.SetChannelCountMode, Node: n.id, ChannelCountMode: mode})
	return nil
}

// SetChannelInterpretation changes the up/down-mix rule this node's
// inputs are reconciled under. Returns NotSupported on an offline
// context's destination.
func (n Node) SetChannelInterpretation(interp ChannelInterpretation) error {
	if n.isFixedDestination() {
		return newError(NotSupported, "setChannelInterpretation: offline destination channel count is fixed")
	}
	n.ctx.engine.Send(graph.Message{Kind: graph.SetChannelInterpretation, Node: n.id, ChannelInterpretation: interp})
	return nil
}
