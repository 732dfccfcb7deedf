package graph

import (
	"testing"

	"audiograph/internal/param"
	"audiograph/internal/pool"
	"audiograph/internal/quantum"
)

// passthroughProcessor copies input 0 into output 0 verbatim.
type passthroughProcessor struct {
	pool *pool.Pool
}

func (p *passthroughProcessor) Process(inputs, outputs []*quantum.Quantum, params ParamValues, scope Scope) bool {
	n := inputs[0].NumberOfChannels()
	outputs[0].SetNumberOfChannels(p.pool, n)
	for ch := 0; ch < n; ch++ {
		src := inputs[0].Channel(ch).View()
		dst := outputs[0].ChannelMut(p.pool, ch)
		copy(dst[:], src[:])
	}
	return true
}

// sourceProcessor emits a fixed sample value on output 0 for its lifetime
// and reports false once quota is exhausted (simulating stop_at).
type sourceProcessor struct {
	pool     *pool.Pool
	value    float32
	quanta   int
	produced int
}

func (s *sourceProcessor) Process(inputs, outputs []*quantum.Quantum, params ParamValues, scope Scope) bool {
	if s.produced >= s.quanta {
		buf := outputs[0].ChannelMut(s.pool, 0)
		for i := range buf {
			buf[i] = 0
		}
		return false
	}
	buf := outputs[0].ChannelMut(s.pool, 0)
	for i := range buf {
		buf[i] = s.value
	}
	s.produced++
	return true
}

func newTestEngine(capacity int) (*Engine, *pool.Pool) {
	p := pool.New(capacity)
	e := NewEngine(p, 44100, 0)
	return e, p
}

func TestRegisterAndConnect(t *testing.T) {
	e, p := newTestEngine(16)
	e.Send(Message{Kind: RegisterNode, Node: 0, Processor: &passthroughProcessor{pool: p}, Channel: DefaultChannelConfig(), NumInputs: 1, NumOutputs: 1})
	e.Send(Message{Kind: RegisterNode, Node: 1, Processor: &sourceProcessor{pool: p, value: 0.5, quanta: 100}, Channel: DefaultChannelConfig(), NumInputs: 0, NumOutputs: 1})
	e.Send(Message{Kind: ConnectNode, SrcNode: 1, SrcPort: 0, DstNode: 0, DstPort: 0})

	e.Step()

	if _, ok := e.graph.get(0); !ok {
		t.Fatal("destination node not registered")
	}
	if _, ok := e.graph.get(1); !ok {
		t.Fatal("source node not registered")
	}
	dst := e.graph.nodes[0]
	if got := dst.inputs[0].Channel(0).View()[0]; got != 0.5 {
		t.Fatalf("destination input[0] = %v, want 0.5", got)
	}
}

func TestFrameCounterAdvancesByQuantum(t *testing.T) {
	e, p := newTestEngine(16)
	e.Send(Message{Kind: RegisterNode, Node: 0, Processor: &passthroughProcessor{pool: p}, Channel: DefaultChannelConfig(), NumInputs: 1, NumOutputs: 1})
	for i := 0; i < 5; i++ {
		e.Step()
	}
	if e.Frame() != 5*pool.Quantum {
		t.Fatalf("Frame() = %d, want %d", e.Frame(), 5*pool.Quantum)
	}
}

func TestFreeWhenFinishedRemovesNodeAfterFalse(t *testing.T) {
	e, p := newTestEngine(16)
	e.Send(Message{Kind: RegisterNode, Node: 0, Processor: &passthroughProcessor{pool: p}, Channel: DefaultChannelConfig(), NumInputs: 1, NumOutputs: 1})
	e.Send(Message{Kind: RegisterNode, Node: 1, Processor: &sourceProcessor{pool: p, value: 1, quanta: 2}, Channel: DefaultChannelConfig(), NumInputs: 0, NumOutputs: 1})
	e.Send(Message{Kind: ConnectNode, SrcNode: 1, SrcPort: 0, DstNode: 0, DstPort: 0})
	e.Send(Message{Kind: FreeWhenFinished, Node: 1})

	e.Step() // quantum 0: produced=1
	e.Step() // quantum 1: produced=2
	if _, ok := e.graph.get(1); !ok {
		t.Fatal("node 1 removed too early")
	}
	e.Step() // quantum 2: source returns false, should be collected
	if _, ok := e.graph.get(1); ok {
		t.Fatal("finished free-when-finished node should have been removed")
	}
}

func TestDisconnectAllRemovesOutgoingEdges(t *testing.T) {
	e, p := newTestEngine(16)
	e.Send(Message{Kind: RegisterNode, Node: 0, Processor: &passthroughProcessor{pool: p}, Channel: DefaultChannelConfig(), NumInputs: 1, NumOutputs: 1})
	e.Send(Message{Kind: RegisterNode, Node: 1, Processor: &sourceProcessor{pool: p, value: 1, quanta: 1000}, Channel: DefaultChannelConfig(), NumInputs: 0, NumOutputs: 1})
	e.Send(Message{Kind: ConnectNode, SrcNode: 1, SrcPort: 0, DstNode: 0, DstPort: 0})
	e.Step()

	e.Send(Message{Kind: DisconnectAll, Node: 1})
	e.Step()

	dst := e.graph.nodes[0]
	if got := dst.inputs[0].Channel(0).View()[0]; got != 0 {
		t.Fatalf("destination input after DisconnectAll = %v, want 0 (silent)", got)
	}
}

func TestCycleBackEdgeIsSilenced(t *testing.T) {
	e, p := newTestEngine(16)
	e.Send(Message{Kind: RegisterNode, Node: 0, Processor: &passthroughProcessor{pool: p}, Channel: DefaultChannelConfig(), NumInputs: 1, NumOutputs: 1})
	e.Send(Message{Kind: RegisterNode, Node: 1, Processor: &passthroughProcessor{pool: p}, Channel: DefaultChannelConfig(), NumInputs: 1, NumOutputs: 1})
	e.Send(Message{Kind: ConnectNode, SrcNode: 1, SrcPort: 0, DstNode: 0, DstPort: 0})
	e.Send(Message{Kind: ConnectNode, SrcNode: 0, SrcPort: 0, DstNode: 1, DstPort: 0})

	// With both nodes forming a 2-cycle and nothing feeding either node
	// externally, Step must not deadlock/infinite-recurse: the topo sort
	// should detect the back-edge and silence it.
	e.Step()
	e.Step()
}

func TestAudioParamEventFeedsConstantSourceStyleNode(t *testing.T) {
	e, p := newTestEngine(16)
	specs := []ParamSpec{{Name: "value", Desc: param.Descriptor{Min: -1e9, Max: 1e9, Default: 0, Rate: param.KRate}}}
	proc := &paramReadingProcessor{pool: p}
	e.Send(Message{Kind: RegisterNode, Node: 0, Processor: proc, Channel: DefaultChannelConfig(), NumInputs: 0, NumOutputs: 1, Params: specs})
	e.Send(Message{Kind: AudioParamEvent, Node: 0, ParamName: "value", ParamEvent: param.Event{Kind: param.SetValue, Value: 3, Time: 0}})

	e.Step()

	if proc.lastParam != 3 {
		t.Fatalf("processor observed param value %v, want 3", proc.lastParam)
	}
}

type paramReadingProcessor struct {
	pool      *pool.Pool
	lastParam float32
}

func (p *paramReadingProcessor) Process(inputs, outputs []*quantum.Quantum, params ParamValues, scope Scope) bool {
	p.lastParam = params["value"][0]
	return true
}

func TestConnectNodeOutOfRangePortIsDroppedNotPanicked(t *testing.T) {
	e, p := newTestEngine(16)
	e.Send(Message{Kind: RegisterNode, Node: 0, Processor: &passthroughProcessor{pool: p}, Channel: DefaultChannelConfig(), NumInputs: 1, NumOutputs: 1})
	e.Send(Message{Kind: RegisterNode, Node: 1, Processor: &sourceProcessor{pool: p, value: 1, quanta: 1000}, Channel: DefaultChannelConfig(), NumInputs: 0, NumOutputs: 1})
	e.Send(Message{Kind: ConnectNode, SrcNode: 1, SrcPort: 3, DstNode: 0, DstPort: 0})
	e.Send(Message{Kind: ConnectNode, SrcNode: 1, SrcPort: 0, DstNode: 0, DstPort: 7})

	e.Step() // must not panic on src.outputs[edge.SrcPort]

	if got := e.DroppedMessages(); got != 2 {
		t.Fatalf("DroppedMessages() = %d, want 2", got)
	}
}

func TestIncomingEdgesOrderedBySrcNodeRegardlessOfConnectOrder(t *testing.T) {
	e, p := newTestEngine(16)
	e.Send(Message{Kind: RegisterNode, Node: 0, Processor: &passthroughProcessor{pool: p}, Channel: DefaultChannelConfig(), NumInputs: 1, NumOutputs: 1})
	e.Send(Message{Kind: RegisterNode, Node: 3, Processor: &sourceProcessor{pool: p, value: 1, quanta: 1000}, Channel: DefaultChannelConfig(), NumInputs: 0, NumOutputs: 1})
	e.Send(Message{Kind: RegisterNode, Node: 1, Processor: &sourceProcessor{pool: p, value: 1, quanta: 1000}, Channel: DefaultChannelConfig(), NumInputs: 0, NumOutputs: 1})
	e.Send(Message{Kind: RegisterNode, Node: 2, Processor: &sourceProcessor{pool: p, value: 1, quanta: 1000}, Channel: DefaultChannelConfig(), NumInputs: 0, NumOutputs: 1})
	// Connected out of id order: 3, then 1, then 2.
	e.Send(Message{Kind: ConnectNode, SrcNode: 3, SrcPort: 0, DstNode: 0, DstPort: 0})
	e.Send(Message{Kind: ConnectNode, SrcNode: 1, SrcPort: 0, DstNode: 0, DstPort: 0})
	e.Send(Message{Kind: ConnectNode, SrcNode: 2, SrcPort: 0, DstNode: 0, DstPort: 0})

	e.Step()

	edges := e.graph.incoming[0]
	if len(edges) != 3 {
		t.Fatalf("got %d incoming edges, want 3", len(edges))
	}
	for i := 1; i < len(edges); i++ {
		if edges[i-1].SrcNode > edges[i].SrcNode {
			t.Fatalf("incoming edges not sorted by SrcNode: %v", edges)
		}
	}
}

func TestSetChannelConfigMutatesRegisteredNode(t *testing.T) {
	e, p := newTestEngine(16)
	e.Send(Message{Kind: RegisterNode, Node: 0, Processor: &passthroughProcessor{pool: p}, Channel: DefaultChannelConfig(), NumInputs: 1, NumOutputs: 1})
	e.Send(Message{Kind: SetChannelCount, Node: 0, ChannelCount: 4})
	e.Send(Message{Kind: SetChannelCountMode, Node: 0, ChannelCountMode: Explicit})
	e.Send(Message{Kind: SetChannelInterpretation, Node: 0, ChannelInterpretation: quantum.Discrete})

	e.Step()

	n := e.graph.nodes[0]
	if n.Channel.Count != 4 {
		t.Fatalf("Channel.Count = %d, want 4", n.Channel.Count)
	}
	if n.Channel.CountMode != Explicit {
		t.Fatalf("Channel.CountMode = %v, want Explicit", n.Channel.CountMode)
	}
	if n.Channel.Interpretation != quantum.Discrete {
		t.Fatalf("Channel.Interpretation = %v, want Discrete", n.Channel.Interpretation)
	}
}

func TestPoolBlocksReclaimedAfterSteps(t *testing.T) {
	e, p := newTestEngine(32)
	e.Send(Message{Kind: RegisterNode, Node: 0, Processor: &passthroughProcessor{pool: p}, Channel: DefaultChannelConfig(), NumInputs: 1, NumOutputs: 1})
	e.Send(Message{Kind: RegisterNode, Node: 1, Processor: &sourceProcessor{pool: p, value: 1, quanta: 1000}, Channel: DefaultChannelConfig(), NumInputs: 0, NumOutputs: 1})
	e.Send(Message{Kind: ConnectNode, SrcNode: 1, SrcPort: 0, DstNode: 0, DstPort: 0})

	for i := 0; i < 10; i++ {
		e.Step()
	}
	sizeAfterTen := p.Size()

	for i := 0; i < 10; i++ {
		e.Step()
	}
	if p.Size() > sizeAfterTen {
		t.Fatalf("pool size grew across identical quanta (%d -> %d): blocks leaking", sizeAfterTen, p.Size())
	}
}
