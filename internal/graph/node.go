package graph

import (
	"audiograph/internal/param"
	"audiograph/internal/pool"
	"audiograph/internal/quantum"
)

// Edge is (src_node, src_output, dst_node, dst_input); a parameter edge
// carries DstParam instead of a meaningful DstPort, and is routed to that
// parameter's timeline sampler rather than any processor input port.
type Edge struct {
	SrcNode  NodeID
	SrcPort  int
	DstNode  NodeID
	DstPort  int
	DstParam string
}

func (e Edge) isParam() bool { return e.DstParam != "" }

// Node is the render-thread record for one registered node.
type Node struct {
	ID        NodeID
	Processor Processor
	Channel   ChannelConfig

	NumInputs  int
	NumOutputs int

	inputs  []*quantum.Quantum
	outputs []*quantum.Quantum

	paramOrder  []string
	params      map[string]*param.Sampler
	paramBufs   map[string]*[pool.Quantum]float32
	paramIn     map[string]*[pool.Quantum]float32
	paramValues ParamValues // preallocated, reused across quanta by Step

	mixScratch *quantum.Quantum // scratch buffer reused by Engine.mixInto

	freeWhenFinished bool
	tailTime         bool
}

func newNode(p *pool.Pool, id NodeID, proc Processor, cfg ChannelConfig, numIn, numOut int, specs []ParamSpec) *Node {
	n := &Node{
		ID:         id,
		Processor:  proc,
		Channel:    cfg,
		NumInputs:  numIn,
		NumOutputs: numOut,
		params:     make(map[string]*param.Sampler, len(specs)),
		paramBufs:  make(map[string]*[pool.Quantum]float32, len(specs)),
		paramIn:    make(map[string]*[pool.Quantum]float32, len(specs)),
	}
	n.inputs = make([]*quantum.Quantum, numIn)
	for i := range n.inputs {
		n.inputs[i] = quantum.New(p)
	}
	n.outputs = make([]*quantum.Quantum, numOut)
	for i := range n.outputs {
		n.outputs[i] = quantum.New(p)
	}
	for _, spec := range specs {
		n.paramOrder = append(n.paramOrder, spec.Name)
		n.params[spec.Name] = param.NewSampler(spec.Desc)
		n.paramBufs[spec.Name] = new([pool.Quantum]float32)
		n.paramIn[spec.Name] = new([pool.Quantum]float32)
	}
	n.paramValues = make(ParamValues, len(specs))
	n.mixScratch = quantum.New(p)
	return n
}

// Param returns the sampler backing the named AudioParam, or nil.
func (n *Node) Param(name string) *param.Sampler {
	return n.params[name]
}

func (n *Node) release(p *pool.Pool) {
	for _, q := range n.inputs {
		q.Reset(p)
	}
	for _, q := range n.outputs {
		q.Reset(p)
	}
}
