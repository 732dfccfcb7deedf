package graph

import (
	"audiograph/internal/param"
	"audiograph/internal/quantum"
)

// MessageKind tags the variant of a control message sent down the
// control-to-render channel.
type MessageKind int

const (
	RegisterNode MessageKind = iota
	ConnectNode
	DisconnectNode
	DisconnectAll
	FreeWhenFinished
	AudioParamEvent
	CancelParamEvents
	CancelParamAndHold
	SetChannelCount
	SetChannelCountMode
	SetChannelInterpretation
)

// Message is the single tagged-variant control message type, the render
// side's single match over everything the control facade can ask for.
// Which fields are meaningful depends on Kind.
type Message struct {
	Kind MessageKind

	// RegisterNode
	Node       NodeID
	Processor  Processor
	Channel    ChannelConfig
	NumInputs  int
	NumOutputs int
	Params     []ParamSpec

	// ConnectNode / DisconnectNode: an audio edge has DstParam == "" and a
	// valid DstPort; a parameter edge has DstParam set and DstPort is
	// ignored.
	SrcNode  NodeID
	SrcPort  int
	DstNode  NodeID
	DstPort  int
	DstParam string

	// AudioParamEvent: targets Node's param ParamName.
	// CancelParamEvents / CancelParamAndHold: targets Node's param
	// ParamName, cancelling scheduled events at or after CancelAt.
	ParamName  string
	ParamEvent param.Event
	CancelAt   float64

	// SetChannelCount / SetChannelCountMode / SetChannelInterpretation:
	// mutate Node's channel configuration. The facade validates range
	// and NotSupported cases synchronously before sending, so these
	// only ever carry values already known to be legal.
	ChannelCount          int
	ChannelCountMode      CountMode
	ChannelInterpretation quantum.Interpretation
}
