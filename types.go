package audiograph

import (
	"audiograph/internal/graph"
	"audiograph/internal/node"
	"audiograph/internal/quantum"
)

// DecodedBuffer is an owned multi-channel float array at some source
// sample rate, the shape a decoder (e.g. decode/opus) hands to
// CreateBufferSource. Resampling to the context's own sample rate is the
// buffer-source node's responsibility.
type DecodedBuffer = node.DecodedBuffer

// WaveType selects an OscillatorNode's waveform.
type WaveType = node.WaveType

const (
	Sine     = node.Sine
	Square   = node.Square
	Sawtooth = node.Sawtooth
	Triangle = node.Triangle
	Custom   = node.Custom
)

// BiquadType selects a BiquadFilterNode's topology.
type BiquadType = node.BiquadType

const (
	Lowpass  = node.Lowpass
	Highpass = node.Highpass
)

// ChannelCountMode controls how a node reconciles its declared channel
// count against its inputs' channel counts, per Web Audio's
// channelCountMode.
type ChannelCountMode = graph.CountMode

const (
	ChannelCountMax        = graph.Max
	ChannelCountClampedMax = graph.ClampedMax
	ChannelCountExplicit   = graph.Explicit
)

// ChannelInterpretation selects the up/down-mix rules a node's inputs
// are reconciled under, per Web Audio's channelInterpretation.
type ChannelInterpretation = quantum.Interpretation

const (
	Speakers = quantum.Speakers
	Discrete = quantum.Discrete
)
