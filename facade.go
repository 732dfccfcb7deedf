package audiograph

import (
	"audiograph/internal/graph"
	"audiograph/internal/node"
	"audiograph/internal/param"
)

// register allocates an id, sends the RegisterNode message, and returns
// a Node handle carrying the port counts the caller declared, so
// ConnectTo/ConnectParam can validate ports without asking the render
// thread.
func (ctx *Context) register(proc graph.Processor, numIn, numOut int, specs []graph.ParamSpec) Node {
	id := ctx.allocID()
	ctx.engine.Send(graph.Message{
		Kind: graph.RegisterNode, Node: id, Processor: proc,
		Channel: graph.DefaultChannelConfig(), NumInputs: numIn, NumOutputs: numOut, Params: specs,
	})
	return Node{ctx: ctx, id: id, numInputs: numIn, numOutputs: numOut}
}

// OscillatorHandle controls a periodic-waveform source.
type OscillatorHandle struct {
	Node
	proc *node.OscillatorNode
}

// CreateOscillator returns a new Sine OscillatorNode, unstarted.
func (ctx *Context) CreateOscillator() OscillatorHandle {
	p := node.NewOscillator(ctx.pool)
	specs := []graph.ParamSpec{
		{Name: "frequency", Desc: param.Descriptor{Min: -ctx.opts.SampleRate / 2, Max: ctx.opts.SampleRate / 2, Default: 440, Rate: param.ARate}},
		{Name: "detune", Desc: param.Descriptor{Min: -153600, Max: 153600, Default: 0, Rate: param.ARate}},
	}
	n := ctx.register(p, 0, 1, specs)
	return OscillatorHandle{n, p}
}

func (h OscillatorHandle) Frequency() AudioParam { return AudioParam{h.ctx, h.id, "frequency"} }
func (h OscillatorHandle) Detune() AudioParam    { return AudioParam{h.ctx, h.id, "detune"} }

// SetType switches the waveform; Custom cannot be set directly (use
// SetPeriodicWave).
func (h OscillatorHandle) SetType(t WaveType) error { return h.proc.SetType(t) }

// SetPeriodicWave installs a custom single-cycle wavetable.
func (h OscillatorHandle) SetPeriodicWave(table []float32) { h.proc.SetPeriodicWave(table) }

// Start schedules playback to begin at t seconds on the context clock.
func (h OscillatorHandle) Start(t float64) error { return h.proc.Scheduler().StartAt(t) }

// Stop schedules playback to end at t seconds on the context clock.
func (h OscillatorHandle) Stop(t float64) error { return h.proc.Scheduler().StopAt(t) }

// ConstantSourceHandle controls a constant-value source.
type ConstantSourceHandle struct {
	Node
	proc *node.ConstantSourceNode
}

// CreateConstantSource returns a new ConstantSourceNode, unstarted.
func (ctx *Context) CreateConstantSource() ConstantSourceHandle {
	p := node.NewConstantSource(ctx.pool)
	specs := []graph.ParamSpec{
		{Name: "offset", Desc: param.Descriptor{Min: -1e9, Max: 1e9, Default: 1, Rate: param.ARate}},
	}
	n := ctx.register(p, 0, 1, specs)
	return ConstantSourceHandle{n, p}
}

func (h ConstantSourceHandle) Offset() AudioParam { return AudioParam{h.ctx, h.id, "offset"} }
func (h ConstantSourceHandle) Start(t float64) error { return h.proc.Scheduler().StartAt(t) }
func (h ConstantSourceHandle) Stop(t float64) error  { return h.proc.Scheduler().StopAt(t) }

// GainHandle controls a gain stage.
type GainHandle struct{ Node }

// CreateGain returns a new GainNode.
func (ctx *Context) CreateGain() GainHandle {
	p := node.NewGain(ctx.pool)
	specs := []graph.ParamSpec{
		{Name: "gain", Desc: param.Descriptor{Min: -1e9, Max: 1e9, Default: 1, Rate: param.ARate}},
	}
	n := ctx.register(p, 1, 1, specs)
	return GainHandle{n}
}

func (h GainHandle) Gain() AudioParam { return AudioParam{h.ctx, h.id, "gain"} }

// BiquadFilterHandle controls a two-pole IIR filter.
type BiquadFilterHandle struct {
	Node
	proc *node.BiquadFilterNode
}

// CreateBiquadFilter returns a new Lowpass BiquadFilterNode.
func (ctx *Context) CreateBiquadFilter() BiquadFilterHandle {
	p := node.NewBiquadFilter(ctx.pool, ctx.opts.SampleRate)
	specs := []graph.ParamSpec{
		{Name: "frequency", Desc: param.Descriptor{Min: 0, Max: ctx.opts.SampleRate / 2, Default: 350, Rate: param.KRate}},
		{Name: "Q", Desc: param.Descriptor{Min: -1000, Max: 1000, Default: 1, Rate: param.KRate}},
	}
	n := ctx.register(p, 1, 1, specs)
	return BiquadFilterHandle{n, p}
}

func (h BiquadFilterHandle) Frequency() AudioParam { return AudioParam{h.ctx, h.id, "frequency"} }
func (h BiquadFilterHandle) Q() AudioParam         { return AudioParam{h.ctx, h.id, "Q"} }
func (h BiquadFilterHandle) SetType(t BiquadType)  { h.proc.SetType(t) }

// ConvolverHandle controls an FIR convolution stage.
type ConvolverHandle struct{ Node }

// CreateConvolver returns a new ConvolverNode applying impulse to every
// channel identically.
func (ctx *Context) CreateConvolver(impulse []float32) ConvolverHandle {
	p := node.NewConvolver(ctx.pool, impulse)
	n := ctx.register(p, 1, 1, nil)
	return ConvolverHandle{n}
}

// StereoPannerHandle controls an equal-power stereo pan.
type StereoPannerHandle struct{ Node }

// CreateStereoPanner returns a new StereoPannerNode.
func (ctx *Context) CreateStereoPanner() StereoPannerHandle {
	p := node.NewStereoPanner(ctx.pool)
	specs := []graph.ParamSpec{
		{Name: "pan", Desc: param.Descriptor{Min: -1, Max: 1, Default: 0, Rate: param.ARate}},
	}
	n := ctx.register(p, 1, 1, specs)
	return StereoPannerHandle{n}
}

func (h StereoPannerHandle) Pan() AudioParam { return AudioParam{h.ctx, h.id, "pan"} }

// PannerHandle controls a 3D equal-power panner, listener-relative.
type PannerHandle struct{ Node }

// CreatePanner returns a new PannerNode at the origin, wired to the
// AudioListener's nine coordinate params (materialising the listener on
// first use, per spec's deferred-registration note).
func (ctx *Context) CreatePanner() PannerHandle {
	p := node.NewPanner(ctx.pool)
	specs := []graph.ParamSpec{
		{Name: "positionX", Desc: param.Descriptor{Min: -1e9, Max: 1e9, Default: 0, Rate: param.KRate}},
		{Name: "positionY", Desc: param.Descriptor{Min: -1e9, Max: 1e9, Default: 0, Rate: param.KRate}},
		{Name: "positionZ", Desc: param.Descriptor{Min: -1e9, Max: 1e9, Default: 0, Rate: param.KRate}},
		{Name: "listenerPositionX", Desc: param.Descriptor{Min: -1e9, Max: 1e9, Default: 0, Rate: param.KRate}},
		{Name: "listenerPositionY", Desc: param.Descriptor{Min: -1e9, Max: 1e9, Default: 0, Rate: param.KRate}},
		{Name: "listenerPositionZ", Desc: param.Descriptor{Min: -1e9, Max: 1e9, Default: 0, Rate: param.KRate}},
		{Name: "listenerForwardX", Desc: param.Descriptor{Min: -1, Max: 1, Default: 0, Rate: param.KRate}},
		{Name: "listenerForwardY", Desc: param.Descriptor{Min: -1, Max: 1, Default: 0, Rate: param.KRate}},
		{Name: "listenerForwardZ", Desc: param.Descriptor{Min: -1, Max: 1, Default: -1, Rate: param.KRate}},
		{Name: "listenerUpX", Desc: param.Descriptor{Min: -1, Max: 1, Default: 0, Rate: param.KRate}},
		{Name: "listenerUpY", Desc: param.Descriptor{Min: -1, Max: 1, Default: 1, Rate: param.KRate}},
		{Name: "listenerUpZ", Desc: param.Descriptor{Min: -1, Max: 1, Default: 0, Rate: param.KRate}},
	}
	n := ctx.register(p, 1, 1, specs)
	h := PannerHandle{n}
	ctx.connectListenerParams(h.Node)
	return h
}

func (h PannerHandle) PositionX() AudioParam { return AudioParam{h.ctx, h.id, "positionX"} }
func (h PannerHandle) PositionY() AudioParam { return AudioParam{h.ctx, h.id, "positionY"} }
func (h PannerHandle) PositionZ() AudioParam { return AudioParam{h.ctx, h.id, "positionZ"} }

// ChannelSplitterHandle fans a multi-channel input out to discrete
// single-channel outputs.
type ChannelSplitterHandle struct{ Node }

// CreateChannelSplitter returns a new ChannelSplitterNode with numOutputs
// output ports.
func (ctx *Context) CreateChannelSplitter(numOutputs int) ChannelSplitterHandle {
	p := node.NewChannelSplitter(ctx.pool, numOutputs)
	n := ctx.register(p, 1, numOutputs, nil)
	return ChannelSplitterHandle{n}
}

// ChannelMergerHandle fans discrete single-channel inputs in to one
// multi-channel output.
type ChannelMergerHandle struct{ Node }

// CreateChannelMerger returns a new ChannelMergerNode with numInputs
// input ports.
func (ctx *Context) CreateChannelMerger(numInputs int) ChannelMergerHandle {
	p := node.NewChannelMerger(ctx.pool, numInputs)
	n := ctx.register(p, numInputs, 1, nil)
	return ChannelMergerHandle{n}
}

// AudioBufferSourceHandle controls playback of a decoded buffer.
type AudioBufferSourceHandle struct {
	Node
	proc *node.AudioBufferSourceNode
}

// CreateBufferSource returns a new AudioBufferSourceNode playing buf,
// unstarted.
func (ctx *Context) CreateBufferSource(buf *DecodedBuffer) AudioBufferSourceHandle {
	p := node.NewAudioBufferSource(ctx.pool, buf)
	specs := []graph.ParamSpec{
		{Name: "playbackRate", Desc: param.Descriptor{Min: -1e9, Max: 1e9, Default: 1, Rate: param.ARate}},
	}
	n := ctx.register(p, 0, 1, specs)
	return AudioBufferSourceHandle{n, p}
}

func (h AudioBufferSourceHandle) PlaybackRate() AudioParam {
	return AudioParam{h.ctx, h.id, "playbackRate"}
}
func (h AudioBufferSourceHandle) Start(t float64) error { return h.proc.Scheduler().StartAt(t) }
func (h AudioBufferSourceHandle) Stop(t float64) error  { return h.proc.Scheduler().StopAt(t) }
func (h AudioBufferSourceHandle) SetLoop(enabled bool)  { h.proc.Scheduler().SetLoop(enabled) }
func (h AudioBufferSourceHandle) SetLoopBounds(start, end float64) {
	h.proc.Scheduler().SetLoopBounds(start, end)
}
func (h AudioBufferSourceHandle) SetOffset(offset float64) { h.proc.Scheduler().SetOffset(offset) }
func (h AudioBufferSourceHandle) SetDuration(d float64)     { h.proc.Scheduler().SetDuration(d) }

// DynamicsCompressorHandle controls a threshold/ratio gain-reduction
// stage.
type DynamicsCompressorHandle struct {
	Node
	proc *node.DynamicsCompressorNode
}

// CreateDynamicsCompressor returns a new DynamicsCompressorNode with Web
// Audio's default threshold/knee/ratio/attack/release.
func (ctx *Context) CreateDynamicsCompressor() DynamicsCompressorHandle {
	p := node.NewDynamicsCompressor(ctx.pool, ctx.opts.SampleRate)
	specs := []graph.ParamSpec{
		{Name: "threshold", Desc: param.Descriptor{Min: -100, Max: 0, Default: -24, Rate: param.KRate}},
		{Name: "knee", Desc: param.Descriptor{Min: 0, Max: 40, Default: 30, Rate: param.KRate}},
		{Name: "ratio", Desc: param.Descriptor{Min: 1, Max: 20, Default: 12, Rate: param.KRate}},
		{Name: "attack", Desc: param.Descriptor{Min: 0, Max: 1, Default: 0.003, Rate: param.KRate}},
		{Name: "release", Desc: param.Descriptor{Min: 0, Max: 1, Default: 0.25, Rate: param.KRate}},
	}
	n := ctx.register(p, 1, 1, specs)
	return DynamicsCompressorHandle{n, p}
}

func (h DynamicsCompressorHandle) Threshold() AudioParam { return AudioParam{h.ctx, h.id, "threshold"} }
func (h DynamicsCompressorHandle) Knee() AudioParam       { return AudioParam{h.ctx, h.id, "knee"} }
func (h DynamicsCompressorHandle) Ratio() AudioParam      { return AudioParam{h.ctx, h.id, "ratio"} }
func (h DynamicsCompressorHandle) Attack() AudioParam     { return AudioParam{h.ctx, h.id, "attack"} }
func (h DynamicsCompressorHandle) Release() AudioParam    { return AudioParam{h.ctx, h.id, "release"} }

// Reduction reports the most recently applied gain reduction in dB.
func (h DynamicsCompressorHandle) Reduction() float64 { return h.proc.Reduction() }

// DestinationHandle is the render sink every graph ultimately connects
// into.
type DestinationHandle struct{ Node }

// ChannelCount returns the destination's configured channel count.
func (h DestinationHandle) ChannelCount() int { return h.ctx.destProc.ChannelCount() }
