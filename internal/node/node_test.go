package node

import (
	"math"
	"testing"

	"audiograph/internal/graph"
	"audiograph/internal/pool"
	"audiograph/internal/quantum"
)

const sampleRate = 44100.0

func constParam(v float32) *[pool.Quantum]float32 {
	buf := new([pool.Quantum]float32)
	for i := range buf {
		buf[i] = v
	}
	return buf
}

func TestOscillatorSineAt1Hz(t *testing.T) {
	p := pool.New(8)
	osc := NewOscillator(p)
	if err := osc.Scheduler().StartAt(0); err != nil {
		t.Fatal(err)
	}

	out := quantum.New(p)
	params := graph.ParamValues{"frequency": constParam(1), "detune": constParam(0)}
	scope := graph.Scope{CurrentTime: 0, SampleRate: sampleRate}

	osc.Process(nil, []*quantum.Quantum{out}, params, scope)

	buf := out.Channel(0).View()
	for n := 0; n < pool.Quantum; n++ {
		want := math.Sin(2 * math.Pi * float64(n) / sampleRate)
		if math.Abs(float64(buf[n])-want) > 1e-5 {
			t.Fatalf("sample %d = %v, want %v", n, buf[n], want)
		}
	}
}

func TestOscillatorSubSampleStart(t *testing.T) {
	p := pool.New(8)
	osc := NewOscillator(p)
	if err := osc.Scheduler().StartAt(1.3 / sampleRate); err != nil {
		t.Fatal(err)
	}

	out := quantum.New(p)
	params := graph.ParamValues{"frequency": constParam(1), "detune": constParam(0)}
	scope := graph.Scope{CurrentTime: 0, SampleRate: sampleRate}

	osc.Process(nil, []*quantum.Quantum{out}, params, scope)

	buf := out.Channel(0).View()
	if buf[0] != 0 || buf[1] != 0 {
		t.Fatalf("samples 0,1 = %v,%v want 0,0", buf[0], buf[1])
	}
	want := math.Sin(2 * math.Pi * 0.7 / sampleRate)
	if math.Abs(float64(buf[2])-want) > 1e-5 {
		t.Fatalf("sample 2 = %v, want %v", buf[2], want)
	}
}

func TestOscillatorScheduledStop(t *testing.T) {
	p := pool.New(8)
	osc := NewOscillator(p)
	if err := osc.Scheduler().StartAt(0); err != nil {
		t.Fatal(err)
	}
	if err := osc.Scheduler().StopAt(6.0 / sampleRate); err != nil {
		t.Fatal(err)
	}

	out := quantum.New(p)
	params := graph.ParamValues{"frequency": constParam(1), "detune": constParam(0)}
	scope := graph.Scope{CurrentTime: 0, SampleRate: sampleRate}

	keepAlive := osc.Process(nil, []*quantum.Quantum{out}, params, scope)
	buf := out.Channel(0).View()
	for n := 0; n < 6; n++ {
		want := math.Sin(2 * math.Pi * float64(n) / sampleRate)
		if math.Abs(float64(buf[n])-want) > 1e-5 {
			t.Fatalf("sample %d = %v, want %v", n, buf[n], want)
		}
	}
	for n := 6; n < pool.Quantum; n++ {
		if buf[n] != 0 {
			t.Fatalf("sample %d after stop_at = %v, want 0", n, buf[n])
		}
	}
	if keepAlive {
		t.Fatal("oscillator should report finished once stop_at falls within the rendered quantum")
	}
}

func TestStartAtTwiceIsRejected(t *testing.T) {
	p := pool.New(4)
	osc := NewOscillator(p)
	if err := osc.Scheduler().StartAt(0); err != nil {
		t.Fatal(err)
	}
	if err := osc.Scheduler().StartAt(1); err == nil {
		t.Fatal("expected an error calling start_at twice")
	}
}

func TestStartAtNegativeIsRejected(t *testing.T) {
	p := pool.New(4)
	osc := NewOscillator(p)
	if err := osc.Scheduler().StartAt(-1); err == nil {
		t.Fatal("expected an error for a negative start_at")
	}
}

func TestGainMultipliesInput(t *testing.T) {
	p := pool.New(8)
	g := NewGain(p)

	in := quantum.New(p)
	in.SetNumberOfChannels(p, 2)
	l := in.ChannelMut(p, 0)
	r := in.ChannelMut(p, 1)
	for i := range l {
		l[i] = 1
		r[i] = -1
	}

	out := quantum.New(p)
	params := graph.ParamValues{"gain": constParam(0.5)}
	g.Process([]*quantum.Quantum{in}, []*quantum.Quantum{out}, params, graph.Scope{SampleRate: sampleRate})

	if out.Channel(0).View()[0] != 0.5 || out.Channel(1).View()[0] != -0.5 {
		t.Fatalf("got %v %v, want 0.5 -0.5", out.Channel(0).View()[0], out.Channel(1).View()[0])
	}
}

func TestGainRampScenario(t *testing.T) {
	// Scenario 6: gain 0 -> 1 linear ramp over 1 second, fed by a constant
	// 1.0 source, should output n/44100 at sample n. Here we drive the
	// gain param directly with the expected per-sample curve (the Timeline
	// itself is tested in internal/param; this exercises the node wiring).
	p := pool.New(8)
	g := NewGain(p)

	in := quantum.New(p)
	for i := range in.ChannelMut(p, 0) {
		in.ChannelMut(p, 0)[i] = 1
	}

	gainBuf := new([pool.Quantum]float32)
	for n := range gainBuf {
		gainBuf[n] = float32(n) / sampleRate
	}

	out := quantum.New(p)
	params := graph.ParamValues{"gain": gainBuf}
	g.Process([]*quantum.Quantum{in}, []*quantum.Quantum{out}, params, graph.Scope{SampleRate: sampleRate})

	for n := 0; n < pool.Quantum; n++ {
		want := float32(n) / sampleRate
		if math.Abs(float64(out.Channel(0).View()[n]-want)) > 1e-6 {
			t.Fatalf("sample %d = %v, want %v", n, out.Channel(0).View()[n], want)
		}
	}
}

func TestConstantSourceEmitsOffset(t *testing.T) {
	p := pool.New(4)
	c := NewConstantSource(p)
	if err := c.Scheduler().StartAt(0); err != nil {
		t.Fatal(err)
	}
	out := quantum.New(p)
	params := graph.ParamValues{"offset": constParam(0.75)}
	c.Process(nil, []*quantum.Quantum{out}, params, graph.Scope{SampleRate: sampleRate})
	if v := out.Channel(0).View()[0]; v != 0.75 {
		t.Fatalf("got %v, want 0.75", v)
	}
}

func TestChannelSplitterMergerRoundTrip(t *testing.T) {
	p := pool.New(16)
	in := quantum.New(p)
	in.SetNumberOfChannels(p, 2)
	in.ChannelMut(p, 0)[0] = 0.3
	in.ChannelMut(p, 1)[0] = -0.6

	split := NewChannelSplitter(p, 2)
	o0, o1 := quantum.New(p), quantum.New(p)
	split.Process([]*quantum.Quantum{in}, []*quantum.Quantum{o0, o1}, nil, graph.Scope{})

	merge := NewChannelMerger(p, 2)
	merged := quantum.New(p)
	merge.Process([]*quantum.Quantum{o0, o1}, []*quantum.Quantum{merged}, nil, graph.Scope{})

	if merged.Channel(0).View()[0] != 0.3 || merged.Channel(1).View()[0] != -0.6 {
		t.Fatalf("round trip mismatch: got %v %v", merged.Channel(0).View()[0], merged.Channel(1).View()[0])
	}
}

func TestBiquadLowpassPassesDC(t *testing.T) {
	p := pool.New(8)
	b := NewBiquadFilter(p, sampleRate)
	b.SetType(Lowpass)

	in := quantum.New(p)
	for i := range in.ChannelMut(p, 0) {
		in.ChannelMut(p, 0)[i] = 1
	}
	out := quantum.New(p)
	params := graph.ParamValues{"frequency": constParam(1000), "Q": constParam(0.707)}
	for i := 0; i < 50; i++ { // let the filter settle
		b.Process([]*quantum.Quantum{in}, []*quantum.Quantum{out}, params, graph.Scope{SampleRate: sampleRate})
	}
	if got := out.Channel(0).View()[pool.Quantum-1]; math.Abs(float64(got)-1) > 0.05 {
		t.Fatalf("settled lowpass DC output = %v, want ~1", got)
	}
}

func TestPannerAzimuthFromListenerParams(t *testing.T) {
	p := pool.New(8)
	pn := NewPanner(p)

	in := quantum.New(p)
	for i := range in.ChannelMut(p, 0) {
		in.ChannelMut(p, 0)[i] = 1
	}
	out := quantum.New(p)

	// Source directly to the listener's left (-X), default listener
	// orientation (forward -Z, up +Y) at the origin: should pan hard left.
	params := graph.ParamValues{
		"positionX": constParam(-1), "positionY": constParam(0), "positionZ": constParam(0),
		"listenerPositionX": constParam(0), "listenerPositionY": constParam(0), "listenerPositionZ": constParam(0),
		"listenerForwardX": constParam(0), "listenerForwardY": constParam(0), "listenerForwardZ": constParam(-1),
		"listenerUpX": constParam(0), "listenerUpY": constParam(1), "listenerUpZ": constParam(0),
	}
	pn.Process([]*quantum.Quantum{in}, []*quantum.Quantum{out}, params, graph.Scope{SampleRate: sampleRate})

	l := out.Channel(0).View()[0]
	r := out.Channel(1).View()[0]
	if l <= r {
		t.Fatalf("source at -X should favor the left channel: l=%v r=%v", l, r)
	}
}

func TestDynamicsCompressorReducesLoudSignal(t *testing.T) {
	p := pool.New(8)
	d := NewDynamicsCompressor(p, sampleRate)

	in := quantum.New(p)
	for i := range in.ChannelMut(p, 0) {
		in.ChannelMut(p, 0)[i] = 1 // 0 dBFS, well above the -24 dB default threshold
	}
	out := quantum.New(p)
	params := graph.ParamValues{
		"threshold": constParam(-24), "knee": constParam(30), "ratio": constParam(12),
		"attack": constParam(0.003), "release": constParam(0.25),
	}
	scope := graph.Scope{SampleRate: sampleRate}

	// Several quanta for the attack-smoothed gain to settle near its target.
	var lastOut float32
	for i := 0; i < 200; i++ {
		d.Process([]*quantum.Quantum{in}, []*quantum.Quantum{out}, params, scope)
		lastOut = out.Channel(0).View()[pool.Quantum-1]
	}
	if lastOut >= 1 {
		t.Fatalf("compressor did not reduce a loud signal: got %v", lastOut)
	}
	if d.Reduction() >= 0 {
		t.Fatalf("expected negative reduction, got %v dB", d.Reduction())
	}
}

func TestDynamicsCompressorPassesQuietSignal(t *testing.T) {
	p := pool.New(8)
	d := NewDynamicsCompressor(p, sampleRate)

	in := quantum.New(p)
	for i := range in.ChannelMut(p, 0) {
		in.ChannelMut(p, 0)[i] = 0.01 // well below threshold
	}
	out := quantum.New(p)
	params := graph.ParamValues{
		"threshold": constParam(-24), "knee": constParam(30), "ratio": constParam(12),
		"attack": constParam(0.003), "release": constParam(0.25),
	}
	scope := graph.Scope{SampleRate: sampleRate}

	var lastOut float32
	for i := 0; i < 200; i++ {
		d.Process([]*quantum.Quantum{in}, []*quantum.Quantum{out}, params, scope)
		lastOut = out.Channel(0).View()[pool.Quantum-1]
	}
	if math.Abs(float64(lastOut)-0.01) > 1e-3 {
		t.Fatalf("compressor altered a quiet signal: got %v, want ~0.01", lastOut)
	}
}

func TestAudioBufferSourceLoops(t *testing.T) {
	p := pool.New(8)
	buf := &DecodedBuffer{SampleRate: sampleRate, Channels: [][]float32{{1, 2, 3, 4}}}
	src := NewAudioBufferSource(p, buf)
	src.Scheduler().SetLoop(true)
	src.Scheduler().SetLoopBounds(0, 4.0/sampleRate)
	if err := src.Scheduler().StartAt(0); err != nil {
		t.Fatal(err)
	}

	out := quantum.New(p)
	params := graph.ParamValues{"playbackRate": constParam(1)}
	src.Process(nil, []*quantum.Quantum{out}, params, graph.Scope{SampleRate: sampleRate})

	got := out.Channel(0).View()
	if got[0] != 1 || got[1] != 2 || got[2] != 3 || got[3] != 4 {
		t.Fatalf("first cycle = %v %v %v %v, want 1 2 3 4", got[0], got[1], got[2], got[3])
	}
	if got[4] != 1 {
		t.Fatalf("loop did not wrap: sample 4 = %v, want 1", got[4])
	}
}
