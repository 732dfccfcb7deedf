package node

import (
	"math"

	"audiograph/internal/graph"
	"audiograph/internal/pool"
	"audiograph/internal/quantum"
)

// StereoPannerNode applies an equal-power pan to a mono or stereo input,
// producing a stereo output. Expects a "pan" AudioParam in [-1, 1].
type StereoPannerNode struct {
	pool *pool.Pool
}

// NewStereoPanner returns a StereoPannerNode.
func NewStereoPanner(p *pool.Pool) *StereoPannerNode {
	return &StereoPannerNode{pool: p}
}

func (s *StereoPannerNode) Process(inputs []*quantum.Quantum, outputs []*quantum.Quantum, params graph.ParamValues, scope graph.Scope) bool {
	in := inputs[0]
	out := outputs[0]
	out.SetNumberOfChannels(s.pool, 2)

	pan := params["pan"]
	n := in.NumberOfChannels()

	l := out.ChannelMut(s.pool, 0)
	r := out.ChannelMut(s.pool, 1)

	if n == 1 {
		mono := in.Channel(0).View()
		for i := range l {
			p := float64(pan[i])
			theta := (p + 1) * math.Pi / 4
			l[i] = mono[i] * float32(math.Cos(theta))
			r[i] = mono[i] * float32(math.Sin(theta))
		}
		return true
	}

	inl := in.Channel(0).View()
	inr := in.Channel(1).View()
	for i := range l {
		p := float64(pan[i])
		// Equal-power stereo-to-stereo pan per the Web Audio spec: pan<0
		// bleeds right into left, pan>0 bleeds left into right.
		var gl, gr float64
		if p <= 0 {
			theta := (p + 1) * math.Pi / 2
			gl = math.Cos(theta)
			gr = math.Sin(theta)
			l[i] = inl[i] + inr[i]*float32(gl)
			r[i] = inr[i] * float32(gr)
		} else {
			theta := p * math.Pi / 2
			gl = math.Cos(theta)
			gr = math.Sin(theta)
			l[i] = inl[i] * float32(gl)
			r[i] = inr[i] + inl[i]*float32(gr)
		}
	}
	return true
}

// PannerNode is a 3D equal-power panner: a source position combined with
// the listener's position/forward/up vectors (fed in as twelve AudioParams
// — the panner's own "positionX/Y/Z" plus the listener's nine coordinate
// params, connected by the facade when the panner is created) yields an
// azimuth and an inverse-distance rolloff (refDistance/d, with d clamped
// to [refDistance, maxDistance]). Full HRTF convolution is out of
// scope per spec.md §1; this is the cookbook equal-power model.
type PannerNode struct {
	pool *pool.Pool

	refDistance float64
	maxDistance float64

	scratch *quantum.Quantum // reused for mono-downmix instead of quantum.Clone
}

// NewPanner returns a PannerNode with a unit reference distance and a
// 10000-unit max distance (Web Audio defaults).
func NewPanner(p *pool.Pool) *PannerNode {
	return &PannerNode{pool: p, refDistance: 1, maxDistance: 10000, scratch: quantum.New(p)}
}

type vec3 struct{ x, y, z float64 }

func (a vec3) sub(b vec3) vec3    { return vec3{a.x - b.x, a.y - b.y, a.z - b.z} }
func (a vec3) dot(b vec3) float64 { return a.x*b.x + a.y*b.y + a.z*b.z }
func (a vec3) cross(b vec3) vec3 {
	return vec3{a.y*b.z - a.z*b.y, a.z*b.x - a.x*b.z, a.x*b.y - a.y*b.x}
}
func (a vec3) len() float64 { return math.Sqrt(a.dot(a)) }
func (a vec3) normalized() vec3 {
	l := a.len()
	if l == 0 {
		return a
	}
	return vec3{a.x / l, a.y / l, a.z / l}
}

func (pn *PannerNode) distanceGain(d float64) float64 {
	if d < pn.refDistance {
		d = pn.refDistance
	}
	if d > pn.maxDistance {
		d = pn.maxDistance
	}
	return pn.refDistance / d
}

func (pn *PannerNode) Process(inputs []*quantum.Quantum, outputs []*quantum.Quantum, params graph.ParamValues, scope graph.Scope) bool {
	in := inputs[0]
	out := outputs[0]
	out.SetNumberOfChannels(pn.pool, 2)

	mono := in
	if in.NumberOfChannels() > 1 {
		pn.scratch.CloneInto(pn.pool, in)
		pn.scratch.ForceMono(pn.pool)
		mono = pn.scratch
	}
	src := mono.Channel(0).View()

	source := vec3{float64(params["positionX"][0]), float64(params["positionY"][0]), float64(params["positionZ"][0])}
	listenerPos := vec3{float64(params["listenerPositionX"][0]), float64(params["listenerPositionY"][0]), float64(params["listenerPositionZ"][0])}
	forward := vec3{float64(params["listenerForwardX"][0]), float64(params["listenerForwardY"][0]), float64(params["listenerForwardZ"][0])}.normalized()
	up := vec3{float64(params["listenerUpX"][0]), float64(params["listenerUpY"][0]), float64(params["listenerUpZ"][0])}.normalized()
	right := forward.cross(up).normalized()

	rel := source.sub(listenerPos)
	d := rel.len()
	lx := rel.dot(right)
	lf := rel.dot(forward)
	azimuth := math.Atan2(lx, lf)
	pan := math.Sin(azimuth)
	gain := pn.distanceGain(d)

	l := out.ChannelMut(pn.pool, 0)
	r := out.ChannelMut(pn.pool, 1)
	theta := (pan + 1) * math.Pi / 4
	gl, gr := math.Cos(theta)*gain, math.Sin(theta)*gain
	for i := range l {
		l[i] = src[i] * float32(gl)
		r[i] = src[i] * float32(gr)
	}
	if mono != in {
		mono.Reset(pn.pool)
	}
	return true
}
