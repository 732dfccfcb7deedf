// Package quantum implements the multi-channel render quantum: a fixed-size
// array of pool.Block channel handles plus an active channel count, with
// Web-Audio-style channel mixing.
package quantum

import "audiograph/internal/pool"

// MaxChannels is the largest number of channels a Quantum can carry.
const MaxChannels = 32

// Interpretation selects how channel counts are reconciled during mixing.
type Interpretation int

const (
	// Speakers applies the Web Audio up/down-mix coefficient table for the
	// canonical channel counts; unsupported pairs fall back to Discrete.
	Speakers Interpretation = iota
	// Discrete truncates or zero-extends channels without mixing.
	Discrete
)

// Quantum is a render quantum: up to MaxChannels channel Blocks, of which
// only [0, count) are semantically valid.
type Quantum struct {
	channels [MaxChannels]pool.Block
	count    int
}

// New returns a Quantum with a single silent channel.
func New(p *pool.Pool) *Quantum {
	q := &Quantum{count: 1}
	s := p.Silence()
	for i := range q.channels {
		q.channels[i] = s
	}
	return q
}

// NumberOfChannels returns the active channel count.
func (q *Quantum) NumberOfChannels() int {
	return q.count
}

// Channel returns the handle for channel i (i must be < NumberOfChannels()).
func (q *Quantum) Channel(i int) pool.Block {
	return q.channels[i]
}

// ChannelMut returns a mutable view of channel i's samples.
func (q *Quantum) ChannelMut(p *pool.Pool, i int) *[pool.Quantum]float32 {
	return p.MutableView(&q.channels[i])
}

// SetNumberOfChannels changes the active channel count, filling any newly
// exposed channels with silence. c must be in [1, MaxChannels].
func (q *Quantum) SetNumberOfChannels(p *pool.Pool, c int) {
	if c < 1 {
		c = 1
	}
	if c > MaxChannels {
		c = MaxChannels
	}
	if c > q.count {
		s := p.Silence()
		for i := q.count; i < c; i++ {
			old := q.channels[i]
			q.channels[i] = p.Clone(s)
			p.Release(old)
		}
	} else if c < q.count {
		for i := c; i < q.count; i++ {
			p.Release(q.channels[i])
			q.channels[i] = p.Silence()
		}
	}
	q.count = c
}

// MakeSilent collapses the quantum to a single silent channel, releasing
// every other channel's handle.
func (q *Quantum) MakeSilent(p *pool.Pool) {
	s := p.Silence()
	for i := 0; i < q.count; i++ {
		p.Release(q.channels[i])
		q.channels[i] = s
	}
	q.count = 1
	q.channels[0] = s
}

// ForceMono drops every channel beyond the first without mixing.
func (q *Quantum) ForceMono(p *pool.Pool) {
	for i := 1; i < q.count; i++ {
		p.Release(q.channels[i])
		q.channels[i] = p.Silence()
	}
	q.count = 1
}

// Reset releases every channel handle the quantum owns and leaves it with
// a single silent channel, ready for reuse.
func (q *Quantum) Reset(p *pool.Pool) {
	q.MakeSilent(p)
}

// speakerPairs holds the canonical Web Audio up/down-mix functions, keyed
// by (from, to) channel count. Coefficients match the Web Audio
// specification's channel up-mixing/down-mixing rules.
var speakerPairs = map[[2]int]func(p *pool.Pool, q *Quantum){
	{1, 2}: mix1to2,
	{1, 4}: mix1to4,
	{1, 6}: mix1to6,
	{2, 1}: mix2to1,
	{2, 4}: mix2to4,
	{2, 6}: mix2to6,
	{4, 1}: mix4to1,
	{4, 2}: mix4to2,
	{4, 6}: mix4to6,
	{6, 1}: mix6to1,
	{6, 2}: mix6to2,
	{6, 4}: mix6to4,
}

// Mix converts the quantum to c channels using the given interpretation.
// After Mix, NumberOfChannels() == c and channels [0, c) carry the mixed
// signal; channels [c, MaxChannels) are unspecified.
func (q *Quantum) Mix(p *pool.Pool, c int, interp Interpretation) {
	if c < 1 {
		c = 1
	}
	if c > MaxChannels {
		c = MaxChannels
	}
	if q.count == c {
		return
	}

	if interp == Discrete {
		q.SetNumberOfChannels(p, c)
		return
	}

	if fn, ok := speakerPairs[[2]int{q.count, c}]; ok {
		fn(p, q)
		q.count = c
		return
	}

	// Unsupported pair under Speakers interpretation: fall back to Discrete.
	q.SetNumberOfChannels(p, c)
}

func set(p *pool.Pool, q *Quantum, i int, b pool.Block) {
	old := q.channels[i]
	q.channels[i] = b
	p.Release(old)
}

func mix1to2(p *pool.Pool, q *Quantum) {
	set(p, q, 1, p.Clone(q.channels[0]))
}

func mix1to4(p *pool.Pool, q *Quantum) {
	s := p.Silence()
	set(p, q, 1, p.Clone(q.channels[0]))
	set(p, q, 2, p.Clone(s))
	set(p, q, 3, p.Clone(s))
}

func mix1to6(p *pool.Pool, q *Quantum) {
	// L, R, C, LFE, SL, SR: mono goes to center, everything else silent.
	s := p.Silence()
	mono := p.Clone(q.channels[0])
	set(p, q, 2, mono)
	set(p, q, 0, p.Clone(s))
	set(p, q, 1, p.Clone(s))
	set(p, q, 3, p.Clone(s))
	set(p, q, 4, p.Clone(s))
	set(p, q, 5, p.Clone(s))
}

func mix2to1(p *pool.Pool, q *Quantum) {
	l := q.channels[0].View()
	r := q.channels[1].View()
	out := p.Allocate()
	ov := out.View()
	for i := range ov {
		ov[i] = (l[i] + r[i]) / 2
	}
	set(p, q, 0, out)
	set(p, q, 1, p.Silence())
}

func mix2to4(p *pool.Pool, q *Quantum) {
	s := p.Silence()
	set(p, q, 2, p.Clone(s))
	set(p, q, 3, p.Clone(s))
}

func mix2to6(p *pool.Pool, q *Quantum) {
	s := p.Silence()
	set(p, q, 2, p.Clone(s))
	set(p, q, 3, p.Clone(s))
	set(p, q, 4, p.Clone(s))
	set(p, q, 5, p.Clone(s))
}

func mix4to1(p *pool.Pool, q *Quantum) {
	l := q.channels[0].View()
	r := q.channels[1].View()
	sl := q.channels[2].View()
	sr := q.channels[3].View()
	out := p.Allocate()
	ov := out.View()
	for i := range ov {
		ov[i] = 0.25 * (l[i] + r[i] + sl[i] + sr[i])
	}
	for i := 1; i < 4; i++ {
		set(p, q, i, p.Silence())
	}
	set(p, q, 0, out)
}

func mix4to2(p *pool.Pool, q *Quantum) {
	l := q.channels[0].View()
	r := q.channels[1].View()
	sl := q.channels[2].View()
	sr := q.channels[3].View()
	outL := p.Allocate()
	outR := p.Allocate()
	lv, rv := outL.View(), outR.View()
	for i := range lv {
		lv[i] = 0.5 * (l[i] + sl[i])
		rv[i] = 0.5 * (r[i] + sr[i])
	}
	set(p, q, 2, p.Silence())
	set(p, q, 3, p.Silence())
	set(p, q, 0, outL)
	set(p, q, 1, outR)
}

func mix4to6(p *pool.Pool, q *Quantum) {
	// L R SL SR -> L R C LFE SL SR
	sl := p.Clone(q.channels[2])
	sr := p.Clone(q.channels[3])
	s := p.Silence()
	set(p, q, 2, p.Clone(s))
	set(p, q, 3, p.Clone(s))
	set(p, q, 4, sl)
	set(p, q, 5, sr)
}

const invSqrt2 = 0.70710678

func mix6to1(p *pool.Pool, q *Quantum) {
	l := q.channels[0].View()
	r := q.channels[1].View()
	c := q.channels[2].View()
	sl := q.channels[4].View()
	sr := q.channels[5].View()
	out := p.Allocate()
	ov := out.View()
	for i := range ov {
		ov[i] = invSqrt2*(l[i]+r[i]) + c[i] + 0.5*(sl[i]+sr[i])
	}
	for i := 1; i < 6; i++ {
		set(p, q, i, p.Silence())
	}
	set(p, q, 0, out)
}

func mix6to2(p *pool.Pool, q *Quantum) {
	l := q.channels[0].View()
	r := q.channels[1].View()
	c := q.channels[2].View()
	sl := q.channels[4].View()
	sr := q.channels[5].View()
	outL := p.Allocate()
	outR := p.Allocate()
	lv, rv := outL.View(), outR.View()
	for i := range lv {
		lv[i] = l[i] + invSqrt2*(c[i]+sl[i])
		rv[i] = r[i] + invSqrt2*(c[i]+sr[i])
	}
	for i := 2; i < 6; i++ {
		set(p, q, i, p.Silence())
	}
	set(p, q, 0, outL)
	set(p, q, 1, outR)
}

func mix6to4(p *pool.Pool, q *Quantum) {
	l := q.channels[0].View()
	r := q.channels[1].View()
	c := q.channels[2].View()
	outL := p.Allocate()
	outR := p.Allocate()
	lv, rv := outL.View(), outR.View()
	for i := range lv {
		lv[i] = l[i] + invSqrt2*c[i]
		rv[i] = r[i] + invSqrt2*c[i]
	}
	sl := p.Clone(q.channels[4])
	sr := p.Clone(q.channels[5])
	set(p, q, 0, outL)
	set(p, q, 1, outR)
	set(p, q, 2, sl)
	set(p, q, 3, sr)
	set(p, q, 4, p.Silence())
	set(p, q, 5, p.Silence())
}

// Add mixes other up to this quantum's channel count and accumulates
// sample-wise, per the given interpretation. If other has more channels,
// this quantum is upmixed to other's count first instead. other is cloned
// into a freshly allocated scratch Quantum before mixing so it is never mutated
// by the call; on the render hot path use AddMixed with a reused scratch
// buffer instead.
func (q *Quantum) Add(p *pool.Pool, other *Quantum, interp Interpretation) {
	tmp := New(p)
	tmp.CloneInto(p, other)
	if tmp.count < q.count {
		tmp.Mix(p, q.count, interp)
	}
	q.AddMixed(p, tmp, interp)
	tmp.Reset(p)
}

// AddMixed accumulates other into q sample-wise, upmixing q first if other
// has more channels than q currently does. Unlike Add, it never allocates
// or clones: other is read directly and must already be converted to
// max(q.NumberOfChannels(), other.NumberOfChannels()) channels under interp
// by the caller (mixInto arranges this with a reused scratch Quantum, the
// same one it clones src into).
func (q *Quantum) AddMixed(p *pool.Pool, other *Quantum, interp Interpretation) {
	target := q.count
	if other.count > target {
		target = other.count
		q.Mix(p, target, interp)
	}
	for i := 0; i < target; i++ {
		p.Add(&q.channels[i], other.channels[i])
	}
}

// CloneInto overwrites q with a copy-on-write snapshot of src (channel
// handles shared, refcounts bumped, no samples copied), reusing q's own
// storage instead of allocating a new Quantum. q can then be mixed or
// mutated without affecting src or any other edge fanning out from the
// same source quantum.
func (q *Quantum) CloneInto(p *pool.Pool, src *Quantum) {
	q.Reset(p)
	q.count = src.count
	for i := 0; i < src.count; i++ {
		q.channels[i] = p.Clone(src.channels[i])
	}
}

// Clone returns an independent copy-on-write snapshot of src. Allocates a
// new Quantum; prefer CloneInto with a reused scratch buffer on the
// render hot path.
func Clone(p *pool.Pool, src *Quantum) *Quantum {
	q := New(p)
	q.CloneInto(p, src)
	return q
}

// IsSilent reports whether every active channel is the pool's silence
// block (an O(1) pointer check per channel, not a sample scan).
func (q *Quantum) IsSilent(p *pool.Pool) bool {
	for i := 0; i < q.count; i++ {
		if !p.IsSilence(q.channels[i]) {
			return false
		}
	}
	return true
}
