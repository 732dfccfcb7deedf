// Package pool provides the render thread's fixed-length sample block
// allocator: copy-on-write, reference-counted audio blocks backed by a
// free list, plus a distinguished immutable silence block.
//
// A Pool is only ever touched by the single render goroutine that owns it.
// There is no internal locking; the refcount on each block is a plain int
// rather than an atomic, because ownership transfers happen synchronously
// on that one goroutine (mirrors how the teacher's internal/aec keeps its
// NLMS weight array single-goroutine-owned and lock-free on the hot path).
package pool

// Quantum is the fixed number of samples per render block (Q in the spec).
const Quantum = 128

// block is the underlying sample array plus its share count.
type block struct {
	data [Quantum]float32
	refs int
}

// Block is a shared-ownership handle to a sample array. The zero value is
// not valid; obtain one from Pool.Allocate or Pool.Silence.
type Block struct {
	b *block
}

// Pool allocates and recycles Blocks.
type Pool struct {
	free    []*block
	silence *block
}

// New creates a Pool with n blocks pre-allocated into the free list.
func New(n int) *Pool {
	p := &Pool{
		silence: &block{},
		free:    make([]*block, 0, n),
	}
	for i := 0; i < n; i++ {
		p.free = append(p.free, &block{})
	}
	return p
}

// Size returns the number of blocks currently sitting in the free list.
func (p *Pool) Size() int {
	return len(p.free)
}

// Allocate returns a zero-initialised Block. It pops from the free list
// when possible; otherwise it grows the pool by allocating fresh.
func (p *Pool) Allocate() Block {
	var b *block
	n := len(p.free)
	if n > 0 {
		b = p.free[n-1]
		p.free = p.free[:n-1]
		for i := range b.data {
			b.data[i] = 0
		}
	} else {
		b = &block{}
	}
	b.refs = 1
	return Block{b: b}
}

// Silence returns a handle to the pool's unique immutable zero block. The
// same underlying pointer is returned on every call.
func (p *Pool) Silence() Block {
	return Block{b: p.silence}
}

// IsSilence reports whether b is the silence block, by pointer identity.
// It does not scan samples: a block that happens to be all zero but was
// not obtained from Silence() returns false here.
func (p *Pool) IsSilence(b Block) bool {
	return b.b == p.silence
}

// Clone returns a new handle sharing the same underlying array, bumping
// the refcount (a no-op for the silence block, which is never freed).
func (p *Pool) Clone(b Block) Block {
	if b.b != p.silence {
		b.b.refs++
	}
	return b
}

// Release drops a handle. If it was the last owner of a non-silence block,
// the array is pushed back onto the free list.
func (p *Pool) Release(b Block) {
	if b.b == p.silence || b.b == nil {
		return
	}
	b.b.refs--
	if b.b.refs <= 0 {
		p.free = append(p.free, b.b)
	}
}

// View returns a read-only view of b's samples.
func (b Block) View() *[Quantum]float32 {
	return &b.b.data
}

// MutableView returns an exclusive, writable view of *b's samples. If the
// underlying array is shared (including the silence block, which is never
// written), it is first copied into a freshly allocated block (which may
// grow the pool); subsequent writes through the returned slice go to the
// owned copy. The old shared handle is released.
func (p *Pool) MutableView(b *Block) *[Quantum]float32 {
	if b.b == p.silence || b.b.refs > 1 {
		fresh := p.Allocate()
		fresh.b.data = b.b.data
		old := *b
		*b = fresh
		p.Release(old)
	}
	return &b.b.data
}

// Add accumulates src into *dst sample-wise. Silence is handled as an
// identity without touching samples: silent + x adopts x's handle, and
// x + silent is a no-op.
func (p *Pool) Add(dst *Block, src Block) {
	if p.IsSilence(*dst) {
		old := *dst
		*dst = p.Clone(src)
		p.Release(old)
		return
	}
	if p.IsSilence(src) {
		return
	}
	dv := p.MutableView(dst)
	sv := src.View()
	for i := range dv {
		dv[i] += sv[i]
	}
}
