package engine

import "sort"

// Stackframe is one activation record: a Region of the current function's
// local-variable area, plus the set of byte offsets within it that have
// actually been accessed. The access set always contains 0 and Size() —
// the frame's own boundaries — so a gap query never needs a special case
// for "nothing accessed yet".
type Stackframe struct {
	region
	accesses []uint64 // sorted, deduplicated
}

// NewStackframe creates a frame of size bytes starting at addr (normally
// rsp immediately after a "sub rsp, imm" prologue), seeded with accesses
// at its two boundaries.
func NewStackframe(addr, size uint64) *Stackframe {
	return &Stackframe{
		region:   region{addr: addr, size: size},
		accesses: []uint64{0, size},
	}
}

// reset re-bases the frame in place for a freshly detected
// "sub rsp, imm" prologue, re-seeding its boundary accesses.
func (f *Stackframe) reset(addr, size uint64) {
	f.region.addr = addr
	f.region.size = size
	f.accesses = []uint64{0, size}
}

// AddAccess records an access at byte offset off within the frame.
func (f *Stackframe) AddAccess(off uint64) {
	i := sort.Search(len(f.accesses), func(i int) bool { return f.accesses[i] >= off })
	if i < len(f.accesses) && f.accesses[i] == off {
		return
	}
	f.accesses = append(f.accesses, 0)
	copy(f.accesses[i+1:], f.accesses[i:])
	f.accesses[i] = off
}

// AccessGap returns the span [lo, hi) of recorded accesses that bracket
// off: the nearest recorded offset at or below off, and the nearest
// recorded offset above it. Used to estimate a buffer's true length from
// below when only partial access history is available (the "access-gap"
// underestimation query, §4.4) — e.g. if bytes 0 and 32 were touched but
// nothing between them is known, a 16-byte write living inside that gap
// cannot be distinguished from legitimate use of a bigger buffer.
func (f *Stackframe) AccessGap(off uint64) (lo, hi uint64) {
	i := sort.Search(len(f.accesses), func(i int) bool { return f.accesses[i] > off })
	hi = f.Size()
	if i < len(f.accesses) {
		hi = f.accesses[i]
	}
	lo = 0
	if i > 0 {
		lo = f.accesses[i-1]
	}
	return lo, hi
}

// Update replaces the frame's size in place, re-seeding the upper boundary
// access but leaving every interior access recorded so far untouched.
func (f *Stackframe) Update(size uint64) {
	f.region.size = size
	f.AddAccess(size)
}

// Extend grows the frame by delta bytes.
func (f *Stackframe) Extend(delta uint64) {
	f.Update(f.Size() + delta)
}

// Shrink decreases the frame's size by delta bytes. The caller is
// responsible for access-set consistency afterward; behavior is undefined
// if delta exceeds the current size (this mirrors an explicit open
// question in the reference design rather than a gap in this port — no
// hook in this repository ever calls it with delta > size).
func (f *Stackframe) Shrink(delta uint64) {
	f.region.size -= delta
}
