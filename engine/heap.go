package engine

import "sort"

// Heap is a first-fit allocator over [HeapLow, HeapHigh) that keeps every
// Buffer it has ever handed out, Live or Dead, so frees and accesses
// against stale pointers can be recognized instead of silently succeeding.
type Heap struct {
	buffers []*Buffer // sorted by Addr
}

func NewHeap() *Heap { return &Heap{} }

// Allocate finds the first gap of at least size bytes in [HeapLow,
// HeapHigh) that doesn't overlap any buffer this heap has ever handed out
// — Live or Dead, a freed span's address range stays reserved rather than
// being reused by the very next allocation — and returns a fresh Buffer
// there, or nil if no such gap exists.
func (h *Heap) Allocate(id string, size, origin uint64) *Buffer {
	if size == 0 {
		return nil
	}
	cursor := HeapLow
	for _, b := range h.buffers {
		if cursor+size <= b.Addr() {
			break
		}
		if b.Addr()+b.Size() > cursor {
			cursor = b.Addr() + b.Size()
		}
	}
	if cursor+size > HeapHigh {
		return nil
	}
	buf := NewBuffer(id, cursor, size, origin)
	h.buffers = append(h.buffers, buf)
	sort.Slice(h.buffers, func(i, j int) bool { return h.buffers[i].Addr() < h.buffers[j].Addr() })
	return buf
}

// Buffers returns every buffer the heap has ever handed out, Live or Dead,
// in address order.
func (h *Heap) Buffers() []*Buffer { return h.buffers }

// Lookup returns the buffer whose region contains addr, strict or not: in
// strict mode only Live buffers are considered (an access through a freed
// pointer looks like "not allocated" rather than resolving to the old
// buffer); in non-strict mode Dead buffers are visible too, which is what
// lets Free/double-free detection and use-after-free diagnostics work.
func (h *Heap) Lookup(addr uint64, strict bool) *Buffer {
	for _, b := range h.buffers {
		if strict && !b.IsLive() {
			continue
		}
		if b.Contains(addr) {
			return b
		}
	}
	return nil
}

// Free kills the buffer exactly containing addr as its base, returning
// false (a "bad free") if no such Live buffer exists — including when
// addr names a buffer that is already Dead (double free).
func (h *Heap) Free(addr, sink uint64) bool {
	for _, b := range h.buffers {
		if b.Addr() == addr {
			if !b.IsLive() {
				return false
			}
			b.Kill(sink)
			return true
		}
	}
	return false
}

func (h *Heap) IsAllocated(addr uint64) bool { return h.Lookup(addr, true) != nil }

// AllocatedLength returns the size of the Live buffer containing addr, or
// 0 if addr is not inside one.
func (h *Heap) AllocatedLength(addr uint64) uint64 {
	if b := h.Lookup(addr, true); b != nil {
		return b.Size()
	}
	return 0
}

// Alias returns the display alias of the buffer (Live or Dead) containing
// addr, or "UNDEFINED" if addr is not inside any known allocation.
func (h *Heap) Alias(addr uint64) string {
	if b := h.Lookup(addr, false); b != nil {
		return b.Alias
	}
	return "UNDEFINED"
}
