package engine

import "fmt"

// AllocateHeap performs allocateHeapMemory(id, sink, size): a first-fit
// scan for size free bytes, recorded as a Buffer tagged with the allocator
// name id (e.g. "malloc") and created by the call at sink, with every byte
// of the new allocation symbolized under "<alias>[0x<i>]". Returns nil if
// no free span of that size exists.
func (s *Swimmer) AllocateHeap(id string, size, sink uint64) *Buffer {
	buf := s.Heap.Allocate(id, size, sink)
	if buf == nil {
		s.log(SV_ALLOC, "allocation of %d bytes failed: heap exhausted", size)
		return nil
	}
	buf.Vars = s.CPU.SymbolizeMemory(buf.Addr(), int(buf.Size()), func(i int) string {
		return fmt.Sprintf("%s[0x%x]", buf.Alias, i)
	})
	s.log(SV_ALLOC, "allocated %d bytes at 0x%x (%s)", size, buf.Addr(), buf.Alias)
	return buf
}

// FreeHeap performs §4.8's freeHeapMemory: kills the Live buffer whose
// base exactly equals ptr. Returns false for a non-base address or a
// buffer that is already Dead (double free).
func (s *Swimmer) FreeHeap(ptr, sink uint64) bool {
	ok := s.Heap.Free(ptr, sink)
	if ok {
		s.log(SV_ALLOC, "freed 0x%x (%s)", ptr, s.Heap.Alias(ptr))
	} else {
		s.log(SV_ALLOC, "bad free at 0x%x", ptr)
	}
	return ok
}

// StatHeap reports whether the buffer containing ptr is Live. strict
// requires ptr to be the buffer's exact base address.
func (s *Swimmer) StatHeap(ptr uint64, strict bool) bool {
	buf := s.Heap.Lookup(ptr, false)
	if buf == nil {
		return false
	}
	if strict && buf.Addr() != ptr {
		return false
	}
	return buf.IsLive()
}

func (s *Swimmer) GetHeapOrigin(ptr uint64) uint64 {
	if buf := s.Heap.Lookup(ptr, false); buf != nil {
		return buf.Origin
	}
	return 0
}

func (s *Swimmer) GetHeapSink(ptr uint64) uint64 {
	if buf := s.Heap.Lookup(ptr, false); buf != nil {
		return buf.Sink
	}
	return 0
}

func (s *Swimmer) GetBufferAlias(ptr uint64) string { return s.Heap.Alias(ptr) }

func (s *Swimmer) GetAllocatedLength(ptr uint64) uint64 { return s.Heap.AllocatedLength(ptr) }

func (s *Swimmer) IsHeapAllocated(ptr uint64) bool { return s.Heap.IsAllocated(ptr) }
