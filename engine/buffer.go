package engine

import (
	"fmt"

	"github.com/koi-go/koi/cpu"
)

// BufferState is a Buffer's liveness: Live until freed, Dead afterward.
// Dead buffers stay in the heap's bookkeeping table so that a later access
// can still be recognized as a use-after-free rather than looking like an
// access to unallocated memory.
type BufferState int

const (
	Live BufferState = iota
	Dead
)

func (s BufferState) String() string {
	if s == Live {
		return "Live"
	}
	return "Dead"
}

// Buffer is one heap allocation: a Region plus the bookkeeping the heap
// hooks (bait.Malloc/Free/...) and the memory-safety checks in Swimmer
// need — who created it, who last touched it, and the per-byte symbolic
// variables backing its contents once any byte is symbolized.
type Buffer struct {
	region
	Alias  string
	Origin uint64 // call site that created this allocation
	Sink   uint64 // call site of the most recent mutation (origin until freed)
	State  BufferState
	Vars   []*cpu.Variable // one entry per byte, nil until that byte is symbolized
}

// NewBuffer constructs a Live buffer of size bytes at addr, created by the
// allocator named id (e.g. "malloc", "calloc") at the call site origin. Its
// alias is "<id><--0x<origin>", matching the "id then creation site"
// display convention used throughout trace output.
func NewBuffer(id string, addr, size, origin uint64) *Buffer {
	return &Buffer{
		region: region{addr: addr, size: size},
		Alias:  fmt.Sprintf("%s<--0x%x", id, origin),
		Origin: origin,
		Sink:   origin,
		State:  Live,
		Vars:   make([]*cpu.Variable, size),
	}
}

// Kill marks the buffer Dead as of the call at sink. Killing an
// already-Dead buffer is a no-op — Heap.Free is the one that reports a
// second free, by returning false without calling Kill.
func (b *Buffer) Kill(sink uint64) {
	if b.State == Dead {
		return
	}
	b.State = Dead
	b.Sink = sink
}

func (b *Buffer) Touch(sink uint64) {
	b.Sink = sink
}

func (b *Buffer) IsLive() bool { return b.State == Live }
