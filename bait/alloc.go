package bait

import (
	"golang.org/x/arch/x86/x86asm"

	"github.com/koi-go/koi/engine"
)

// Malloc allocates a single chunk sized from rdi, the way libc's malloc
// would, and returns its address in rax (via the FuncHook return value).
func Malloc(s *engine.Swimmer, callSite uint64) uint64 {
	length := satisfiableRegisterValue(s, x86asm.RDI)
	if length == 0 {
		return 0
	}
	buf := s.AllocateHeap("malloc", length, callSite)
	if buf == nil {
		return 0
	}
	return buf.Addr()
}

// Calloc allocates cnt*sz bytes. Unlike real calloc it never needs to
// zero the chunk explicitly — a freshly allocated heap span is symbolized,
// not concretely zeroed, by construction.
func Calloc(s *engine.Swimmer, callSite uint64) uint64 {
	cnt := satisfiableRegisterValue(s, x86asm.RDI)
	if cnt == 0 {
		return 0
	}
	sz := satisfiableRegisterValue(s, x86asm.RSI)
	if sz == 0 {
		return 0
	}
	buf := s.AllocateHeap("calloc", cnt*sz, callSite)
	if buf == nil {
		return 0
	}
	return buf.Addr()
}

// Free releases the chunk addressed by rdi.
func Free(s *engine.Swimmer, callSite uint64) uint64 {
	s.FreeHeap(satisfiableRegisterValue(s, x86asm.RDI), callSite)
	return 0
}

// Realloc resizes the chunk addressed by rdi to the length in rsi,
// preserving as many of its old bytes (concrete or symbolic) as still fit.
// A null old pointer behaves like Malloc; an old pointer that was never
// allocated (or was already freed) fails the call.
func Realloc(s *engine.Swimmer, callSite uint64) uint64 {
	newLen := satisfiableRegisterValue(s, x86asm.RSI)
	if newLen == 0 {
		return 0
	}
	oldPtr := satisfiableRegisterValue(s, x86asm.RDI)
	if oldPtr == 0 {
		buf := s.AllocateHeap("realloc", newLen, callSite)
		if buf == nil {
			return 0
		}
		return buf.Addr()
	}
	if !s.StatHeap(oldPtr, true) {
		return 0
	}
	oldLen := s.GetAllocatedLength(oldPtr)
	buf := s.AllocateHeap("realloc", newLen, callSite)
	if buf == nil {
		return 0
	}
	newPtr := buf.Addr()
	length := oldLen
	if newLen < length {
		length = newLen
	}
	copyConcretesAndConstraints(s, newPtr, oldPtr, length)
	s.FreeHeap(oldPtr, callSite)
	return newPtr
}
