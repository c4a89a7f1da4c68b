package bait

import (
	"golang.org/x/arch/x86/x86asm"

	"github.com/koi-go/koi/cpu"
	"github.com/koi-go/koi/engine"
)

// Strlen deduces the length of the NUL-terminated string at rdi. A string
// that starts with concrete non-NUL bytes short-circuits to the count of
// those bytes (up to the first NUL or undefined byte); otherwise the
// enclosing heap or stack allocation's length stands in for the unknown
// bound, and the loop below searches it from the end for the earliest
// concrete NUL or, failing that, the latest byte that can still be
// satisfiably NUL.
func Strlen(s *engine.Swimmer, callSite uint64) uint64 {
	ptr := satisfiableRegisterValue(s, x86asm.RDI)
	if ptr == 0 {
		return 0
	}
	if n := uint64(len(s.ReadString(ptr))); n > 0 {
		return n
	}

	fullLen := s.GetAllocatedLength(ptr)
	if fullLen == 0 {
		fullLen = s.GetStackBufferLength(ptr)
	}
	if fullLen == 0 {
		return 0
	}

	length := fullLen
	symbolicNull := uint64(0)
	for i := fullLen - 1; ; i-- {
		addr := ptr + i
		if symbolicNull == 0 && s.CPU.IsMemorySymbolized(addr, 1) {
			expr := s.CPU.GetMemoryExpression(addr, 1)
			if model, ok := s.CPU.GetModel([]*cpu.Node{cpu.Equal(expr, cpu.Bv(8, 0))}); ok && len(model) > 0 {
				symbolicNull = i
			}
		} else if s.CPU.IsConcreteMemoryValueDefined(addr, 1) {
			if s.CPU.ReadMemory(addr, 1) == 0 {
				length = i
			}
		}
		if i == 0 {
			break
		}
	}

	if length == fullLen {
		length = symbolicNull
	}
	return length
}

// Strcpy copies the source string at rsi into the destination at rdi,
// truncating to the destination's own deduced length if that's shorter
// (the copy never writes past a buffer whose bound is already known),
// and returns dptr the way libc's strcpy returns its destination.
func Strcpy(s *engine.Swimmer, callSite uint64) uint64 {
	dptr := satisfiableRegisterValue(s, x86asm.RDI)
	sptr := satisfiableRegisterValue(s, x86asm.RSI)

	s.CPU.SetConcreteRegisterValue(x86asm.RDI, sptr)
	slen := Strlen(s, callSite)
	s.CPU.SetConcreteRegisterValue(x86asm.RDI, dptr)

	dlen := Strlen(s, callSite)
	length := slen
	if dlen < length {
		length = dlen
	}
	copyConcretesAndConstraints(s, dptr, sptr, length)
	return dptr
}

// Strncpy copies at most n bytes (rdx) of the source string at rsi into
// the destination at rdi, stopping earlier if the source is shorter.
func Strncpy(s *engine.Swimmer, callSite uint64) uint64 {
	dptr := satisfiableRegisterValue(s, x86asm.RDI)
	sptr := satisfiableRegisterValue(s, x86asm.RSI)
	n := satisfiableRegisterValue(s, x86asm.RDX)

	s.CPU.SetConcreteRegisterValue(x86asm.RDI, sptr)
	slen := Strlen(s, callSite)
	s.CPU.SetConcreteRegisterValue(x86asm.RDI, dptr)

	length := n
	if slen < length {
		length = slen
	}
	copyConcretesAndConstraints(s, dptr, sptr, length)
	return dptr
}

// Strchr searches the string at rdi for the first byte equal to rsi,
// returning its address or 0 if no satisfiable match exists. Both the
// string bytes and the search character may be concrete or symbolic;
// whichever side is symbolic is resolved through the solver one byte at a
// time rather than compared directly.
func Strchr(s *engine.Swimmer, callSite uint64) uint64 {
	ptr := satisfiableRegisterValue(s, x86asm.RDI)

	if !s.CPU.IsMemorySymbolized(ptr, 1) && !s.CPU.IsRegisterSymbolized(x86asm.RSI) {
		chr := s.CPU.GetConcreteRegisterValue(x86asm.RSI) & 0xff
		for {
			b := s.CPU.ReadMemory(ptr, 1)
			if b == chr {
				return ptr
			}
			if b == 0 {
				return 0
			}
			ptr++
		}
	}

	if !s.CPU.IsMemorySymbolized(ptr, 1) {
		chrExpr := s.CPU.GetSymbolicRegisterExpression(x86asm.RSI)
		for {
			b := s.CPU.ReadMemory(ptr, 1)
			if model, ok := s.CPU.GetModel([]*cpu.Node{cpu.Equal(chrExpr, cpu.Bv(8, b))}); ok && len(model) > 0 {
				return ptr
			}
			if b == 0 {
				return 0
			}
			ptr++
		}
	}

	fullLen := Strlen(s, callSite)
	if !s.CPU.IsRegisterSymbolized(x86asm.RSI) {
		chr := s.CPU.GetConcreteRegisterValue(x86asm.RSI) & 0xff
		for i := uint64(0); i < fullLen; i++ {
			expr := s.CPU.GetMemoryExpression(ptr+i, 1)
			if model, ok := s.CPU.GetModel([]*cpu.Node{cpu.Equal(expr, cpu.Bv(8, chr))}); ok && len(model) > 0 {
				return ptr + i
			}
		}
		return 0
	}

	chrExpr := s.CPU.GetSymbolicRegisterExpression(x86asm.RSI)
	for i := uint64(0); i < fullLen; i++ {
		strExpr := s.CPU.GetMemoryExpression(ptr+i, 1)
		if model, ok := s.CPU.GetModel([]*cpu.Node{cpu.Equal(chrExpr, strExpr)}); ok && len(model) > 0 {
			return ptr + i
		}
	}
	return 0
}
