// Package bait provides hook-function implementations for a handful of
// common libc routines (allocation, string, and simple I/O primitives) that
// a target binary is likely to call through the dynamic linker rather than
// define itself. Each is an engine.FuncHook that can be registered with
// HookFunction against whatever PLT stub or imported-symbol address the
// loader resolved for the real libc routine, so exploration doesn't grind
// to a halt the first time a path calls strlen.
package bait

import (
	"golang.org/x/arch/x86/x86asm"

	"github.com/koi-go/koi/cpu"
	"github.com/koi-go/koi/engine"
)

// satisfiableRegisterValue returns a concrete value for reg consistent with
// the swimmer's accumulated path constraints: the register's own concrete
// shadow if it was never symbolized, or the solver's satisfying assignment
// for its symbolic expression otherwise. Returns 0 if no such assignment
// exists.
func satisfiableRegisterValue(s *engine.Swimmer, reg x86asm.Reg) uint64 {
	if !s.CPU.IsRegisterSymbolized(reg) {
		return s.CPU.GetConcreteRegisterValue(reg)
	}
	expr := s.CPU.GetSymbolicRegisterExpression(reg)
	if expr == nil {
		return 0
	}
	model, ok := s.CPU.GetModel(s.Constraints)
	if !ok {
		return 0
	}
	return cpu.Evaluate(expr, model)
}

// copyConcretesAndConstraints copies length bytes from src to dst,
// preserving each source byte's concrete value or symbolic expression (and
// so any constraint already recorded over the variables it references)
// rather than materializing fresh unconstrained bytes at the destination.
func copyConcretesAndConstraints(s *engine.Swimmer, dst, src, length uint64) {
	s.CPU.CopyMemory(dst, src, int(length))
}
