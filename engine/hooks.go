package engine

import "github.com/koi-go/koi/cpu"

// InsnHook runs each time the engine has processed the instruction at the
// address it was registered for, with that program counter and the decoded
// instruction available. It observes state after the instruction has taken
// effect and may mutate it before exploration continues, e.g. to trace
// execution.
type InsnHook func(s *Swimmer, pc uint64, ins *cpu.Instruction)

// FuncHook elides a call: instead of stepping into the callee, the engine
// invokes the hook with the call site address and uses its return value
// as rax after the call returns, exactly as if the callee had run and
// returned that value. This is how bait's malloc/free/strcpy/etc. models
// work, and how a CTF target function can be skipped entirely.
type FuncHook func(s *Swimmer, callSite uint64) uint64

// hookTable holds per-instance hook registrations — never package-level
// globals, so two Swimmers in the same process never see each other's
// hooks.
type hookTable struct {
	insn map[uint64][]InsnHook
	fn   map[uint64][]FuncHook
}

func newHookTable() *hookTable {
	return &hookTable{insn: make(map[uint64][]InsnHook), fn: make(map[uint64][]FuncHook)}
}

// HookInstruction registers hook to run whenever execution reaches addr.
func (s *Swimmer) HookInstruction(addr uint64, hook InsnHook) {
	s.hooks.insn[addr] = append(s.hooks.insn[addr], hook)
}

// HookFunction registers hook to elide any call whose target is addr, in
// addition to any hook already registered there.
func (s *Swimmer) HookFunction(addr uint64, hook FuncHook) {
	s.hooks.fn[addr] = append(s.hooks.fn[addr], hook)
}
