package cpu

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// Context is the CPU-semantic collaborator: the dual concrete/symbolic
// register and memory planes, a decoder, and the bounded solver, all bound
// together. The engine package drives a Context one instruction at a time
// and owns everything about control flow (branch targets, call elision,
// forking) that sits above single-instruction semantics.
type Context struct {
	Registers *RegisterFile
	Memory    *Memory
	Flags     *Flags
}

func NewContext() *Context {
	return &Context{
		Registers: newRegisterFile(),
		Memory:    newMemory(),
		Flags:     newFlags(),
	}
}

// --- registers ---

func (ctx *Context) GetConcreteRegisterValue(reg x86asm.Reg) uint64 {
	return ctx.Registers.GetConcrete(reg)
}

func (ctx *Context) SetConcreteRegisterValue(reg x86asm.Reg, val uint64) {
	ctx.Registers.SetConcrete(reg, val)
}

func (ctx *Context) IsRegisterSymbolized(reg x86asm.Reg) bool {
	return ctx.Registers.IsSymbolized(reg)
}

func (ctx *Context) SymbolizeRegister(reg x86asm.Reg, name string) *Variable {
	v := &Variable{Name: name, Width: regWidth(reg)}
	ctx.Registers.Symbolize(reg, VarNode(v))
	return v
}

func (ctx *Context) GetSymbolicRegisterExpression(reg x86asm.Reg) *Node {
	return ctx.Registers.GetExpression(reg)
}

// --- XMM ---
//
// No instruction semantics touch these: floating point is out of scope.
// They exist only so construction-time symbolization covers every register
// the reference engine symbolizes, per xmm0..xmm15.

func (ctx *Context) SymbolizeXMMRegister(reg x86asm.Reg, name string) *Variable {
	v := &Variable{Name: name, Width: 128}
	ctx.Registers.SymbolizeXMM(reg, VarNode(v))
	return v
}

func (ctx *Context) IsXMMSymbolized(reg x86asm.Reg) bool {
	return ctx.Registers.IsXMMSymbolized(reg)
}

func (ctx *Context) GetXMMExpression(reg x86asm.Reg) *Node {
	return ctx.Registers.GetXMMExpression(reg)
}

// --- memory ---

func (ctx *Context) ReadMemory(addr uint64, size int) uint64 {
	return ctx.Memory.ReadConcrete(addr, size)
}

func (ctx *Context) WriteMemory(addr uint64, size int, val uint64) {
	ctx.Memory.WriteConcrete(addr, size, val)
}

func (ctx *Context) IsConcreteMemoryValueDefined(addr uint64, size int) bool {
	return ctx.Memory.IsDefined(addr, size)
}

func (ctx *Context) IsMemorySymbolized(addr uint64, size int) bool {
	return ctx.Memory.IsSymbolized(addr, size)
}

// SymbolizeMemory overlays [addr, addr+size) with one fresh byte variable
// per byte, named via nameAt(i) for the i-th byte (i from 0), and returns
// them in address order.
func (ctx *Context) SymbolizeMemory(addr uint64, size int, nameAt func(i int) string) []*Variable {
	vars := make([]*Variable, size)
	for i := 0; i < size; i++ {
		vars[i] = ctx.Memory.SymbolizeByte(addr+uint64(i), nameAt(i))
	}
	return vars
}

func (ctx *Context) GetMemoryExpression(addr uint64, size int) *Node {
	return ctx.Memory.GetExpression(addr, size)
}

// CopyMemory copies size bytes from src to dst, byte by byte, preserving
// whichever of {concrete value, symbolic expression} each source byte
// carries — a symbolic byte's destination shares its expression (and so,
// transitively, any constraint already recorded over the variables it
// references) rather than becoming a fresh unconstrained variable.
func (ctx *Context) CopyMemory(dst, src uint64, size int) {
	for i := 0; i < size; i++ {
		ctx.Memory.SetByteExpression(dst+uint64(i), ctx.Memory.GetByteExpression(src+uint64(i)))
	}
}

// --- disassembly ---

// FetchCode copies up to 15 bytes (the longest possible x86-64 instruction)
// starting at addr out of concrete memory, regardless of definedness —
// callers that care whether bytes were ever written should check
// IsConcreteMemoryValueDefined(addr, 1) first, per the engine's "Undefined"
// stop condition (§4.2/§7).
func (ctx *Context) FetchCode(addr uint64) []byte {
	buf := make([]byte, 15)
	for i := range buf {
		if c, ok := ctx.Memory.cells[addr+uint64(i)]; ok {
			buf[i] = c.value
		}
	}
	return buf
}

func (ctx *Context) Disassemble(addr uint64) (*Instruction, error) {
	return Decode(ctx.FetchCode(addr), addr)
}

// --- solver ---

func (ctx *Context) GetModel(constraints []*Node) (map[string]uint64, bool) {
	return solve(constraints, 1)
}

func (ctx *Context) GetModels(constraints []*Node, limit int) []map[string]uint64 {
	return solveAll(constraints, limit)
}

func (ctx *Context) Process(ins *Instruction) error {
	return ctx.execute(ins)
}

func (ctx *Context) String() string {
	return fmt.Sprintf("rip=0x%x rax=0x%x rsp=0x%x", ctx.GetConcreteRegisterValue(x86asm.RIP),
		ctx.GetConcreteRegisterValue(x86asm.RAX), ctx.GetConcreteRegisterValue(x86asm.RSP))
}
