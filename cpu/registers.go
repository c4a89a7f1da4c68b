package cpu

import "golang.org/x/arch/x86/x86asm"

// regInfo describes how a named x86asm register operand maps onto the
// 64-bit root register the register file actually stores.
type regInfo struct {
	root  x86asm.Reg
	width uint
	shift uint // bit offset of this sub-register within root
}

var regTable = map[x86asm.Reg]regInfo{
	x86asm.RAX: {x86asm.RAX, 64, 0}, x86asm.EAX: {x86asm.RAX, 32, 0}, x86asm.AX: {x86asm.RAX, 16, 0}, x86asm.AL: {x86asm.RAX, 8, 0}, x86asm.AH: {x86asm.RAX, 8, 8},
	x86asm.RBX: {x86asm.RBX, 64, 0}, x86asm.EBX: {x86asm.RBX, 32, 0}, x86asm.BX: {x86asm.RBX, 16, 0}, x86asm.BL: {x86asm.RBX, 8, 0}, x86asm.BH: {x86asm.RBX, 8, 8},
	x86asm.RCX: {x86asm.RCX, 64, 0}, x86asm.ECX: {x86asm.RCX, 32, 0}, x86asm.CX: {x86asm.RCX, 16, 0}, x86asm.CL: {x86asm.RCX, 8, 0}, x86asm.CH: {x86asm.RCX, 8, 8},
	x86asm.RDX: {x86asm.RDX, 64, 0}, x86asm.EDX: {x86asm.RDX, 32, 0}, x86asm.DX: {x86asm.RDX, 16, 0}, x86asm.DL: {x86asm.RDX, 8, 0}, x86asm.DH: {x86asm.RDX, 8, 8},
	x86asm.RSI: {x86asm.RSI, 64, 0}, x86asm.ESI: {x86asm.RSI, 32, 0}, x86asm.SI: {x86asm.RSI, 16, 0}, x86asm.SIL: {x86asm.RSI, 8, 0},
	x86asm.RDI: {x86asm.RDI, 64, 0}, x86asm.EDI: {x86asm.RDI, 32, 0}, x86asm.DI: {x86asm.RDI, 16, 0}, x86asm.DIL: {x86asm.RDI, 8, 0},
	x86asm.RBP: {x86asm.RBP, 64, 0}, x86asm.EBP: {x86asm.RBP, 32, 0}, x86asm.BP: {x86asm.RBP, 16, 0}, x86asm.BPL: {x86asm.RBP, 8, 0},
	x86asm.RSP: {x86asm.RSP, 64, 0}, x86asm.ESP: {x86asm.RSP, 32, 0}, x86asm.SP: {x86asm.RSP, 16, 0}, x86asm.SPL: {x86asm.RSP, 8, 0},
	x86asm.R8: {x86asm.R8, 64, 0}, x86asm.R8L: {x86asm.R8, 8, 0}, x86asm.R8W: {x86asm.R8, 16, 0}, x86asm.R8D: {x86asm.R8, 32, 0},
	x86asm.R9: {x86asm.R9, 64, 0}, x86asm.R9L: {x86asm.R9, 8, 0}, x86asm.R9W: {x86asm.R9, 16, 0}, x86asm.R9D: {x86asm.R9, 32, 0},
	x86asm.R10: {x86asm.R10, 64, 0}, x86asm.R10L: {x86asm.R10, 8, 0}, x86asm.R10W: {x86asm.R10, 16, 0}, x86asm.R10D: {x86asm.R10, 32, 0},
	x86asm.R11: {x86asm.R11, 64, 0}, x86asm.R11L: {x86asm.R11, 8, 0}, x86asm.R11W: {x86asm.R11, 16, 0}, x86asm.R11D: {x86asm.R11, 32, 0},
	x86asm.R12: {x86asm.R12, 64, 0}, x86asm.R12L: {x86asm.R12, 8, 0}, x86asm.R12W: {x86asm.R12, 16, 0}, x86asm.R12D: {x86asm.R12, 32, 0},
	x86asm.R13: {x86asm.R13, 64, 0}, x86asm.R13L: {x86asm.R13, 8, 0}, x86asm.R13W: {x86asm.R13, 16, 0}, x86asm.R13D: {x86asm.R13, 32, 0},
	x86asm.R14: {x86asm.R14, 64, 0}, x86asm.R14L: {x86asm.R14, 8, 0}, x86asm.R14W: {x86asm.R14, 16, 0}, x86asm.R14D: {x86asm.R14, 32, 0},
	x86asm.R15: {x86asm.R15, 64, 0}, x86asm.R15L: {x86asm.R15, 8, 0}, x86asm.R15W: {x86asm.R15, 16, 0}, x86asm.R15D: {x86asm.R15, 32, 0},
	x86asm.RIP: {x86asm.RIP, 64, 0}, x86asm.EIP: {x86asm.RIP, 32, 0},
}

// GPRegisters lists the sixteen general-purpose 64-bit roots followed by
// rip, in the order registers are conventionally printed.
var GPRegisters = []x86asm.Reg{
	x86asm.RAX, x86asm.RBX, x86asm.RCX, x86asm.RDX, x86asm.RSI, x86asm.RDI,
	x86asm.RBP, x86asm.RSP, x86asm.R8, x86asm.R9, x86asm.R10, x86asm.R11,
	x86asm.R12, x86asm.R13, x86asm.R14, x86asm.R15, x86asm.RIP,
}

// XMMRegisters lists the sixteen 128-bit XMM registers, xmm0..xmm15, in
// order. No instruction semantics touch them — floating point is out of
// scope — so they carry only a symbolic overlay, never a concrete shadow.
var XMMRegisters = []x86asm.Reg{
	x86asm.X0, x86asm.X1, x86asm.X2, x86asm.X3, x86asm.X4, x86asm.X5,
	x86asm.X6, x86asm.X7, x86asm.X8, x86asm.X9, x86asm.X10, x86asm.X11,
	x86asm.X12, x86asm.X13, x86asm.X14, x86asm.X15,
}

// regSlot holds one 64-bit root register: a concrete value always present,
// and an optional symbolic expression overlaying it.
type regSlot struct {
	concrete uint64
	symbolic *Node // nil when concrete
}

// RegisterFile is the dual concrete/symbolic register plane.
type RegisterFile struct {
	slots map[x86asm.Reg]*regSlot
	xmm   map[x86asm.Reg]*Node
}

func newRegisterFile() *RegisterFile {
	rf := &RegisterFile{
		slots: make(map[x86asm.Reg]*regSlot),
		xmm:   make(map[x86asm.Reg]*Node),
	}
	for _, r := range GPRegisters {
		rf.slots[r] = &regSlot{}
	}
	for _, r := range XMMRegisters {
		rf.xmm[r] = Bv(128, 0)
	}
	return rf
}

// SymbolizeXMM overlays reg (an XMM register) with a fresh width-128
// variable node.
func (rf *RegisterFile) SymbolizeXMM(reg x86asm.Reg, expr *Node) { rf.xmm[reg] = expr }

func (rf *RegisterFile) IsXMMSymbolized(reg x86asm.Reg) bool {
	n, ok := rf.xmm[reg]
	return ok && len(Vars(n)) > 0
}

func (rf *RegisterFile) GetXMMExpression(reg x86asm.Reg) *Node {
	if n, ok := rf.xmm[reg]; ok {
		return n
	}
	return Bv(128, 0)
}

func (rf *RegisterFile) slot(reg x86asm.Reg) (*regSlot, regInfo, bool) {
	info, ok := regTable[reg]
	if !ok {
		return nil, regInfo{}, false
	}
	s, ok := rf.slots[info.root]
	return s, info, ok
}

// GetConcrete returns the concrete value currently held in reg, shifted
// down and masked to the sub-register's width. It does not report whether
// the register is symbolic; use IsSymbolized for that.
func (rf *RegisterFile) GetConcrete(reg x86asm.Reg) uint64 {
	s, info, ok := rf.slot(reg)
	if !ok {
		return 0
	}
	return (s.concrete >> info.shift) & mask(info.width)
}

// SetConcrete writes val into the sub-register addressed by reg, preserving
// the other bits of its 64-bit root, and clears any symbolic overlay on the
// whole root (matching Triton's "concrete write clobbers taint" behavior
// for writes that are not explicitly symbolized afterward).
func (rf *RegisterFile) SetConcrete(reg x86asm.Reg, val uint64) {
	s, info, ok := rf.slot(reg)
	if !ok {
		return
	}
	cleared := s.concrete &^ (mask(info.width) << info.shift)
	s.concrete = cleared | ((val & mask(info.width)) << info.shift)
	s.symbolic = nil
}

// IsSymbolized reports whether reg's root register currently carries a
// symbolic expression.
func (rf *RegisterFile) IsSymbolized(reg x86asm.Reg) bool {
	s, _, ok := rf.slot(reg)
	return ok && s.symbolic != nil
}

// Symbolize overlays reg's root register with expr, a full-width symbolic
// expression for the root (§4.2 construction symbolizes whole registers,
// never partial ones, matching the reference engine).
func (rf *RegisterFile) Symbolize(reg x86asm.Reg, expr *Node) {
	s, info, ok := rf.slot(reg)
	if !ok {
		return
	}
	_ = info
	s.symbolic = expr
}

// GetExpression returns the AST for reg: either its symbolic overlay, or a
// constant node carrying its concrete value if untainted.
func (rf *RegisterFile) GetExpression(reg x86asm.Reg) *Node {
	s, info, ok := rf.slot(reg)
	if !ok {
		return Bv(64, 0)
	}
	if s.symbolic != nil {
		if s.symbolic.Width == info.width {
			return s.symbolic
		}
		return Extract(info.shift+info.width-1, info.shift, s.symbolic)
	}
	return Bv(info.width, rf.GetConcrete(reg))
}

// SetExpression writes the result of evaluating an instruction's semantics
// into reg: if node still references free variables, reg becomes symbolic
// (overlaid with node) while its concrete shadow tracks node's value under
// the zero assignment; otherwise reg becomes a plain concrete value.
func (rf *RegisterFile) SetExpression(reg x86asm.Reg, node *Node) {
	s, info, ok := rf.slot(reg)
	if !ok {
		return
	}
	val := Evaluate(node, nil) & mask(info.width)
	cleared := s.concrete &^ (mask(info.width) << info.shift)
	s.concrete = cleared | (val << info.shift)
	if len(Vars(node)) == 0 {
		s.symbolic = nil
		return
	}
	if info.width == 64 {
		s.symbolic = node
		return
	}
	// Sub-register symbolic write: rebuild a full-width root expression so
	// GetExpression's later Extract keeps working uniformly.
	lo := Bv(info.shift, 0)
	if info.shift > 0 {
		lo = Extract(info.shift-1, 0, rf.GetExpression(info.root))
	}
	hi := Bv(64-info.shift-info.width, 0)
	if info.shift+info.width < 64 {
		hi = Extract(63, info.shift+info.width, rf.GetExpression(info.root))
	}
	full := node
	if info.shift+info.width < 64 {
		full = Concat(hi, full)
	}
	if info.shift > 0 {
		full = Concat(full, lo)
	}
	s.symbolic = full
}
