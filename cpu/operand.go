package cpu

import "golang.org/x/arch/x86/x86asm"

// OperandKind classifies a decoded operand.
type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandReg
	OperandImm
	OperandMem
	OperandRel
)

// Operand is a normalized view over one x86asm.Arg.
type Operand struct {
	Kind  OperandKind
	Reg   x86asm.Reg
	Imm   int64
	Mem   x86asm.Mem
	Rel   int64
	Width uint // bits
}

func classify(arg x86asm.Arg, width uint) Operand {
	switch a := arg.(type) {
	case x86asm.Reg:
		return Operand{Kind: OperandReg, Reg: a, Width: regWidth(a)}
	case x86asm.Imm:
		return Operand{Kind: OperandImm, Imm: int64(a), Width: width}
	case x86asm.Mem:
		return Operand{Kind: OperandMem, Mem: a, Width: width}
	case x86asm.Rel:
		return Operand{Kind: OperandRel, Rel: int64(a), Width: 64}
	default:
		return Operand{Kind: OperandNone}
	}
}

func regWidth(r x86asm.Reg) uint {
	if info, ok := regTable[r]; ok {
		return info.width
	}
	return 64
}

// EffectiveAddress computes base + index*scale + disp for a memory operand,
// reading base/index concretely from rf. This does not account for
// symbolic base/index registers beyond their current concrete value, which
// matches the reference engine's pragmatic, concretized-address-computation
// approach (memory accesses through a symbolic pointer still resolve via
// its current concrete value; only the VALUE read/written may be symbolic).
func EffectiveAddress(m x86asm.Mem, rf *RegisterFile) uint64 {
	var addr uint64
	if m.Base != 0 {
		addr += rf.GetConcrete(m.Base)
	}
	if m.Index != 0 {
		addr += rf.GetConcrete(m.Index) * uint64(m.Scale)
	}
	addr += uint64(m.Disp)
	return addr
}
