package cpu

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// Instruction is a decoded x86-64 instruction at a concrete address.
type Instruction struct {
	Address uint64
	Len     int
	Inst    x86asm.Inst

	// Exprs accumulates the symbolic side effects Process attached while
	// executing this instruction, in the order they were produced — the
	// instruction's "symbolic expression list" (§6.2).
	Exprs []*Node

	// Injected marks an instruction substituted in by
	// Swimmer.InjectInstruction/InjectJumpCondition. A conditional jump
	// with Injected set carries its branch predicate pre-built in Exprs;
	// Process uses it as-is instead of deriving a condition from flags.
	Injected bool
}

func (ins *Instruction) String() string {
	return fmt.Sprintf("0x%x: %s", ins.Address, x86asm.GNUSyntax(ins.Inst, ins.Address, nil))
}

func (ins *Instruction) NextAddress() uint64 { return ins.Address + uint64(ins.Len) }

func (ins *Instruction) IsBranch() bool {
	switch ins.Inst.Op {
	case x86asm.JMP, x86asm.JA, x86asm.JAE, x86asm.JB, x86asm.JBE, x86asm.JE, x86asm.JG,
		x86asm.JGE, x86asm.JL, x86asm.JLE, x86asm.JNE, x86asm.JNO, x86asm.JNP, x86asm.JNS,
		x86asm.JO, x86asm.JP, x86asm.JS, x86asm.JCXZ, x86asm.JECXZ, x86asm.JRCXZ,
		x86asm.CALL, x86asm.RET:
		return true
	default:
		return false
	}
}

func (ins *Instruction) IsConditionalJump() bool {
	switch ins.Inst.Op {
	case x86asm.JA, x86asm.JAE, x86asm.JB, x86asm.JBE, x86asm.JE, x86asm.JG, x86asm.JGE,
		x86asm.JL, x86asm.JLE, x86asm.JNE, x86asm.JNO, x86asm.JNP, x86asm.JNS, x86asm.JO,
		x86asm.JP, x86asm.JS, x86asm.JCXZ, x86asm.JECXZ, x86asm.JRCXZ:
		return true
	default:
		return false
	}
}

func (ins *Instruction) IsJmp() bool  { return ins.Inst.Op == x86asm.JMP }
func (ins *Instruction) IsCall() bool { return ins.Inst.Op == x86asm.CALL }
func (ins *Instruction) IsRet() bool  { return ins.Inst.Op == x86asm.RET }
func (ins *Instruction) IsHlt() bool  { return ins.Inst.Op == x86asm.HLT }
func (ins *Instruction) IsLea() bool  { return ins.Inst.Op == x86asm.LEA }
func (ins *Instruction) IsSub() bool  { return ins.Inst.Op == x86asm.SUB }

// Operand returns the i-th argument of the instruction, normalized.
func (ins *Instruction) Operand(i int) Operand {
	if i < 0 || i >= len(ins.Inst.Args) || ins.Inst.Args[i] == nil {
		return Operand{Kind: OperandNone}
	}
	return classify(ins.Inst.Args[i], uint(ins.Inst.MemBytes)*8)
}
