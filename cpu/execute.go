package cpu

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

func (ctx *Context) operandWidth(op Operand) uint {
	if op.Width != 0 {
		return op.Width
	}
	return 64
}

// readOperand builds the symbolic/concrete expression an operand currently
// holds.
func (ctx *Context) readOperand(op Operand) *Node {
	switch op.Kind {
	case OperandImm:
		return Bv(ctx.operandWidth(op), uint64(op.Imm))
	case OperandReg:
		return ctx.Registers.GetExpression(op.Reg)
	case OperandMem:
		addr := EffectiveAddress(op.Mem, ctx.Registers)
		return ctx.Memory.GetExpression(addr, int(ctx.operandWidth(op))/8)
	default:
		return Bv(64, 0)
	}
}

// writeOperand stores node into a register or memory destination operand.
func (ctx *Context) writeOperand(op Operand, node *Node) {
	switch op.Kind {
	case OperandReg:
		ctx.Registers.SetExpression(op.Reg, node)
	case OperandMem:
		addr := EffectiveAddress(op.Mem, ctx.Registers)
		ctx.Memory.SetExpression(addr, int(ctx.operandWidth(op))/8, node)
	}
}

// memAddr resolves a memory operand to a concrete effective address.
func (ctx *Context) memAddr(op Operand) uint64 {
	return EffectiveAddress(op.Mem, ctx.Registers)
}

// execute performs ins's semantics: register/memory reads, writes, flag
// updates, and the rip update. Ordinary instructions set rip to the linear
// fallthrough address; jmp and call set it to their target (call also
// pushes the return address), ret pops it from the stack, and a
// conditional jump sets rip to an ITE over its taken and fallthrough
// addresses. Whether to fork on a symbolic condition, and call elision,
// are left to the engine.
func (ctx *Context) execute(ins *Instruction) error {
	a := ins.Operand(0)
	b := ins.Operand(1)
	w := ctx.operandWidth(a)

	switch ins.Inst.Op {
	case x86asm.MOV, x86asm.MOVZX, x86asm.MOVSX, x86asm.MOVSXD:
		src := ctx.readOperand(b)
		ins.Exprs = append(ins.Exprs, src)
		ctx.writeOperand(a, ZeroExt(w, src))

	case x86asm.LEA:
		addr := ctx.memAddr(b)
		node := Bv(w, addr)
		ins.Exprs = append(ins.Exprs, node)
		ctx.writeOperand(a, node)

	case x86asm.PUSH:
		sp := ctx.Registers.GetConcrete(x86asm.RSP) - 8
		ctx.Registers.SetConcrete(x86asm.RSP, sp)
		val := ctx.readOperand(a)
		ins.Exprs = append(ins.Exprs, val)
		ctx.Memory.SetExpression(sp, 8, ZeroExt(64, val))

	case x86asm.POP:
		sp := ctx.Registers.GetConcrete(x86asm.RSP)
		val := ctx.Memory.GetExpression(sp, 8)
		ins.Exprs = append(ins.Exprs, val)
		ctx.writeOperand(a, val)
		ctx.Registers.SetConcrete(x86asm.RSP, sp+8)

	case x86asm.ADD:
		av, bv := ctx.readOperand(a), ctx.readOperand(b)
		res := Add(av, bv)
		ctx.Flags.updateArith(w, av, bv, res, false)
		ins.Exprs = append(ins.Exprs, res)
		ctx.writeOperand(a, res)

	case x86asm.SUB, x86asm.CMP:
		av, bv := ctx.readOperand(a), ctx.readOperand(b)
		res := Sub(av, bv)
		ctx.Flags.updateArith(w, av, bv, res, true)
		ins.Exprs = append(ins.Exprs, res)
		if ins.Inst.Op == x86asm.SUB {
			ctx.writeOperand(a, res)
		}

	case x86asm.AND, x86asm.TEST:
		av, bv := ctx.readOperand(a), ctx.readOperand(b)
		res := And(av, bv)
		ctx.Flags.updateLogic(w, res)
		ins.Exprs = append(ins.Exprs, res)
		if ins.Inst.Op == x86asm.AND {
			ctx.writeOperand(a, res)
		}

	case x86asm.OR:
		av, bv := ctx.readOperand(a), ctx.readOperand(b)
		res := Or(av, bv)
		ctx.Flags.updateLogic(w, res)
		ins.Exprs = append(ins.Exprs, res)
		ctx.writeOperand(a, res)

	case x86asm.XOR:
		av, bv := ctx.readOperand(a), ctx.readOperand(b)
		res := Xor(av, bv)
		ctx.Flags.updateLogic(w, res)
		ins.Exprs = append(ins.Exprs, res)
		ctx.writeOperand(a, res)

	case x86asm.INC:
		av := ctx.readOperand(a)
		res := Add(av, Bv(w, 1))
		ins.Exprs = append(ins.Exprs, res)
		ctx.writeOperand(a, res)

	case x86asm.DEC:
		av := ctx.readOperand(a)
		res := Sub(av, Bv(w, 1))
		ins.Exprs = append(ins.Exprs, res)
		ctx.writeOperand(a, res)

	case x86asm.NOP, x86asm.HLT:
		// no register/memory effect; the engine checks IsHlt() itself once
		// Process returns to decide whether to stop the loop.

	case x86asm.JMP:
		target, _ := ctx.BranchTarget(ins)
		ctx.Registers.SetConcrete(x86asm.RIP, target)
		return nil

	case x86asm.JA, x86asm.JAE, x86asm.JB, x86asm.JBE, x86asm.JE, x86asm.JG, x86asm.JGE,
		x86asm.JL, x86asm.JLE, x86asm.JNE, x86asm.JNO, x86asm.JNP, x86asm.JNS, x86asm.JO,
		x86asm.JP, x86asm.JS, x86asm.JCXZ, x86asm.JECXZ, x86asm.JRCXZ:
		var ite *Node
		if ins.Injected && len(ins.Exprs) > 0 {
			ite = ins.Exprs[len(ins.Exprs)-1]
		} else {
			cond := ctx.ConditionExpr(ins)
			target, _ := ctx.BranchTarget(ins)
			ite = Ite(cond, Bv(64, target), Bv(64, ins.NextAddress()))
			ins.Exprs = append(ins.Exprs, ite)
		}
		ctx.Registers.SetExpression(x86asm.RIP, ite)
		return nil

	case x86asm.CALL:
		target, _ := ctx.BranchTarget(ins)
		retAddr := ins.NextAddress()
		sp := ctx.Registers.GetConcrete(x86asm.RSP) - 8
		ctx.Registers.SetConcrete(x86asm.RSP, sp)
		ctx.Memory.WriteConcrete(sp, 8, retAddr)
		ctx.Registers.SetConcrete(x86asm.RIP, target)
		return nil

	case x86asm.RET:
		sp := ctx.Registers.GetConcrete(x86asm.RSP)
		retAddr := ctx.Memory.ReadConcrete(sp, 8)
		ctx.Registers.SetConcrete(x86asm.RSP, sp+8)
		ctx.Registers.SetConcrete(x86asm.RIP, retAddr)
		return nil

	default:
		return fmt.Errorf("cpu: unmodeled opcode %s at 0x%x", ins.Inst.Op, ins.Address)
	}

	ctx.Registers.SetConcrete(x86asm.RIP, ins.NextAddress())
	return nil
}

// ConditionExpr returns the boolean node for a conditional jump's
// condition, or nil if ins is not a conditional jump.
func (ctx *Context) ConditionExpr(ins *Instruction) *Node {
	switch ins.Inst.Op {
	case x86asm.JE:
		return ctx.Flags.Get(FlagZF)
	case x86asm.JNE:
		return Not(ctx.Flags.Get(FlagZF))
	case x86asm.JS:
		return ctx.Flags.Get(FlagSF)
	case x86asm.JNS:
		return Not(ctx.Flags.Get(FlagSF))
	case x86asm.JA:
		return And(Not(ctx.Flags.Get(FlagCF)), Not(ctx.Flags.Get(FlagZF)))
	case x86asm.JBE:
		return Or(ctx.Flags.Get(FlagCF), ctx.Flags.Get(FlagZF))
	case x86asm.JAE:
		return Not(ctx.Flags.Get(FlagCF))
	case x86asm.JB:
		return ctx.Flags.Get(FlagCF)
	case x86asm.JG:
		return And(Not(ctx.Flags.Get(FlagZF)), Equal(ctx.Flags.Get(FlagSF), ctx.Flags.Get(FlagOF)))
	case x86asm.JGE:
		return Equal(ctx.Flags.Get(FlagSF), ctx.Flags.Get(FlagOF))
	case x86asm.JL:
		return Distinct(ctx.Flags.Get(FlagSF), ctx.Flags.Get(FlagOF))
	case x86asm.JLE:
		return Or(ctx.Flags.Get(FlagZF), Distinct(ctx.Flags.Get(FlagSF), ctx.Flags.Get(FlagOF)))
	case x86asm.JO:
		return ctx.Flags.Get(FlagOF)
	case x86asm.JNO:
		return Not(ctx.Flags.Get(FlagOF))
	case x86asm.JP:
		return ctx.Flags.Get(FlagPF)
	case x86asm.JNP:
		return Not(ctx.Flags.Get(FlagPF))
	case x86asm.JCXZ, x86asm.JECXZ, x86asm.JRCXZ:
		return Equal(ctx.Registers.GetExpression(x86asm.RCX), Bv(ctx.Registers.GetExpression(x86asm.RCX).Width, 0))
	default:
		return nil
	}
}

// BranchTarget returns the destination of a jmp/jcc/call: the encoded
// target of a direct transfer, or the current concrete value of the
// register or memory operand of an indirect one. The bool is false when
// that operand is symbolic (the value returned is then its concrete
// shadow) or when the operand is not a branch target at all.
func (ctx *Context) BranchTarget(ins *Instruction) (uint64, bool) {
	op := ins.Operand(0)
	switch op.Kind {
	case OperandRel:
		return uint64(int64(ins.NextAddress()) + op.Rel), true
	case OperandImm:
		return uint64(op.Imm), true
	case OperandReg:
		return ctx.Registers.GetConcrete(op.Reg), !ctx.Registers.IsSymbolized(op.Reg)
	case OperandMem:
		addr := ctx.memAddr(op)
		return ctx.Memory.ReadConcrete(addr, 8), !ctx.Memory.IsSymbolized(addr, 8)
	default:
		return 0, false
	}
}
