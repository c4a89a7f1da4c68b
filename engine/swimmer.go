package engine

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/arch/x86/x86asm"

	"github.com/koi-go/koi/cpu"
	"github.com/koi-go/koi/loader"
)

// flagVarNames gives the stable symbolization names for the flags
// construction symbolizes.
var flagVarNames = map[uint]string{
	cpu.FlagCF: "cf", cpu.FlagPF: "pf", cpu.FlagZF: "zf", cpu.FlagSF: "sf",
	cpu.FlagTF: "tf", cpu.FlagOF: "of",
}

// Swimmer is the integrating engine: the symbolic context wrapper that
// orchestrates exploration over a cpu.Context. It owns path constraints,
// the heap table, the stackframe stack, hook tables, injected
// instructions, visit counts, and verbosity flags — no process-wide
// singletons, so two Swimmers in the same process never interfere.
type Swimmer struct {
	CPU         *cpu.Context
	Heap        *Heap
	Frames      []*Stackframe
	Constraints []*cpu.Node
	DeadEnds    map[uint64]bool
	Injected    map[uint64]*cpu.Instruction
	Out         io.Writer
	Verbosity   Verbosity
	Stats       Stats

	hooks  *hookTable
	visits map[uint64]int
	depth  int
	fid    int
}

// New constructs a Swimmer over img (may be nil for a from-scratch, purely
// synthetic memory image built by the caller). Construction symbolizes the
// full general-purpose register file, condition flags (cf, pf, zf, sf, tf,
// of), and xmm0..xmm15 with stable names, starts rip at 0 and rbp/rsp at
// the top of the stack window, pushes an initial zero-sized frame there,
// and copies every non-".plt.sec" section of img into concrete memory at
// section.base + ELFLoadBias.
func New(img *loader.Image) *Swimmer {
	ctx := cpu.NewContext()
	s := &Swimmer{
		CPU:      ctx,
		Heap:     NewHeap(),
		DeadEnds: make(map[uint64]bool),
		Injected: make(map[uint64]*cpu.Instruction),
		Out:      os.Stdout,
		hooks:    newHookTable(),
		visits:   make(map[uint64]int),
	}

	ctx.SetConcreteRegisterValue(x86asm.RIP, 0)
	ctx.SetConcreteRegisterValue(x86asm.RBP, StackHigh)
	ctx.SetConcreteRegisterValue(x86asm.RSP, StackHigh)
	for _, r := range cpu.GPRegisters {
		if r == x86asm.RIP {
			continue
		}
		ctx.SymbolizeRegister(r, fmt.Sprintf("reg_%s", r))
	}
	for bit, name := range flagVarNames {
		ctx.Flags.Set(bit, cpu.VarNode(&cpu.Variable{Name: name, Width: 1}))
	}
	for i, r := range cpu.XMMRegisters {
		ctx.SymbolizeXMMRegister(r, fmt.Sprintf("xmm%d", i))
	}

	s.Frames = append(s.Frames, NewStackframe(StackHigh, 0))

	if img != nil {
		for _, sec := range img.Sections {
			if sec.Name == ".plt.sec" {
				continue
			}
			base := sec.Base + ELFLoadBias
			for i, b := range sec.Bytes {
				ctx.WriteMemory(base+uint64(i), 1, uint64(b))
			}
		}
	}
	return s
}

// SetPC assigns the program counter, the starting point for the next
// Explore call.
func (s *Swimmer) SetPC(addr uint64) {
	s.CPU.SetConcreteRegisterValue(x86asm.RIP, addr)
}

func (s *Swimmer) topFrame() *Stackframe { return s.Frames[len(s.Frames)-1] }

func (s *Swimmer) pushFrame() { s.Frames = append(s.Frames, NewStackframe(0, 0)) }

func (s *Swimmer) popFrame() {
	if len(s.Frames) > 1 {
		s.Frames = s.Frames[:len(s.Frames)-1]
	}
}

func (s *Swimmer) log(v Verbosity, format string, args ...any) {
	if !s.Verbosity.Has(v) {
		return
	}
	fmt.Fprintf(s.Out, format+"\n", args...)
}

// Explore performs a depth-first, recursive descent from the current rip,
// returning true iff it reaches target (0 means "explore everything",
// i.e. run until some other stopping rule fires). maxVisits (0 =
// unlimited) caps how many times any single address may be fetched;
// maxDepth (0 = unlimited) caps fork recursion depth.
//
// Ordering within one iteration is a public contract other components
// rely on (an InsnHook observing register state after the instruction has
// taken effect, for instance): execute, instruction hooks, target/dead-end
// check, stack bookkeeping, terminate checks, call elision, memory-read
// symbolization, branch fork.
func (s *Swimmer) Explore(target uint64, maxVisits, maxDepth int) bool {
	s.fid++
	s.depth++
	defer func() { s.depth-- }()

	for {
		pc := s.CPU.GetConcreteRegisterValue(x86asm.RIP)

		if maxVisits > 0 {
			s.visits[pc]++
			if s.visits[pc] > maxVisits {
				s.log(SV_STOPS, "exhausted: 0x%x visited too many times", pc)
				return false
			}
		}

		if !s.CPU.IsConcreteMemoryValueDefined(pc, 1) {
			s.log(SV_STOPS, "undefined: no bytes at 0x%x", pc)
			return false
		}

		ins, injected := s.Injected[pc]
		if !injected {
			decoded, err := s.CPU.Disassemble(pc)
			if err != nil {
				s.log(SV_STOPS, "undefined: %v", err)
				return false
			}
			ins = decoded
		}

		if err := s.CPU.Process(ins); err != nil {
			s.log(SV_STOPS, "undefined: %v", err)
			return false
		}
		s.Stats.recordInstruction()
		if s.Verbosity.Has(SV_INSN) {
			fmt.Fprintf(s.Out, "\033[36m%s\033[0m\n", ins.String())
		}
		if s.Verbosity.Has(SV_REGS) {
			fmt.Fprintf(s.Out, "%s\n", s.CPU.String())
		}

		for _, h := range s.hooks.insn[pc] {
			h(s, pc, ins)
			s.Stats.recordInsnHook()
		}

		if target != 0 && pc == target {
			return true
		}
		if s.DeadEnds[pc] {
			s.log(SV_STOPS, "dead end at 0x%x", pc)
			s.Stats.recordDeadEnd()
			return false
		}

		s.handleStackAllocation(ins)
		s.handleStackReference(ins)

		if ins.IsHlt() {
			s.log(SV_STOPS, "halt at 0x%x", pc)
			return false
		}
		if ins.IsRet() {
			if s.CPU.GetConcreteRegisterValue(x86asm.RIP) == 0 {
				s.log(SV_STOPS, "end of path at 0x%x", pc)
				return false
			}
			s.popFrame()
		}

		if ins.IsCall() && s.handleCall(ins, pc) {
			continue
		}

		if s.handleMemoryRead(ins, pc) {
			continue
		}

		if ins.IsConditionalJump() {
			if s.tryFork(ins, target, maxVisits, maxDepth) {
				return true
			}
		}
	}
}

// handleStackAllocation implements §4.4's allocation-detection rule: a
// "sub rsp, imm" with imm < 2^56 resizes the current frame to
// [rbp-imm, rbp) and symbolizes every byte in it.
func (s *Swimmer) handleStackAllocation(ins *cpu.Instruction) {
	if !ins.IsSub() {
		return
	}
	a, b := ins.Operand(0), ins.Operand(1)
	if a.Kind != cpu.OperandReg || a.Reg != x86asm.RSP || b.Kind != cpu.OperandImm {
		return
	}
	imm := uint64(b.Imm)
	if imm == 0 || imm >= (uint64(1)<<56) {
		return
	}
	rbp := s.CPU.GetConcreteRegisterValue(x86asm.RBP)
	base := rbp - imm
	s.topFrame().reset(base, imm)
	for i := uint64(0); i < imm; i++ {
		addr := base + i
		s.CPU.SymbolizeMemory(addr, 1, func(int) string {
			return fmt.Sprintf("stack_0x%x_0x%x[0x%x]", ins.Address, base, i)
		})
	}
	s.log(SV_STACK, "frame at 0x%x resized to 0x%x bytes (instruction 0x%x)", base, imm, ins.Address)
}

// handleStackReference implements §4.4's access-recording rule.
func (s *Swimmer) handleStackReference(ins *cpu.Instruction) {
	a, b := ins.Operand(0), ins.Operand(1)
	if a.Kind == cpu.OperandNone || b.Kind == cpu.OperandNone {
		return
	}
	for _, op := range [2]cpu.Operand{a, b} {
		if op.Kind == cpu.OperandMem && op.Mem.Base == x86asm.RBP {
			off := uint64(-op.Mem.Disp)
			s.topFrame().AddAccess(off)
		}
	}
}

// handleCall implements §4.3. dst is read from rip, which Process has
// already set to the call's destination.
func (s *Swimmer) handleCall(ins *cpu.Instruction, pc uint64) bool {
	dst := s.CPU.GetConcreteRegisterValue(x86asm.RIP)
	hooks := s.hooks.fn[dst]
	undefined := !s.CPU.IsConcreteMemoryValueDefined(dst, 1)
	if len(hooks) == 0 && !undefined {
		s.pushFrame()
		return false
	}
	for _, h := range hooks {
		ret := h(s, pc)
		s.CPU.SetConcreteRegisterValue(x86asm.RAX, ret)
		s.Stats.recordFuncHook()
	}
	sp := s.CPU.GetConcreteRegisterValue(x86asm.RSP) + 8
	s.CPU.SetConcreteRegisterValue(x86asm.RSP, sp)
	s.CPU.SetConcreteRegisterValue(x86asm.RIP, pc+uint64(ins.Len))
	return true
}

// handleMemoryRead implements §4.5: lazy symbolization of never-written
// memory a two-operand read or an rbp-based LEA touches.
func (s *Swimmer) handleMemoryRead(ins *cpu.Instruction, pc uint64) bool {
	a, b := ins.Operand(0), ins.Operand(1)
	reads := b.Kind == cpu.OperandMem && a.Kind != cpu.OperandNone
	leaFromRBP := ins.IsLea() && b.Kind == cpu.OperandMem && b.Mem.Base == x86asm.RBP
	if !reads && !leaFromRBP {
		return false
	}
	addr := cpu.EffectiveAddress(b.Mem, s.CPU.Registers)
	size := int(b.Width) / 8
	if size == 0 {
		size = 8
	}
	if s.CPU.IsConcreteMemoryValueDefined(addr, size) || s.CPU.IsMemorySymbolized(addr, size) {
		return false
	}
	name := fmt.Sprintf("stackMem<--0x%x", pc)
	s.CPU.SymbolizeMemory(addr, size, func(int) string { return name })
	if err := s.CPU.Process(ins); err != nil {
		s.log(SV_STOPS, "undefined: %v", err)
	}
	s.log(SV_SYMS, "symbolized %d byte(s) at 0x%x as %s", size, addr, name)
	return true
}

// tryFork implements §4.6. It returns true iff the jump-side descent
// reached target.
func (s *Swimmer) tryFork(ins *cpu.Instruction, target uint64, maxVisits, maxDepth int) bool {
	if len(ins.Exprs) == 0 {
		return false
	}
	ite := ins.Exprs[len(ins.Exprs)-1]
	if ite.Kind != cpu.KindIte || len(cpu.Vars(ite.Children[0])) == 0 {
		return false
	}
	cond := ite.Children[0]
	jumpDst := cpu.Evaluate(ite.Children[1], nil)
	fallDst := cpu.Evaluate(ite.Children[2], nil)

	ifConstraints := append(append([]*cpu.Node{}, s.Constraints...), cond)
	elseConstraints := append(append([]*cpu.Node{}, s.Constraints...), cpu.Not(cond))
	_, ifSat := s.CPU.GetModel(ifConstraints)
	_, elseSat := s.CPU.GetModel(elseConstraints)
	if !ifSat || !elseSat {
		s.log(SV_STOPS, "unsat branch at 0x%x, deferring to default resolution", ins.Address)
		return false
	}
	if maxDepth > 0 && s.depth >= maxDepth {
		s.log(SV_STOPS, "too deep at 0x%x", ins.Address)
		return false
	}

	s.Stats.recordFork()
	savedRBP := s.CPU.GetConcreteRegisterValue(x86asm.RBP)
	s.CPU.SetConcreteRegisterValue(x86asm.RIP, jumpDst)
	s.Constraints = append(s.Constraints, cond)
	s.log(SV_BRANCH, "fork at 0x%x: jump 0x%x / fall 0x%x", ins.Address, jumpDst, fallDst)

	if s.Explore(target, maxVisits, maxDepth) {
		return true
	}

	s.Constraints = s.Constraints[:len(s.Constraints)-1]
	s.CPU.SetConcreteRegisterValue(x86asm.RBP, savedRBP)
	s.CPU.SetConcreteRegisterValue(x86asm.RIP, fallDst)
	s.Constraints = append(s.Constraints, cpu.Not(cond))
	return false
}

// GetSatModel queries the collaborator for one assignment satisfying the
// conjunction of the current path constraints.
func (s *Swimmer) GetSatModel() map[string]uint64 {
	if len(s.Constraints) == 0 {
		return map[string]uint64{}
	}
	model, ok := s.CPU.GetModel(s.Constraints)
	if !ok {
		return map[string]uint64{}
	}
	return model
}

// GetSatModels is the bulk form of GetSatModel.
func (s *Swimmer) GetSatModels(limit int) []map[string]uint64 {
	return s.CPU.GetModels(s.Constraints, limit)
}

// ReadString reads concrete bytes from ptr until a NUL or an undefined
// byte is encountered.
func (s *Swimmer) ReadString(ptr uint64) []byte {
	var out []byte
	for i := uint64(0); ; i++ {
		addr := ptr + i
		if !s.CPU.IsConcreteMemoryValueDefined(addr, 1) {
			break
		}
		b := byte(s.CPU.ReadMemory(addr, 1))
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	return out
}

// InjectInstruction substitutes ins for whatever is on disk at addr.
func (s *Swimmer) InjectInstruction(addr uint64, ins *cpu.Instruction) {
	ins.Injected = true
	s.Injected[addr] = ins
	s.Stats.recordInjection()
}

// InjectJumpCondition replaces the conditional branch at addr with one
// whose taken/not-taken decision is driven by guard instead of the
// instruction's own flag semantics. addr must currently hold a conditional
// jump (not JMP); returns false otherwise, leaving state unchanged.
func (s *Swimmer) InjectJumpCondition(addr uint64, guard *cpu.Node) bool {
	ins, err := s.CPU.Disassemble(addr)
	if err != nil || !ins.IsConditionalJump() {
		return false
	}
	fallDst := ins.NextAddress()
	jumpDst, _ := s.CPU.BranchTarget(ins)
	ite := cpu.Ite(guard, cpu.Bv(64, jumpDst), cpu.Bv(64, fallDst))
	ins.Exprs = []*cpu.Node{ite}
	s.InjectInstruction(addr, ins)
	return true
}
