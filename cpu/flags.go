package cpu

// Flag bit positions, matching the x86 EFLAGS layout.
const (
	FlagCF uint = 0
	FlagPF uint = 2
	FlagZF uint = 6
	FlagSF uint = 7
	FlagTF uint = 8
	FlagOF uint = 11
)

// Flags is the condition-code plane: each flag is an independent boolean
// node (width 1), stored as given; a flag whose node has no free variables
// is concrete.
type Flags struct {
	bits map[uint]*Node
}

func newFlags() *Flags {
	f := &Flags{bits: make(map[uint]*Node)}
	for _, b := range []uint{FlagCF, FlagPF, FlagZF, FlagSF, FlagTF, FlagOF} {
		f.bits[b] = Bv(1, 0)
	}
	return f
}

func (f *Flags) Set(bit uint, node *Node) { f.bits[bit] = node }

func (f *Flags) Get(bit uint) *Node {
	if n, ok := f.bits[bit]; ok {
		return n
	}
	return Bv(1, 0)
}

func (f *Flags) Concrete(bit uint) bool { return Evaluate(f.Get(bit), nil) != 0 }

// updateArith sets ZF/SF from result and CF/OF from the add/sub semantics
// of a and b producing result, all at the given width.
func (f *Flags) updateArith(width uint, a, b, result *Node, isSub bool) {
	top := width - 1
	f.Set(FlagZF, Equal(result, Bv(width, 0)))
	f.Set(FlagSF, Distinct(Extract(top, top, result), Bv(1, 0)))
	if isSub {
		f.Set(FlagCF, Ult(a, b))
	} else {
		f.Set(FlagCF, Ult(result, a))
	}
	// Overflow: sign(a) == sign(b) (for add) / sign(a) != sign(b) (for sub)
	// and sign(result) differs from sign(a). Folds to a concrete 0/1 when a
	// and b are concrete, same as the other flags.
	signA := Extract(top, top, a)
	signB := Extract(top, top, b)
	signR := Extract(top, top, result)
	var sameInputSign *Node
	if isSub {
		sameInputSign = Distinct(signA, signB)
	} else {
		sameInputSign = Equal(signA, signB)
	}
	f.Set(FlagOF, Ite(sameInputSign, Distinct(signA, signR), Bv(1, 0)))
}

func (f *Flags) updateLogic(width uint, result *Node) {
	f.Set(FlagZF, Equal(result, Bv(width, 0)))
	f.Set(FlagSF, Distinct(Extract(width-1, width-1, result), Bv(1, 0)))
	f.Set(FlagCF, Bv(1, 0))
	f.Set(FlagOF, Bv(1, 0))
}
