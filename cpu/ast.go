// Package cpu implements the CPU-semantic collaborator: concrete/symbolic
// register and memory planes over x86-64, a decoder built on
// golang.org/x/arch/x86/x86asm, a small symbolic AST, and a bounded
// constraint solver used to turn accumulated path constraints into
// satisfying register/memory assignments.
package cpu

import "fmt"

// Kind identifies the operator a Node applies.
type Kind int

const (
	KindConst Kind = iota
	KindVar
	KindAdd
	KindSub
	KindAnd
	KindOr
	KindXor
	KindNot
	KindNeg
	KindShl
	KindShr
	KindEqual
	KindDistinct
	KindUlt
	KindUle
	KindUgt
	KindUge
	KindIte
	KindExtract // Children[0][Hi:Lo]
	KindConcat  // Children[0] (high) :: Children[1] (low)
	KindZeroExt
)

// Node is a symbolic expression node. Width is in bits; boolean-valued nodes
// (Equal, Distinct, Ult, Ule, Ugt, Uge) carry Width == 1.
type Node struct {
	Kind     Kind
	Width    uint
	Value    uint64 // KindConst
	Var      *Variable
	Children []*Node
	Hi, Lo   uint // KindExtract
}

// Variable is a free symbolic value of Width bits introduced by
// symbolizing a register, a flag, or a memory byte.
type Variable struct {
	Name  string
	Width uint
}

func Bv(width uint, value uint64) *Node {
	if width < 64 {
		value &= (uint64(1) << width) - 1
	}
	return &Node{Kind: KindConst, Width: width, Value: value}
}

func VarNode(v *Variable) *Node {
	return &Node{Kind: KindVar, Width: v.Width, Var: v}
}

func bin(k Kind, a, b *Node) *Node {
	return &Node{Kind: k, Width: a.Width, Children: []*Node{a, b}}
}

func Add(a, b *Node) *Node { return bin(KindAdd, a, b) }
func Sub(a, b *Node) *Node { return bin(KindSub, a, b) }
func And(a, b *Node) *Node { return bin(KindAnd, a, b) }
func Or(a, b *Node) *Node  { return bin(KindOr, a, b) }
func Xor(a, b *Node) *Node { return bin(KindXor, a, b) }
func Shl(a, b *Node) *Node { return bin(KindShl, a, b) }
func Shr(a, b *Node) *Node { return bin(KindShr, a, b) }

func Not(a *Node) *Node { return &Node{Kind: KindNot, Width: a.Width, Children: []*Node{a}} }
func Neg(a *Node) *Node { return &Node{Kind: KindNeg, Width: a.Width, Children: []*Node{a}} }

func boolNode(k Kind, a, b *Node) *Node {
	return &Node{Kind: k, Width: 1, Children: []*Node{a, b}}
}

func Equal(a, b *Node) *Node    { return boolNode(KindEqual, a, b) }
func Distinct(a, b *Node) *Node { return boolNode(KindDistinct, a, b) }
func Ult(a, b *Node) *Node      { return boolNode(KindUlt, a, b) }
func Ule(a, b *Node) *Node      { return boolNode(KindUle, a, b) }
func Ugt(a, b *Node) *Node      { return boolNode(KindUgt, a, b) }
func Uge(a, b *Node) *Node      { return boolNode(KindUge, a, b) }

// Ite is symbolic if-then-else: cond must be boolean-valued (Width == 1).
func Ite(cond, then, els *Node) *Node {
	return &Node{Kind: KindIte, Width: then.Width, Children: []*Node{cond, then, els}}
}

// Extract returns bits [hi:lo] of a, inclusive, zero-indexed from the LSB.
func Extract(hi, lo uint, a *Node) *Node {
	return &Node{Kind: KindExtract, Width: hi - lo + 1, Hi: hi, Lo: lo, Children: []*Node{a}}
}

// Concat concatenates hi (most significant) with lo (least significant).
func Concat(hi, lo *Node) *Node {
	return &Node{Kind: KindConcat, Width: hi.Width + lo.Width, Children: []*Node{hi, lo}}
}

func ZeroExt(width uint, a *Node) *Node {
	if width <= a.Width {
		return a
	}
	return &Node{Kind: KindZeroExt, Width: width, Children: []*Node{a}}
}

// Vars collects the distinct free variables referenced transitively by n.
func Vars(n *Node) []*Variable {
	seen := make(map[string]bool)
	var out []*Variable
	var walk func(*Node)
	walk = func(x *Node) {
		if x == nil {
			return
		}
		if x.Kind == KindVar && !seen[x.Var.Name] {
			seen[x.Var.Name] = true
			out = append(out, x.Var)
		}
		for _, c := range x.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

func mask(width uint) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}

// Evaluate resolves n under the given variable assignment. Free variables
// missing from assignment evaluate to 0.
func Evaluate(n *Node, assignment map[string]uint64) uint64 {
	if n == nil {
		return 0
	}
	switch n.Kind {
	case KindConst:
		return n.Value
	case KindVar:
		return assignment[n.Var.Name] & mask(n.Var.Width)
	case KindAdd:
		return (Evaluate(n.Children[0], assignment) + Evaluate(n.Children[1], assignment)) & mask(n.Width)
	case KindSub:
		return (Evaluate(n.Children[0], assignment) - Evaluate(n.Children[1], assignment)) & mask(n.Width)
	case KindAnd:
		return Evaluate(n.Children[0], assignment) & Evaluate(n.Children[1], assignment)
	case KindOr:
		return Evaluate(n.Children[0], assignment) | Evaluate(n.Children[1], assignment)
	case KindXor:
		return Evaluate(n.Children[0], assignment) ^ Evaluate(n.Children[1], assignment)
	case KindNot:
		return (^Evaluate(n.Children[0], assignment)) & mask(n.Width)
	case KindNeg:
		return (-Evaluate(n.Children[0], assignment)) & mask(n.Width)
	case KindShl:
		return (Evaluate(n.Children[0], assignment) << Evaluate(n.Children[1], assignment)) & mask(n.Width)
	case KindShr:
		return Evaluate(n.Children[0], assignment) >> Evaluate(n.Children[1], assignment)
	case KindEqual:
		if Evaluate(n.Children[0], assignment) == Evaluate(n.Children[1], assignment) {
			return 1
		}
		return 0
	case KindDistinct:
		if Evaluate(n.Children[0], assignment) != Evaluate(n.Children[1], assignment) {
			return 1
		}
		return 0
	case KindUlt:
		if Evaluate(n.Children[0], assignment) < Evaluate(n.Children[1], assignment) {
			return 1
		}
		return 0
	case KindUle:
		if Evaluate(n.Children[0], assignment) <= Evaluate(n.Children[1], assignment) {
			return 1
		}
		return 0
	case KindUgt:
		if Evaluate(n.Children[0], assignment) > Evaluate(n.Children[1], assignment) {
			return 1
		}
		return 0
	case KindUge:
		if Evaluate(n.Children[0], assignment) >= Evaluate(n.Children[1], assignment) {
			return 1
		}
		return 0
	case KindIte:
		if Evaluate(n.Children[0], assignment) != 0 {
			return Evaluate(n.Children[1], assignment)
		}
		return Evaluate(n.Children[2], assignment)
	case KindExtract:
		v := Evaluate(n.Children[0], assignment)
		return (v >> n.Lo) & mask(n.Hi-n.Lo+1)
	case KindConcat:
		hi := Evaluate(n.Children[0], assignment)
		lo := Evaluate(n.Children[1], assignment)
		return (hi << n.Children[1].Width) | lo
	case KindZeroExt:
		return Evaluate(n.Children[0], assignment) & mask(n.Children[0].Width)
	default:
		panic(fmt.Sprintf("cpu: unhandled node kind %d", n.Kind))
	}
}
