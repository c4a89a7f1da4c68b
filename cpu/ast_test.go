package cpu

import "testing"

func TestEvaluateConstantArithmetic(t *testing.T) {
	n := Add(Bv(32, 2), Bv(32, 3))
	if got := Evaluate(n, nil); got != 5 {
		t.Fatalf("2+3 = %d, want 5", got)
	}
}

func TestEvaluateFreeVariableDefaultsToZero(t *testing.T) {
	v := &Variable{Name: "x", Width: 8}
	n := Equal(VarNode(v), Bv(8, 0))
	if Evaluate(n, nil) == 0 {
		t.Fatalf("expected free variable to default to 0, making x == 0 true")
	}
}

func TestVarsDeduplicates(t *testing.T) {
	v := &Variable{Name: "x", Width: 8}
	n := Add(VarNode(v), VarNode(v))
	if got := len(Vars(n)); got != 1 {
		t.Fatalf("Vars returned %d entries, want 1", got)
	}
}

func TestExtractConcat(t *testing.T) {
	n := Bv(16, 0xABCD)
	hi := Extract(15, 8, n)
	lo := Extract(7, 0, n)
	if Evaluate(hi, nil) != 0xAB {
		t.Fatalf("hi byte = 0x%x, want 0xAB", Evaluate(hi, nil))
	}
	if Evaluate(lo, nil) != 0xCD {
		t.Fatalf("lo byte = 0x%x, want 0xCD", Evaluate(lo, nil))
	}
	rejoined := Concat(hi, lo)
	if Evaluate(rejoined, nil) != 0xABCD {
		t.Fatalf("rejoined = 0x%x, want 0xABCD", Evaluate(rejoined, nil))
	}
}

func TestSolveByteEquality(t *testing.T) {
	v := &Variable{Name: "b0", Width: 8}
	constraint := Equal(VarNode(v), Bv(8, 0x41))
	model, ok := solve([]*Node{constraint}, 1)
	if !ok {
		t.Fatalf("expected a model")
	}
	if model["b0"] != 0x41 {
		t.Fatalf("b0 = 0x%x, want 0x41", model["b0"])
	}
}

func TestSolveConjunctionOverMultipleBytes(t *testing.T) {
	b0 := &Variable{Name: "s[0]", Width: 8}
	b1 := &Variable{Name: "s[1]", Width: 8}
	c1 := Equal(VarNode(b0), Bv(8, 'h'))
	c2 := Equal(VarNode(b1), Bv(8, 'i'))
	model, ok := solve([]*Node{c1, c2}, 1)
	if !ok {
		t.Fatalf("expected a model")
	}
	if model["s[0]"] != 'h' || model["s[1]"] != 'i' {
		t.Fatalf("model = %v, want s[0]='h' s[1]='i'", model)
	}
}

func TestSolveUnsatisfiableReturnsFalse(t *testing.T) {
	v := &Variable{Name: "x", Width: 1}
	c := And(Equal(VarNode(v), Bv(1, 0)), Equal(VarNode(v), Bv(1, 1)))
	if _, ok := solve([]*Node{c}, 1); ok {
		t.Fatalf("expected unsat")
	}
}
