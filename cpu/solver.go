package cpu

import "sort"

// solve performs a bounded, deterministic backtracking search for an
// assignment of the free variables in constraints that makes every
// constraint node evaluate non-zero. It is not a sound-and-complete SMT
// decision procedure — there is no Go SMT binding anywhere in this
// project's dependency set — but it is sufficient for the byte-granular
// equality/inequality/ITE constraints this engine's hooks and branch
// forking ever produce (see the solve tests in cpu/ast_test.go and the
// scenarios in engine/swimmer_test.go). Variables up to 16 bits wide try
// every value; wider ones try 0..255 plus four boundary values, so the
// search always terminates.
func solve(constraints []*Node, limit int) (map[string]uint64, bool) {
	models := solveAll(constraints, limit)
	if len(models) == 0 {
		return nil, false
	}
	return models[0], true
}

// solveAll returns up to limit distinct satisfying assignments.
func solveAll(constraints []*Node, limit int) []map[string]uint64 {
	if limit <= 0 {
		limit = 1
	}
	goal := conjoin(constraints)
	if goal == nil {
		return []map[string]uint64{{}}
	}

	varSet := map[string]*Variable{}
	for _, v := range Vars(goal) {
		varSet[v.Name] = v
	}
	names := make([]string, 0, len(varSet))
	for n := range varSet {
		names = append(names, n)
	}
	sort.Strings(names)

	var out []map[string]uint64
	assignment := map[string]uint64{}
	var search func(i int) bool
	search = func(i int) bool {
		if len(out) >= limit {
			return true
		}
		if i == len(names) {
			if Evaluate(goal, assignment) != 0 {
				snap := make(map[string]uint64, len(assignment))
				for k, v := range assignment {
					snap[k] = v
				}
				out = append(out, snap)
			}
			return len(out) >= limit
		}
		name := names[i]
		v := varSet[name]
		for _, cand := range candidates(v.Width) {
			assignment[name] = cand
			if partiallyConsistent(goal, assignment, names[:i+1]) {
				if search(i + 1) {
					return true
				}
			}
		}
		delete(assignment, name)
		return false
	}
	search(0)
	return out
}

func conjoin(constraints []*Node) *Node {
	var goal *Node
	for _, c := range constraints {
		if c == nil {
			continue
		}
		if goal == nil {
			goal = c
			continue
		}
		goal = And(goal, c)
	}
	return goal
}

// candidates enumerates the trial domain for a variable of the given
// width: the full range for byte/word widths, and a representative
// boundary-and-small-value set for wider ones.
func candidates(width uint) []uint64 {
	if width <= 16 {
		n := uint64(1) << width
		vals := make([]uint64, n)
		for i := range vals {
			vals[i] = uint64(i)
		}
		return vals
	}
	top := mask(width)
	vals := make([]uint64, 0, 256+8)
	for i := uint64(0); i < 256; i++ {
		vals = append(vals, i)
	}
	vals = append(vals, top, top-1, top/2, top/2+1)
	return vals
}

// partiallyConsistent is a best-effort prune: it splits goal along its
// top-level boolean conjunctions and rejects the partial assignment as soon
// as any conjunct whose free variables are all bound by assigned evaluates
// false, letting obviously-failing partial assignments back out early
// instead of waiting for every variable to be bound.
func partiallyConsistent(goal *Node, assignment map[string]uint64, assigned []string) bool {
	bound := map[string]bool{}
	for _, n := range assigned {
		bound[n] = true
	}
	return consistentRec(goal, assignment, bound)
}

func consistentRec(n *Node, assignment map[string]uint64, bound map[string]bool) bool {
	if n == nil {
		return true
	}
	if n.Kind == KindAnd && n.Width == 1 {
		return consistentRec(n.Children[0], assignment, bound) && consistentRec(n.Children[1], assignment, bound)
	}
	for _, v := range Vars(n) {
		if !bound[v.Name] {
			return true // not fully bound yet, can't prune
		}
	}
	return Evaluate(n, assignment) != 0
}
