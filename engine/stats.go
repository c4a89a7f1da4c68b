package engine

// Stats accumulates lightweight exploration counters, in the spirit of the
// teacher's PerformanceStatistics but scoped to what an exploration run
// actually wants to report: how much ground was covered and how the run
// ended.
type Stats struct {
	Instructions uint64
	Forks        uint64
	FuncHooks    uint64
	InsnHooks    uint64
	DeadEnds     uint64
	Injections   uint64
}

func (st *Stats) recordInstruction() { st.Instructions++ }
func (st *Stats) recordFork()        { st.Forks++ }
func (st *Stats) recordFuncHook()    { st.FuncHooks++ }
func (st *Stats) recordInsnHook()    { st.InsnHooks++ }
func (st *Stats) recordDeadEnd()     { st.DeadEnds++ }
func (st *Stats) recordInjection()   { st.Injections++ }
