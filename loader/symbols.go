package loader

import (
	"fmt"
	"sort"
)

// SymbolResolver turns addresses into "name+offset" trace annotations and
// resolves a named entry point, the way a debugger's symbol table does.
type SymbolResolver struct {
	symbols map[string]uint64
	byAddr  map[uint64]string
	sorted  []uint64
}

func NewSymbolResolver(symbols map[string]uint64) *SymbolResolver {
	if symbols == nil {
		symbols = map[string]uint64{}
	}
	byAddr := make(map[uint64]string, len(symbols))
	sorted := make([]uint64, 0, len(symbols))
	for name, addr := range symbols {
		byAddr[addr] = name
		sorted = append(sorted, addr)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return &SymbolResolver{symbols: symbols, byAddr: byAddr, sorted: sorted}
}

// Lookup returns the address bound to name (e.g. "main", for a driver
// that starts exploration there).
func (r *SymbolResolver) Lookup(name string) (uint64, bool) {
	addr, ok := r.symbols[name]
	return addr, ok
}

// Resolve annotates addr with the nearest symbol at or below it and its
// offset, or reports found=false if addr precedes every known symbol.
func (r *SymbolResolver) Resolve(addr uint64) (name string, offset uint64, found bool) {
	if name, ok := r.byAddr[addr]; ok {
		return name, 0, true
	}
	i := sort.Search(len(r.sorted), func(i int) bool { return r.sorted[i] > addr })
	if i == 0 {
		return "", 0, false
	}
	base := r.sorted[i-1]
	return r.byAddr[base], addr - base, true
}

// Format renders addr as "name+offset (0xADDR)" when a symbol is known, or
// just "0xADDR" otherwise. Nothing in the engine calls it; it is for
// embedders that annotate their own trace output.
func (r *SymbolResolver) Format(addr uint64) string {
	name, offset, found := r.Resolve(addr)
	if !found {
		return fmt.Sprintf("0x%x", addr)
	}
	if offset == 0 {
		return fmt.Sprintf("%s (0x%x)", name, addr)
	}
	return fmt.Sprintf("%s+%d (0x%x)", name, offset, addr)
}
