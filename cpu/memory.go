package cpu

import "encoding/binary"

// cell is one byte of the address space.
type cell struct {
	value    byte
	defined  bool
	symbolic *Node // per-byte symbolic expression, width 8
}

// Memory is a sparse, byte-addressed concrete/symbolic memory plane. Only
// touched addresses occupy space, which is what lets the 64-bit address
// space (stack and heap windows far apart, ELF sections relocated high)
// live in a Go map instead of a flat array.
type Memory struct {
	cells map[uint64]*cell
}

func newMemory() *Memory {
	return &Memory{cells: make(map[uint64]*cell)}
}

func (m *Memory) at(addr uint64) *cell {
	c, ok := m.cells[addr]
	if !ok {
		c = &cell{}
		m.cells[addr] = c
	}
	return c
}

// WriteConcreteByte stores a defined, untainted byte.
func (m *Memory) WriteConcreteByte(addr uint64, b byte) {
	c := m.at(addr)
	c.value = b
	c.defined = true
	c.symbolic = nil
}

// WriteConcrete stores size bytes of val (little-endian), size in {1,2,4,8}.
func (m *Memory) WriteConcrete(addr uint64, size int, val uint64) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, val)
	for i := 0; i < size; i++ {
		m.WriteConcreteByte(addr+uint64(i), buf[i])
	}
}

// ReadConcrete reads size little-endian bytes starting at addr. Undefined
// bytes read as zero, matching the reference engine's memory-as-array-of-
// optionals semantics (definedness is tracked separately).
func (m *Memory) ReadConcrete(addr uint64, size int) uint64 {
	var buf [8]byte
	for i := 0; i < size && i < 8; i++ {
		if c, ok := m.cells[addr+uint64(i)]; ok {
			buf[i] = c.value
		}
	}
	return binary.LittleEndian.Uint64(buf[:])
}

// IsDefined reports whether every byte in [addr, addr+size) has been
// concretely written.
func (m *Memory) IsDefined(addr uint64, size int) bool {
	for i := 0; i < size; i++ {
		c, ok := m.cells[addr+uint64(i)]
		if !ok || !c.defined {
			return false
		}
	}
	return true
}

// IsSymbolized reports whether any byte in [addr, addr+size) carries a
// symbolic overlay.
func (m *Memory) IsSymbolized(addr uint64, size int) bool {
	for i := 0; i < size; i++ {
		if c, ok := m.cells[addr+uint64(i)]; ok && c.symbolic != nil {
			return true
		}
	}
	return false
}

// SymbolizeByte overlays one byte with a free variable and returns it,
// clearing any concrete value the byte held — a symbolic byte has no
// concrete definition until the solver assigns one.
func (m *Memory) SymbolizeByte(addr uint64, name string) *Variable {
	v := &Variable{Name: name, Width: 8}
	c := m.at(addr)
	c.value = 0
	c.defined = false
	c.symbolic = VarNode(v)
	return v
}

// GetByteExpression returns the AST for one byte: its symbolic overlay if
// any, else a constant carrying its concrete (possibly undefined-as-zero)
// value.
func (m *Memory) GetByteExpression(addr uint64) *Node {
	c, ok := m.cells[addr]
	if !ok {
		return Bv(8, 0)
	}
	if c.symbolic != nil {
		return c.symbolic
	}
	return Bv(8, uint64(c.value))
}

// GetExpression builds a little-endian concatenation of the byte
// expressions covering [addr, addr+size).
func (m *Memory) GetExpression(addr uint64, size int) *Node {
	n := m.GetByteExpression(addr + uint64(size) - 1)
	for i := size - 2; i >= 0; i-- {
		n = Concat(n, m.GetByteExpression(addr+uint64(i)))
	}
	return n
}

// SetByteExpression overlays one byte with node, folding to a plain
// concrete byte if node has no free variables left.
func (m *Memory) SetByteExpression(addr uint64, node *Node) {
	c := m.at(addr)
	c.defined = true
	c.value = byte(Evaluate(node, nil))
	if len(Vars(node)) == 0 {
		c.symbolic = nil
		return
	}
	c.symbolic = node
}

// SetExpression writes a size-byte little-endian value described by node
// across [addr, addr+size), byte by byte.
func (m *Memory) SetExpression(addr uint64, size int, node *Node) {
	for i := 0; i < size; i++ {
		m.SetByteExpression(addr+uint64(i), Extract(uint(i)*8+7, uint(i)*8, node))
	}
}
