package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbolResolverLookupAndResolve(t *testing.T) {
	r := NewSymbolResolver(map[string]uint64{"main": 0x1000, "helper": 0x1040})

	addr, ok := r.Lookup("main")
	assert.True(t, ok)
	assert.Equal(t, uint64(0x1000), addr)

	name, off, found := r.Resolve(0x1010)
	assert.True(t, found)
	assert.Equal(t, "main", name)
	assert.Equal(t, uint64(0x10), off)

	name, off, found = r.Resolve(0x1040)
	assert.True(t, found)
	assert.Equal(t, "helper", name)
	assert.Equal(t, uint64(0), off)
}

func TestSymbolResolverResolveBeforeFirstSymbol(t *testing.T) {
	r := NewSymbolResolver(map[string]uint64{"main": 0x1000})
	_, _, found := r.Resolve(0x100)
	assert.False(t, found)
}

func TestSymbolResolverFormat(t *testing.T) {
	r := NewSymbolResolver(map[string]uint64{"main": 0x1000})
	assert.Equal(t, "main (0x1000)", r.Format(0x1000))
	assert.Equal(t, "main+16 (0x1010)", r.Format(0x1010))
	assert.Equal(t, "0x100", r.Format(0x100))
}

func TestNewSymbolResolverHandlesNilMap(t *testing.T) {
	r := NewSymbolResolver(nil)
	_, ok := r.Lookup("anything")
	assert.False(t, ok)
}
