package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapAllocateFirstFit(t *testing.T) {
	h := NewHeap()
	a := h.Allocate("malloc", 0x10, 0x400)
	require.NotNil(t, a)
	assert.Equal(t, HeapLow, a.Addr())

	b := h.Allocate("malloc", 0x20, 0x410)
	require.NotNil(t, b)
	assert.Equal(t, HeapLow+0x10, b.Addr())
}

func TestHeapAllocateDoesNotReuseFreedSpan(t *testing.T) {
	h := NewHeap()
	a := h.Allocate("malloc", 0x10, 0x400)
	require.NotNil(t, a)
	b := h.Allocate("malloc", 0x10, 0x410)
	require.NotNil(t, b)

	require.True(t, h.Free(a.Addr(), 0x420))

	c := h.Allocate("malloc", 0x10, 0x430)
	require.NotNil(t, c)
	assert.Equal(t, b.Addr()+b.Size(), c.Addr(), "a dead buffer's span stays reserved, so the next allocation goes after the last live/dead buffer")
}

func TestHeapAllocateZeroSizeFails(t *testing.T) {
	h := NewHeap()
	assert.Nil(t, h.Allocate("malloc", 0, 0x400))
}

func TestHeapFreeRejectsNonBaseAndDoubleFree(t *testing.T) {
	h := NewHeap()
	a := h.Allocate("malloc", 0x10, 0x400)
	require.NotNil(t, a)

	assert.False(t, h.Free(a.Addr()+1, 0x410), "freeing a non-base address should fail")
	assert.True(t, h.Free(a.Addr(), 0x420))
	assert.False(t, h.Free(a.Addr(), 0x430), "double free should fail")
}

func TestHeapLookupSeesDeadBuffersNonStrict(t *testing.T) {
	h := NewHeap()
	a := h.Allocate("malloc", 0x10, 0x400)
	require.NotNil(t, a)
	require.True(t, h.Free(a.Addr(), 0x410))

	assert.Nil(t, h.Lookup(a.Addr(), true), "strict lookup must not see a dead buffer")
	assert.NotNil(t, h.Lookup(a.Addr(), false), "non-strict lookup should still find it for UAF diagnostics")
	assert.False(t, h.IsAllocated(a.Addr()))
	assert.Equal(t, a.Alias, h.Alias(a.Addr()))
}

func TestHeapAliasUndefinedForUnknownAddress(t *testing.T) {
	h := NewHeap()
	assert.Equal(t, "UNDEFINED", h.Alias(0xdeadbeef))
}
