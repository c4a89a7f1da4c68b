package bait

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"

	"github.com/koi-go/koi/engine"
)

func TestMallocAllocatesAndReturnsPointer(t *testing.T) {
	s := engine.New(nil)
	s.CPU.SetConcreteRegisterValue(x86asm.RDI, 0x10)

	ptr := Malloc(s, 0x400)
	assert.Equal(t, engine.HeapLow, ptr)
	assert.True(t, s.IsHeapAllocated(ptr))
	assert.Equal(t, uint64(0x10), s.GetAllocatedLength(ptr))
}

func TestMallocZeroLengthFails(t *testing.T) {
	s := engine.New(nil)
	s.CPU.SetConcreteRegisterValue(x86asm.RDI, 0)
	assert.Equal(t, uint64(0), Malloc(s, 0x400))
}

func TestFreeThenDoubleFree(t *testing.T) {
	s := engine.New(nil)
	s.CPU.SetConcreteRegisterValue(x86asm.RDI, 0x10)
	ptr := Malloc(s, 0x400)
	require.NotEqual(t, uint64(0), ptr)

	s.CPU.SetConcreteRegisterValue(x86asm.RDI, ptr)
	Free(s, 0x410)
	assert.False(t, s.StatHeap(ptr, true))

	// double free must not panic and must leave the buffer Dead
	Free(s, 0x420)
	assert.False(t, s.StatHeap(ptr, true))
}

func TestReallocNullActsLikeMalloc(t *testing.T) {
	s := engine.New(nil)
	s.CPU.SetConcreteRegisterValue(x86asm.RDI, 0) // old ptr
	s.CPU.SetConcreteRegisterValue(x86asm.RSI, 0x20) // new length

	ptr := Realloc(s, 0x400)
	assert.NotEqual(t, uint64(0), ptr)
	assert.Equal(t, uint64(0x20), s.GetAllocatedLength(ptr))
}

func TestReallocGrowsAndFreesOld(t *testing.T) {
	s := engine.New(nil)
	s.CPU.SetConcreteRegisterValue(x86asm.RDI, 0x10)
	oldPtr := Malloc(s, 0x400)
	require.NotEqual(t, uint64(0), oldPtr)

	s.CPU.SetConcreteRegisterValue(x86asm.RDI, oldPtr)
	s.CPU.SetConcreteRegisterValue(x86asm.RSI, 0x30)
	newPtr := Realloc(s, 0x410)

	assert.NotEqual(t, uint64(0), newPtr)
	assert.NotEqual(t, oldPtr, newPtr)
	assert.Equal(t, uint64(0x30), s.GetAllocatedLength(newPtr))
	assert.False(t, s.StatHeap(oldPtr, true), "old pointer should be freed by realloc")
}

func TestReallocRejectsUnallocatedPointer(t *testing.T) {
	s := engine.New(nil)
	s.CPU.SetConcreteRegisterValue(x86asm.RDI, 0xdeadbeef)
	s.CPU.SetConcreteRegisterValue(x86asm.RSI, 0x10)
	assert.Equal(t, uint64(0), Realloc(s, 0x400))
}
