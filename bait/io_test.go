package bait

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/arch/x86/x86asm"

	"github.com/koi-go/koi/engine"
)

func TestFgetsSymbolizesAndTerminates(t *testing.T) {
	s := engine.New(nil)
	addr := uint64(0x3000)
	s.CPU.SetConcreteRegisterValue(x86asm.RDI, addr)
	s.CPU.SetConcreteRegisterValue(x86asm.RSI, 8)

	n := Fgets(s, 0x400)
	assert.Equal(t, uint64(8), n)
	assert.True(t, s.CPU.IsMemorySymbolized(addr, 1))
	assert.False(t, s.CPU.IsMemorySymbolized(addr+7, 1), "the final byte must be forced concrete NUL")
	assert.Equal(t, uint64(0), s.CPU.ReadMemory(addr+7, 1))
}

func TestFgetsZeroLength(t *testing.T) {
	s := engine.New(nil)
	s.CPU.SetConcreteRegisterValue(x86asm.RDI, 0x3000)
	s.CPU.SetConcreteRegisterValue(x86asm.RSI, 0)
	assert.Equal(t, uint64(0), Fgets(s, 0x400))
}
