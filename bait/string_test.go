package bait

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/arch/x86/x86asm"

	"github.com/koi-go/koi/engine"
)

func writeCString(s *engine.Swimmer, addr uint64, str string) {
	for i, c := range []byte(str) {
		s.CPU.WriteMemory(addr+uint64(i), 1, uint64(c))
	}
	s.CPU.WriteMemory(addr+uint64(len(str)), 1, 0)
}

func TestStrlenConcreteString(t *testing.T) {
	s := engine.New(nil)
	addr := uint64(0x1000)
	writeCString(s, addr, "hello")
	s.CPU.SetConcreteRegisterValue(x86asm.RDI, addr)

	assert.Equal(t, uint64(5), Strlen(s, 0))
}

func TestStrlenNullPointer(t *testing.T) {
	s := engine.New(nil)
	s.CPU.SetConcreteRegisterValue(x86asm.RDI, 0)
	assert.Equal(t, uint64(0), Strlen(s, 0))
}

func TestStrcpyCopiesUpToShorterLength(t *testing.T) {
	s := engine.New(nil)
	srcAddr := uint64(0x1000)
	dstAddr := uint64(0x2000)
	writeCString(s, srcAddr, "hi")
	writeCString(s, dstAddr, "xxxxx")

	s.CPU.SetConcreteRegisterValue(x86asm.RDI, dstAddr)
	s.CPU.SetConcreteRegisterValue(x86asm.RSI, srcAddr)

	ret := Strcpy(s, 0)
	assert.Equal(t, dstAddr, ret)
	assert.Equal(t, uint64('h'), s.CPU.ReadMemory(dstAddr, 1))
	assert.Equal(t, uint64('i'), s.CPU.ReadMemory(dstAddr+1, 1))
}

func TestStrchrConcreteFindsMatch(t *testing.T) {
	s := engine.New(nil)
	addr := uint64(0x1000)
	writeCString(s, addr, "hello")
	s.CPU.SetConcreteRegisterValue(x86asm.RDI, addr)
	s.CPU.SetConcreteRegisterValue(x86asm.RSI, uint64('l'))

	assert.Equal(t, addr+2, Strchr(s, 0))
}

func TestStrchrConcreteNoMatchReturnsZero(t *testing.T) {
	s := engine.New(nil)
	addr := uint64(0x1000)
	writeCString(s, addr, "hello")
	s.CPU.SetConcreteRegisterValue(x86asm.RDI, addr)
	s.CPU.SetConcreteRegisterValue(x86asm.RSI, uint64('z'))

	assert.Equal(t, uint64(0), Strchr(s, 0))
}
