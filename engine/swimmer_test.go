package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"

	"github.com/koi-go/koi/cpu"
)

func loadCode(s *Swimmer, addr uint64, code []byte) {
	for i, b := range code {
		s.CPU.WriteMemory(addr+uint64(i), 1, uint64(b))
	}
}

func TestNewSeedsRegistersAndInitialFrame(t *testing.T) {
	s := New(nil)
	assert.Equal(t, StackHigh, s.CPU.GetConcreteRegisterValue(x86asm.RBP))
	assert.Equal(t, StackHigh, s.CPU.GetConcreteRegisterValue(x86asm.RSP))
	assert.True(t, s.CPU.IsRegisterSymbolized(x86asm.RAX))
	assert.False(t, s.CPU.IsRegisterSymbolized(x86asm.RIP))
	require.Len(t, s.Frames, 1)
}

func TestExploreDetectsStackAllocation(t *testing.T) {
	s := New(nil)
	addr := uint64(0x1000)
	// sub rsp, 0x20
	loadCode(s, addr, []byte{0x48, 0x81, 0xEC, 0x20, 0x00, 0x00, 0x00})
	s.SetPC(addr)

	reached := s.Explore(0, 1, 10)
	assert.False(t, reached, "exploration should run off the end of defined code")

	frame := s.topFrame()
	assert.Equal(t, StackHigh-0x20, frame.Addr())
	assert.Equal(t, uint64(0x20), frame.Size())
	assert.True(t, s.CPU.IsMemorySymbolized(frame.Addr(), 1))
}

func TestExploreRecordsStackAccess(t *testing.T) {
	s := New(nil)
	addr := uint64(0x1000)
	code := []byte{
		0x48, 0x81, 0xEC, 0x20, 0x00, 0x00, 0x00, // sub rsp, 0x20
		0x48, 0x8B, 0x45, 0xF0, // mov rax, [rbp-0x10]
	}
	loadCode(s, addr, code)
	s.SetPC(addr)

	s.Explore(0, 1, 10)

	frame := s.topFrame()
	lo, hi := frame.AccessGap(0x10)
	assert.Equal(t, uint64(0x10), lo)
	assert.Equal(t, uint64(0x20), hi)
}

func TestHookFunctionElidesCall(t *testing.T) {
	s := New(nil)
	addr := uint64(0x1000)
	// call 0x2000 (relative call, e5 bytes: E8 + rel32); next insn after call is addr+5
	// rel32 = target - (addr + 5) = 0x2000 - 0x1005
	target := uint64(0x2000)
	rel := int32(target - (addr + 5))
	code := []byte{0xE8, byte(rel), byte(rel >> 8), byte(rel >> 16), byte(rel >> 24)}
	loadCode(s, addr, code)
	loadCode(s, target, []byte{0x90}) // a nop the hook preempts; presence marks it "defined"

	called := false
	s.HookFunction(target, func(s *Swimmer, callSite uint64) uint64 {
		called = true
		assert.Equal(t, addr, callSite)
		return 0x41
	})

	s.SetPC(addr)
	s.Explore(0, 1, 10)

	assert.True(t, called)
	assert.Equal(t, uint64(0x41), s.CPU.GetConcreteRegisterValue(x86asm.RAX))
	assert.Len(t, s.Frames, 1, "an elided call must not push a frame")
}

func TestInjectJumpConditionForcesFork(t *testing.T) {
	s := New(nil)
	addr := uint64(0x1000)
	// je 0x1010 (rel8): 74 0E — followed by a one-byte nop so "fallthrough" has somewhere defined to land
	code := []byte{0x74, 0x0E}
	loadCode(s, addr, code)
	loadCode(s, addr+2, []byte{0x90}) // fallthrough target
	loadCode(s, addr+2+0x0E, []byte{0x90}) // taken-branch target

	guard := cpu.Equal(cpu.VarNode(&cpu.Variable{Name: "x", Width: 8}), cpu.Bv(8, 1))
	ok := s.InjectJumpCondition(addr, guard)
	require.True(t, ok)

	s.SetPC(addr)
	reached := s.Explore(addr+2+0x0E, 1, 10)
	assert.True(t, reached, "forking on the injected guard should reach the taken branch")
	assert.Len(t, s.Constraints, 1)
}
