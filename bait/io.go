package bait

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"

	"github.com/koi-go/koi/engine"
)

// Fgets symbolizes n bytes at rdi as freshly read input, then forces the
// last of those bytes to a concrete NUL the way fgets always
// NUL-terminates whatever it reads. Returns n as the byte count read.
func Fgets(s *engine.Swimmer, callSite uint64) uint64 {
	ptr := s.CPU.GetConcreteRegisterValue(x86asm.RDI)
	n := s.CPU.GetConcreteRegisterValue(x86asm.RSI)
	if n == 0 {
		return 0
	}
	s.CPU.SymbolizeMemory(ptr, int(n), func(i int) string {
		return fmt.Sprintf("fgets_0x%x[0x%x]", callSite, i)
	})
	s.CPU.WriteMemory(ptr+n-1, 1, 0)
	return n
}
