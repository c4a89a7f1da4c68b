package cpu

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// Decode disassembles the instruction at addr from code, which must start
// at addr and contain at least one full instruction's worth of bytes
// (x86asm.Decode reads at most 15).
func Decode(code []byte, addr uint64) (*Instruction, error) {
	inst, err := x86asm.Decode(code, 64)
	if err != nil {
		return nil, fmt.Errorf("decode 0x%x: %w", addr, err)
	}
	return &Instruction{Address: addr, Len: inst.Len, Inst: inst}, nil
}
