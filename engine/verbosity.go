package engine

// Verbosity is a bitmask selecting which categories of diagnostic line the
// explore loop emits to its output writer.
type Verbosity uint32

const (
	SV_INSN   Verbosity = 0x01
	SV_SYMS   Verbosity = 0x02
	SV_REGS   Verbosity = 0x04
	SV_BRANCH Verbosity = 0x08
	SV_MODEL  Verbosity = 0x10
	SV_STOPS  Verbosity = 0x20
	SV_ALLOC  Verbosity = 0x40
	SV_STACK  Verbosity = 0x80

	SV_CTRLFLOW = SV_INSN | SV_BRANCH | SV_STOPS
	SV_MEM      = SV_ALLOC | SV_STACK
	SV_NONE     Verbosity = 0
	SV_ALL                = SV_INSN | SV_SYMS | SV_REGS | SV_BRANCH | SV_MODEL | SV_STOPS | SV_ALLOC | SV_STACK
)

func (v Verbosity) Has(flag Verbosity) bool { return v&flag != 0 }
