package machine

const (
	// UserMemLow and UserMemHigh bound the unprivileged address range;
	// everything else (0x0000-0x2FFF, 0xFE00-0xFFFF) is privileged.
	UserMemLow  uint16 = 0x3000
	UserMemHigh uint16 = 0xFDFF

	initialPC  uint16 = 0x3000
	initialUSP uint16 = 0xFDFF
	initialSSP uint16 = 0x2FFF
)

// ByteSource is the blocking byte-at-a-time input the engine reads from for
// GETC/IN. Injected rather than bound to a concrete terminal type so the
// engine is testable off a plain bytes.Reader.
type ByteSource interface {
	ReadByte() (byte, error)
}

// ByteSink is the flushing byte output OUT/PUTS/PUTSP/IN write to.
type ByteSink interface {
	WriteByte(b byte) error
	Flush() error
}

// InstructionLogger receives one call per executed instruction, after state
// has been updated, for the always-on debug log (§6). Nil is a valid value
// meaning "don't log".
type InstructionLogger interface {
	LogInstruction(m *Machine, instr Instruction)
}

// Machine owns every piece of state a running program can observe or
// mutate: the 64 Ki-word memory, the eight general registers, PC, the two
// (unused in practice) stack pointers, the PSR, and the hardware PRNG.
type Machine struct {
	Memory [65536]uint16
	Reg    [8]int16
	PC     uint16
	USP    uint16
	SSP    uint16
	PSR    PSR
	ASG    ASG

	Halted bool

	In  ByteSource
	Out ByteSink
	Log InstructionLogger
}

// New constructs a Machine with zeroed memory/registers and PC/USP/SSP at
// their architectural reset values. in/out may be nil only if the loaded
// program never executes a trap that touches them.
func New(in ByteSource, out ByteSink) *Machine {
	return &Machine{
		PC:  initialPC,
		USP: initialUSP,
		SSP: initialSSP,
		In:  in,
		Out: out,
	}
}

// IsPrivileged reports whether addr falls outside the user address range
// 0x3000-0xFDFF.
func IsPrivileged(addr uint16) bool {
	return addr < UserMemLow || addr > UserMemHigh
}

// writeMem performs the access-violation check (I3) before committing a
// memory write.
func (m *Machine) writeMem(addr uint16, value uint16) error {
	if IsPrivileged(addr) && !m.PSR.Supervisor {
		return ErrAccessViolation
	}
	m.Memory[addr] = value
	return nil
}

// ended reports whether the fetch loop should stop: halted, PC drifted into
// the privileged tail of memory, or the fetched word is the end-of-program
// sentinel (zero).
func (m *Machine) ended() bool {
	return m.Halted || m.PC >= 0xFE00 || m.Memory[m.PC] == 0
}
