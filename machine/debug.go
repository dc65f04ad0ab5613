package machine

import (
	"fmt"
	"os"
)

// Disassemble renders a decoded instruction back into a short textual
// form, used by both the debug REPL and the always-on instruction log.
func Disassemble(i Instruction) string {
	switch i.Op {
	case OpADD, OpAND, OpXOR:
		return fmt.Sprintf("%s R%d, R%d, R%d", i.Op, i.DR, i.SR1, i.SR2)
	case OpADDi, OpANDi, OpXORi:
		return fmt.Sprintf("%s R%d, R%d, #%d", i.Op, i.DR, i.SR1, i.Imm3)
	case OpADDi16, OpANDi16, OpXORi16:
		return fmt.Sprintf("%s R%d, R%d, #%d", i.Op, i.DR, i.SR1, i.Imm16)
	case OpADDa, OpANDa, OpXORa:
		return fmt.Sprintf("%s R%d, R%d, [0x%04X]", i.Op, i.DR, i.SR1, i.Addr)
	case OpBR:
		return fmt.Sprintf("BR{n=%v,z=%v,p=%v} 0x%04X", i.Flags.N, i.Flags.Z, i.Flags.P, i.Addr)
	case OpJUMP, OpJSRR:
		return fmt.Sprintf("%s R%d", i.Op, i.DR)
	case OpRET:
		return "RET"
	case OpJSR:
		return fmt.Sprintf("JSR 0x%04X", i.Addr)
	case OpLD:
		return fmt.Sprintf("LD R%d, #%d", i.DR, i.Imm7)
	case OpLDa:
		return fmt.Sprintf("LDa R%d, [0x%04X]", i.DR, i.Addr)
	case OpST:
		return fmt.Sprintf("ST R%d, [0x%04X]", i.DR, i.Addr)
	case OpSTR:
		return fmt.Sprintf("STR [0x%04X], #%d", i.DR, i.Imm7)
	case OpSTR16:
		return fmt.Sprintf("STR16 [R%d], #%d", i.DR, i.Imm16)
	case OpNOT:
		return fmt.Sprintf("NOT R%d, R%d", i.DR, i.SR1)
	case OpTRAP:
		return fmt.Sprintf("TRAP 0x%02X", i.Trap)
	default:
		return i.Op.String()
	}
}

// DebugLog writes one block per executed instruction to a truncate-at-open
// file: raw encoding, decoded form, PC, register dump, and the two words at
// PC after the update. Advisory only, per §6 — nothing here is read back by
// the simulator. Grounded in the single append-only log handle kept for a
// process's lifetime, the idiomatic Go shape of the original's
// reopen-on-every-write logger.
type DebugLog struct {
	f *os.File
}

// OpenDebugLog truncates (or creates) path and keeps it open for the
// lifetime of the machine run.
func OpenDebugLog(path string) (*DebugLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &DebugLog{f: f}, nil
}

func (d *DebugLog) Close() error {
	return d.f.Close()
}

func (d *DebugLog) LogInstruction(m *Machine, instr Instruction) {
	fmt.Fprintf(d.f, "word1=0x%04X", instr.Raw1)
	if instr.Len == 2 {
		fmt.Fprintf(d.f, " word2=0x%04X", instr.Raw2)
	}
	fmt.Fprintf(d.f, "\ndecoded: %s\n", Disassemble(instr))
	fmt.Fprintf(d.f, "pc=0x%04X\n", m.PC)
	for i, r := range m.Reg {
		fmt.Fprintf(d.f, "R%d=%d ", i, r)
	}
	fmt.Fprintf(d.f, "\nnext words: 0x%04X 0x%04X\n\n", m.Memory[m.PC], m.Memory[(m.PC+1)&0xFFFF])
}
