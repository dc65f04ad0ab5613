package machine

// Step fetches, decodes and executes exactly one instruction. It reports
// (false, nil) on normal end-of-program (zero word fetched, or already
// halted) so the caller's loop can stop without treating it as an error.
func (m *Machine) Step() (bool, error) {
	if m.ended() {
		return false, nil
	}

	pc := m.PC
	word1 := m.Memory[pc]
	double := IsDouble(word1)
	var word2 uint16
	if double {
		word2 = m.Memory[pc+1]
	}

	instr, err := Decode(word1, word2, double)
	if err != nil {
		return false, &ExecutionError{PC: pc, Word1: word1, Err: err}
	}

	pcWritten, err := m.execute(instr)
	if err != nil {
		return false, &ExecutionError{PC: pc, Word1: word1, Err: err}
	}

	if !pcWritten {
		m.PC += instr.Len
	}

	if m.Log != nil {
		m.Log.LogInstruction(m, instr)
	}

	return true, nil
}

// execute dispatches a decoded instruction to its handler. The returned
// bool tells Step whether the handler already set m.PC to its final value
// (branches, jumps, JSR/JSRR/RET/RTI) so the generic +Len advance must be
// skipped — the "suppress auto-increment" model the design notes offer as
// an alternative to pre-subtracting the length.
func (m *Machine) execute(instr Instruction) (pcWritten bool, err error) {
	switch instr.Op {
	case OpADD:
		m.setReg(instr.DR, m.Reg[instr.SR1]+m.Reg[instr.SR2])
	case OpADDi:
		m.setReg(instr.DR, m.Reg[instr.SR1]+instr.Imm3)
	case OpADDi16:
		m.setReg(instr.DR, m.Reg[instr.SR1]+instr.Imm16)
	case OpADDa:
		m.setReg(instr.DR, m.Reg[instr.SR1]+int16(m.Memory[instr.Addr]))

	case OpAND:
		m.setReg(instr.DR, m.Reg[instr.SR1]&m.Reg[instr.SR2])
	case OpANDi:
		m.setReg(instr.DR, m.Reg[instr.SR1]&instr.Imm3)
	case OpANDi16:
		m.setReg(instr.DR, m.Reg[instr.SR1]&instr.Imm16)
	case OpANDa:
		m.setReg(instr.DR, m.Reg[instr.SR1]&int16(m.Memory[instr.Addr]))

	case OpXOR:
		m.setReg(instr.DR, m.Reg[instr.SR1]^m.Reg[instr.SR2])
	case OpXORi:
		m.setReg(instr.DR, m.Reg[instr.SR1]^instr.Imm3)
	case OpXORi16:
		m.setReg(instr.DR, m.Reg[instr.SR1]^instr.Imm16)
	case OpXORa:
		m.setReg(instr.DR, m.Reg[instr.SR1]^int16(m.Memory[instr.Addr]))

	case OpNOT:
		m.setReg(instr.DR, ^m.Reg[instr.SR1])

	case OpBR:
		f := instr.Flags
		if (f.N && m.PSR.N) || (f.Z && m.PSR.Z) || (f.P && m.PSR.P) {
			m.PC = instr.Addr
			pcWritten = true
		}

	case OpJUMP:
		m.PC = uint16(m.Reg[instr.DR])
		pcWritten = true

	case OpRET:
		m.PC = uint16(m.Reg[7])
		pcWritten = true

	case OpJSR:
		m.Reg[7] = int16(m.PC + instr.Len)
		m.PC = instr.Addr
		pcWritten = true

	case OpJSRR:
		m.Reg[7] = int16(m.PC)
		m.PC = uint16(m.Reg[instr.DR])
		pcWritten = true

	case OpLD:
		m.setReg(instr.DR, instr.Imm7)

	case OpLDa:
		m.setReg(instr.DR, int16(m.Memory[instr.Addr]))

	case OpST:
		err = m.writeMem(instr.Addr, uint16(m.Reg[instr.DR]))

	case OpSTR:
		// dr is the address itself, not a register index into the file —
		// preserved intentionally, see the design notes on STR vs STR16.
		err = m.writeMem(uint16(instr.DR), uint16(instr.Imm7))

	case OpSTR16:
		err = m.writeMem(uint16(m.Reg[instr.DR]), uint16(instr.Imm16))

	case OpTRAP:
		err = ErrUnsupportedTrap

	case OpRTI:
		if !m.PSR.Supervisor {
			err = ErrPrivilegeViolation
			break
		}
		m.PC = m.Memory[uint16(m.Reg[6])]
		pcWritten = true

	case OpHALT, OpGETC, OpOUT, OpIN, OpPUTS, OpPUTSP, OpLSD, OpLPN, OpCLRP:
		err = m.execTrap(instr.Op)

	default:
		err = ErrInvalidFamily
	}
	return pcWritten, err
}

func (m *Machine) setReg(dr uint8, value int16) {
	m.Reg[dr] = value
	m.PSR.setcc(value)
}
