package machine

import "io"

// execTrap implements the nine service traps that need more than a decode
// tag. None of them touch the condition flags.
func (m *Machine) execTrap(op Operation) error {
	switch op {
	case OpHALT:
		m.Halted = true
		return nil

	case OpGETC:
		b, err := m.readByte()
		if err != nil {
			return err
		}
		m.Reg[0] = int16(uint16(b))
		return nil

	case OpOUT:
		return m.writeByteFlush(byte(m.Reg[0]))

	case OpIN:
		for _, b := range []byte("\n\rinput: ") {
			if err := m.writeByte(b); err != nil {
				return err
			}
		}
		if err := m.Out.Flush(); err != nil {
			return ErrIO
		}
		b, err := m.readByte()
		if err != nil {
			return err
		}
		if err := m.writeByte(b); err != nil {
			return err
		}
		for _, c := range []byte("\n\r") {
			if err := m.writeByte(c); err != nil {
				return err
			}
		}
		if err := m.Out.Flush(); err != nil {
			return ErrIO
		}
		m.Reg[0] = int16(uint16(b))
		return nil

	case OpPUTS:
		addr := uint16(m.Reg[0])
		for {
			w := m.Memory[addr]
			if w == 0 {
				break
			}
			if err := m.writeByteFlush(byte(w)); err != nil {
				return err
			}
			addr++
		}
		return nil

	case OpPUTSP:
		addr := uint16(m.Reg[0])
		for {
			w := m.Memory[addr]
			hi := byte(w >> 8)
			if hi == 0 {
				break
			}
			if err := m.writeByte(hi); err != nil {
				return err
			}
			if err := m.writeByte(byte(w)); err != nil {
				return err
			}
			addr++
		}
		if err := m.Out.Flush(); err != nil {
			return ErrIO
		}
		return nil

	case OpLSD:
		m.ASG.SetSeed(uint16(m.Reg[0]), uint16(m.Reg[1]), uint16(m.Reg[2]))
		return nil

	case OpLPN:
		m.Reg[0] = int16(m.ASG.Clock16())
		return nil

	case OpCLRP:
		m.ASG.SetSeed(0, 0, 0)
		return nil

	default:
		return ErrUnsupportedTrap
	}
}

// readByte blocks for one input byte, mapping EOF to the null byte per the
// machine's I/O contract.
func (m *Machine) readByte() (byte, error) {
	b, err := m.In.ReadByte()
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, ErrIO
	}
	return b, nil
}

func (m *Machine) writeByte(b byte) error {
	if err := m.Out.WriteByte(b); err != nil {
		return ErrIO
	}
	return nil
}

func (m *Machine) writeByteFlush(b byte) error {
	if err := m.writeByte(b); err != nil {
		return err
	}
	if err := m.Out.Flush(); err != nil {
		return ErrIO
	}
	return nil
}
