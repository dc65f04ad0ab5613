package machine

import (
	"bufio"
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
)

// errPanicRecovered is substituted for whatever the recovered panic value
// was when Run's deferred recover fires and no more specific execution
// error was already in flight. uint16-indexed array accesses can't actually
// go out of bounds here, but the pattern is kept as a last line of defense
// around the hot loop, the same role it plays in the teacher's run loop.
var errPanicRecovered = fmt.Errorf("internal error during execution")

func (m *Machine) recoverToError(out *error) {
	if r := recover(); r != nil {
		if *out == nil {
			*out = &ExecutionError{PC: m.PC, Word1: m.Memory[m.PC], Err: errPanicRecovered}
		}
	}
}

// Run executes instructions until normal termination or an error. GOGC is
// raised for the duration of the hot loop and restored afterward, the same
// trade the teacher's RunProgram makes around its own execInstructions.
func (m *Machine) Run() (err error) {
	prev := debug.SetGCPercent(400)
	defer debug.SetGCPercent(prev)
	defer m.recoverToError(&err)

	for {
		cont, stepErr := m.Step()
		if stepErr != nil {
			return stepErr
		}
		if !cont {
			return nil
		}
	}
}

// RunDebug drives an interactive single-step REPL over stdin/stdout,
// mirroring the teacher's RunProgramDebugMode: n/next steps one
// instruction, r/run free-runs, b/break <addr> toggles a breakpoint,
// program lists the decoded instruction at PC.
func (m *Machine) RunDebug() (err error) {
	defer m.recoverToError(&err)

	fmt.Println("commands: n/next, r/run, b/break <addr>, program")
	m.printState()

	reader := bufio.NewReader(os.Stdin)
	waitForInput := true
	breakpoints := make(map[uint16]struct{})
	lastBreak := uint16(0xFFFF)

	for {
		line := ""
		if waitForInput {
			fmt.Print("\n-> ")
			line, _ = reader.ReadString('\n')
			line = strings.ToLower(strings.TrimSpace(line))
		} else if _, ok := breakpoints[m.PC]; ok && lastBreak != m.PC {
			fmt.Println("breakpoint")
			m.printState()
			waitForInput = true
			lastBreak = m.PC
			continue
		}

		switch {
		case !waitForInput || line == "n" || line == "next":
			lastBreak = 0xFFFF
			cont, stepErr := m.Step()
			if waitForInput {
				m.printState()
			}
			if stepErr != nil {
				return stepErr
			}
			if !cont {
				return nil
			}
		case line == "program":
			m.printDecodedAtPC()
		case line == "r" || line == "run":
			waitForInput = false
		case strings.HasPrefix(line, "b"):
			arg := strings.TrimSpace(strings.TrimPrefix(line, "b"))
			arg = strings.TrimSpace(strings.TrimPrefix(arg, "reak"))
			addr, parseErr := strconv.ParseUint(arg, 0, 16)
			if parseErr != nil {
				fmt.Println("unknown address:", parseErr)
				continue
			}
			a := uint16(addr)
			if _, ok := breakpoints[a]; ok {
				delete(breakpoints, a)
			} else {
				breakpoints[a] = struct{}{}
			}
		}
	}
}

func (m *Machine) printState() {
	fmt.Printf("PC: 0x%04X\n", m.PC)
	for i, r := range m.Reg {
		fmt.Printf("R%d: %d\t", i, r)
	}
	fmt.Println()
	fmt.Printf("n=%v z=%v p=%v supervisor=%v\n", m.PSR.N, m.PSR.Z, m.PSR.P, m.PSR.Supervisor)
}

func (m *Machine) printDecodedAtPC() {
	word1 := m.Memory[m.PC]
	double := IsDouble(word1)
	var word2 uint16
	if double {
		word2 = m.Memory[m.PC+1]
	}
	instr, err := Decode(word1, word2, double)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(Disassemble(instr))
}
