// Package terminal adapts the host TTY into the machine's byte source/sink
// abstraction: raw mode, no line buffering, an optional alternate screen,
// and guaranteed mode restoration on close.
package terminal

import (
	"bufio"
	"os"

	"golang.org/x/term"
)

const (
	enterAltScreen = "\x1b[?1049h"
	exitAltScreen  = "\x1b[?1049l"
)

// Terminal wraps stdin/stdout in raw mode. It satisfies the machine
// package's ByteSource and ByteSink interfaces without either package
// importing the other.
type Terminal struct {
	in  *bufio.Reader
	out *bufio.Writer

	fd        int
	oldState  *term.State
	altScreen bool
}

// Open puts stdin into raw mode (a no-op restoring nothing if stdin isn't
// actually a TTY, e.g. under test or when piped) and optionally switches to
// the alternate screen buffer.
func Open(altScreen bool) (*Terminal, error) {
	t := &Terminal{
		in:        bufio.NewReader(os.Stdin),
		out:       bufio.NewWriter(os.Stdout),
		fd:        int(os.Stdin.Fd()),
		altScreen: altScreen,
	}

	if term.IsTerminal(t.fd) {
		old, err := term.MakeRaw(t.fd)
		if err != nil {
			return nil, err
		}
		t.oldState = old
	}

	if altScreen {
		if _, err := t.out.WriteString(enterAltScreen); err != nil {
			return nil, err
		}
		if err := t.out.Flush(); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (t *Terminal) ReadByte() (byte, error) { return t.in.ReadByte() }

func (t *Terminal) WriteByte(b byte) error { return t.out.WriteByte(b) }

func (t *Terminal) Flush() error { return t.out.Flush() }

// Close restores the alternate screen and terminal mode. It is safe to call
// even if Open never put the terminal into raw mode.
func (t *Terminal) Close() error {
	if t.altScreen {
		t.out.WriteString(exitAltScreen)
		t.out.Flush()
	}
	if t.oldState != nil {
		return term.Restore(t.fd, t.oldState)
	}
	return nil
}
