// Package console implements the emulator's single keyboard/console
// device: a non-blocking keystroke source polled by the dispatcher's
// tick, and a byte sink for BOUT.
package console

import (
	"io"
	"os"
)

// Escape is the keystroke that aborts the emulator ungracefully.
const Escape = '`'

// Console reads host stdin on its own goroutine and hands each byte
// over an unbuffered channel, so that Poll never blocks the
// dispatcher, and writes BOUT
// bytes straight through to Out.
type Console struct {
	in  chan byte
	Out io.Writer
}

// New starts the background stdin reader and returns a Console
// writing to os.Stdout.
func New() *Console {
	c := &Console{
		in:  make(chan byte),
		Out: os.Stdout,
	}
	go c.readStdin()
	return c
}

func (c *Console) readStdin() {
	var b [1]byte
	for {
		n, err := os.Stdin.Read(b[:])
		if n == 1 {
			c.in <- b[0]
		}
		if err != nil {
			close(c.in)
			return
		}
	}
}

// Poll returns the next buffered keystroke without blocking. ok is
// false when nothing has arrived since the last call.
func (c *Console) Poll() (ch byte, ok bool) {
	select {
	case b, open := <-c.in:
		if !open {
			return 0, false
		}
		return b, true
	default:
		return 0, false
	}
}

// Write sends one byte to the host console, emulating BOUT to file
// descriptor 1.
func (c *Console) Write(b byte) {
	c.Out.Write([]byte{b})
}
