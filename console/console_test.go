package console

import (
	"bytes"
	"testing"
)

func TestPoll_EmptyWithoutInput(t *testing.T) {
	c := &Console{in: make(chan byte)}
	if _, ok := c.Poll(); ok {
		t.Error("Poll() on an empty channel returned ok=true")
	}
}

func TestPoll_ReturnsBufferedByte(t *testing.T) {
	c := &Console{in: make(chan byte, 1)}
	c.in <- 'X'
	b, ok := c.Poll()
	if !ok || b != 'X' {
		t.Errorf("Poll() = (%q, %v), want ('X', true)", b, ok)
	}
	if _, ok := c.Poll(); ok {
		t.Error("Poll() after draining the channel returned ok=true")
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	c := &Console{Out: &buf}
	c.Write('Z')
	if buf.String() != "Z" {
		t.Errorf("Write() wrote %q, want %q", buf.String(), "Z")
	}
}
