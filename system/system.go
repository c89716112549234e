// Package system wires memory, the MMU, the CPU and the console into
// one machine, and knows how to load an executable image and an
// optional RAM-filesystem blob into it before running.
package system

import (
	"encoding/binary"
	"fmt"
	"log"
	"os"

	"vm32/console"
	"vm32/cpu"
	"vm32/mmu"
)

// FSSize is the default size of the RAM-filesystem window reserved at
// the top of physical memory.
const FSSize = 4 << 20

// imageMagic identifies a valid executable image header.
const imageMagic = 0xC0DEF00D

// headerSize is the byte length of the four little-endian 32-bit
// header fields: magic, bss, entry, flags.
const headerSize = 16

// Machine owns physical memory and the devices built on top of it: the
// MMU, the CPU and the console.
type Machine struct {
	Memory  []byte
	MMU     *mmu.MMU
	CPU     *cpu.CPU
	Console *console.Console
	Log     *log.Logger
}

// New allocates memSize bytes of physical memory and wires an MMU, a
// CPU and a console over it, starting in supervisor mode with paging
// disabled.
func New(memSize int, logger *log.Logger) *Machine {
	mem := make([]byte, memSize)
	mu := mmu.New(mem)
	con := console.New()
	c := cpu.New(mu, con, logger)
	return &Machine{
		Memory:  mem,
		MMU:     mu,
		CPU:     c,
		Console: con,
		Log:     logger,
	}
}

// LoadImage reads the header and code+data blob at path into physical
// memory starting at offset 0, sets PC to the header's entry point and
// SP to the base of the RAM-filesystem window (memory size minus FSSize).
func (m *Machine) LoadImage(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	if len(data) < headerSize {
		return fmt.Errorf("image %s too short for header", path)
	}
	magic := binary.LittleEndian.Uint32(data[0:4])
	if magic != imageMagic {
		return fmt.Errorf("image %s: bad magic %#08x", path, magic)
	}
	entry := binary.LittleEndian.Uint32(data[8:12])

	body := data[headerSize:]
	if len(body) > len(m.Memory) {
		return fmt.Errorf("image %s (%d bytes) does not fit in %d bytes of memory", path, len(body), len(m.Memory))
	}
	copy(m.Memory, body)

	m.CPU.PC = entry
	m.CPU.SP = uint32(len(m.Memory)) - FSSize
	if m.Log != nil {
		m.Log.Printf("loaded %s: entry=%#08x sp=%#08x size=%d", path, entry, m.CPU.SP, len(body))
	}
	return nil
}

// LoadFilesystem reads the RAM-filesystem blob at path into physical
// memory at the top FSSize window.
func (m *Machine) LoadFilesystem(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read filesystem: %w", err)
	}
	off := len(m.Memory) - FSSize
	if off < 0 || len(data) > FSSize {
		return fmt.Errorf("filesystem %s (%d bytes) does not fit in the %d-byte window", path, len(data), FSSize)
	}
	copy(m.Memory[off:], data)
	if m.Log != nil {
		m.Log.Printf("loaded filesystem %s: %d bytes at offset %#08x", path, len(data), off)
	}
	return nil
}

// Run drives the CPU to completion and reports why it stopped.
func (m *Machine) Run() cpu.RunResult {
	return m.CPU.Run()
}
