// Package cpu implements the fetch/decode/execute loop for the 32-bit
// paged virtual processor: its registers, the dense opcode dispatch
// table, the trap/interrupt engine, and the restartable bulk memory
// operations. It is the busiest package in the module and the one
// every memory access ultimately funnels through the mmu package to
// reach.
package cpu

import (
	"encoding/binary"
	"log"
	"math"

	"vm32/console"
	"vm32/mmu"
	"vm32/trap"
)

// TickInterval is how many instructions the dispatcher executes
// between device polls. The reference emulator paces this off
// host-pointer arithmetic (every 4096 bytes of fetched instructions,
// i.e. 1024 32-bit words); we keep the same cadence by counting
// instructions directly instead of reconstructing that arithmetic.
const TickInterval = 1024

// CPU holds the full architectural and emulation state of one
// processor: its registers, privilege/interrupt state, the MMU it
// drives, and the console device it talks to.
type CPU struct {
	A, B, C uint32
	F, G    float64

	PC, SP   uint32
	USP, SSP uint32

	User  bool
	IEna  bool
	IPend trap.Code
	Trap  trap.Code
	Vadr  uint32
	IVec  uint32

	Timer, Timeout uint32
	KBChar         int32 // buffered keystroke; -1 if none

	Cycle uint64

	// LastInst is the most recently fetched instruction word, kept
	// only so a fatal halt can report it alongside the registers.
	LastInst uint32

	MMU     *mmu.MMU
	Console *console.Console
	Log     *log.Logger

	halted  bool
	escaped bool
	steps   uint64
}

// New returns a CPU wired to mu and con, starting in supervisor mode
// with paging disabled and no buffered keystroke.
func New(mu *mmu.MMU, con *console.Console, logger *log.Logger) *CPU {
	return &CPU{
		MMU:     mu,
		Console: con,
		Log:     logger,
		IEna:    false,
		KBChar:  -1,
	}
}

// RunResult reports why Run stopped.
type RunResult int

const (
	Halted RunResult = iota
	Escaped
)

// Run executes guest instructions until HALT in supervisor mode or
// an escape keystroke is polled by the device tick.
func (c *CPU) Run() RunResult {
	for !c.halted && !c.escaped {
		c.Step()
	}
	if c.escaped {
		return Escaped
	}
	return Halted
}

// Step fetches, decodes and dispatches exactly one guest instruction,
// then delivers any trap the opcode raised. Exported so the debugger
// can single-step without duplicating the loop.
func (c *CPU) Step() {
	if c.halted || c.escaped {
		return
	}
	c.steps++
	if c.steps%TickInterval == 0 {
		c.tick()
		if c.halted || c.escaped {
			return
		}
	}

	faultPC := c.PC
	word, ok := c.fetch(c.PC)
	if !ok {
		c.deliverTrap(faultPC)
		return
	}
	c.PC += 4
	c.Cycle++
	c.LastInst = word

	op := opcode(word & 0xFF)
	imm := int32(word) >> 8

	c.Trap = 0
	fn := dispatch[op]
	if fn == nil {
		c.Trap = trap.FINST
	} else {
		fn(c, imm)
	}
	if c.Trap != 0 {
		c.deliverTrap(faultPC)
	}
}

// Halted reports whether Run/Step has stopped the processor.
func (c *CPU) Halted() bool { return c.halted || c.escaped }

// fetch reads one instruction word at guest virtual address v.
func (c *CPU) fetch(v uint32) (uint32, bool) {
	off, code, vadr, ok := c.MMU.ResolveRead(c.User, v)
	if !ok {
		if code == trap.FRPAGE {
			code = trap.FIPAGE
		}
		c.Trap, c.Vadr = code, vadr
		return 0, false
	}
	return binary.LittleEndian.Uint32(c.MMU.Memory[off : off+4]), true
}

// loadMem and storeMem are the uniform memory-access helpers every
// load/store/stack opcode funnels through. Each access costs one TLB
// array index on the fast path; a miss falls through to the MMU's
// page-table walk.
func (c *CPU) loadMem(v uint32, size uint32) (uint64, bool) {
	off, code, vadr, ok := c.MMU.ResolveRead(c.User, v)
	if !ok {
		c.Trap, c.Vadr = code, vadr
		return 0, false
	}
	return readLE(c.MMU.Memory[off:off+size], size), true
}

func (c *CPU) storeMem(v uint32, size uint32, val uint64) bool {
	off, code, vadr, ok := c.MMU.ResolveWrite(c.User, v)
	if !ok {
		c.Trap, c.Vadr = code, vadr
		return false
	}
	writeLE(c.MMU.Memory[off:off+size], val, size)
	return true
}

func readLE(b []byte, size uint32) uint64 {
	switch size {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	default:
		return binary.LittleEndian.Uint64(b)
	}
}

func writeLE(b []byte, val uint64, size uint32) {
	switch size {
	case 1:
		b[0] = byte(val)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(val))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(val))
	default:
		binary.LittleEndian.PutUint64(b, val)
	}
}

// push8 reserves 8 bytes below SP, as every PSH*/JSR return-address
// slot does in the reference encoding, and writes size bytes of val
// into the low end of that slot.
func (c *CPU) push8(val uint64, size uint32) bool {
	sp := c.SP - 8
	if !c.storeMem(sp, size, val) {
		return false
	}
	c.SP = sp
	return true
}

func (c *CPU) pop8(size uint32) (uint64, bool) {
	val, ok := c.loadMem(c.SP, size)
	if !ok {
		return 0, false
	}
	c.SP += 8
	return val, true
}

func floatBits(f float64) uint64   { return math.Float64bits(f) }
func bitsFloat(v uint64) float64   { return math.Float64frombits(v) }
func float32Bits(f float64) uint32 { return math.Float32bits(float32(f)) }
func bitsFloat32(v uint32) float64 { return float64(math.Float32frombits(v)) }
