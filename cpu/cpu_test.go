package cpu

import (
	"testing"

	"vm32/console"
	"vm32/mmu"
	"vm32/trap"
)

func encode(op opcode, imm int32) uint32 {
	return uint32(op) | uint32(imm)<<8
}

func newTestCPU(pages int) *CPU {
	mu := mmu.New(make([]byte, pages*mmu.PageSize))
	return New(mu, console.New(), nil)
}

func writeWord(m *mmu.MMU, addr, word uint32) {
	off := addr
	m.Memory[off] = byte(word)
	m.Memory[off+1] = byte(word >> 8)
	m.Memory[off+2] = byte(word >> 16)
	m.Memory[off+3] = byte(word >> 24)
}

// TestMinimalHalt covers the "minimal halt" scenario: LI a,0; HALT
// stops the processor with the cycle counter having advanced.
func TestMinimalHalt(t *testing.T) {
	c := newTestCPU(4)
	writeWord(c.MMU, 0, encode(LI, 0))
	writeWord(c.MMU, 4, encode(HALT, 0))

	c.Run()

	if !c.Halted() {
		t.Fatal("processor did not halt")
	}
	if c.Cycle < 2 {
		t.Errorf("cycle = %d, want >= 2", c.Cycle)
	}
}

// TestDivisionTrap covers the "division trap" scenario: dividing by a
// zero B delivers FARITH without touching A.
func TestDivisionTrap(t *testing.T) {
	c := newTestCPU(4)
	c.IEna = true // a delivered (non-fatal) trap requires iena=1 in supervisor mode
	c.IVec = 0x800
	c.SP = 2 * mmu.PageSize
	writeWord(c.MMU, 0, encode(LI, 10))
	writeWord(c.MMU, 4, encode(LBI, 0))
	writeWord(c.MMU, 8, encode(DIV, 0))

	c.Step()
	c.Step()
	c.Step()

	if c.A != 10 {
		t.Errorf("A = %d, want 10 (unmodified by the faulting DIV)", c.A)
	}
	if c.PC != c.IVec {
		t.Errorf("PC = %#x, want ivec %#x", c.PC, c.IVec)
	}
	if c.IEna {
		t.Error("IEna should be cleared while the trap is being delivered")
	}
}

// TestUserModePrivilege covers the "user-mode privilege" scenario: a
// privileged opcode executed in user mode traps FPRIV with the USER
// bit set, and the PC pushed onto the supervisor stack is the
// instruction's own address.
func TestUserModePrivilege(t *testing.T) {
	c := newTestCPU(4)
	c.User = true
	c.SSP = 3 * mmu.PageSize
	c.SP = 1 * mmu.PageSize
	writeWord(c.MMU, 0, encode(IVEC, 0))

	c.Step()

	if c.User {
		t.Error("fault in user mode should have switched to supervisor")
	}
	if c.Trap&^trap.USER != trap.FPRIV || !c.Trap.IsUser() {
		t.Errorf("trap = %s, want FPRIV|USER", c.Trap)
	}
	// push8 reserves 8 bytes per slot; PC was pushed first (deeper),
	// trap pushed second (on top, at c.SP).
	savedPC, ok := c.loadInt(c.SP+8, 4, false)
	if !ok {
		t.Fatal("could not read back saved PC")
	}
	if savedPC != 0 {
		t.Errorf("saved PC = %#x, want 0 (the IVEC instruction's own address)", savedPC)
	}
}

// TestPageFaultRestart covers the first half of the "page fault
// restart" scenario: a store to a read-only page faults FWPAGE with
// vadr set to the faulting address and control passed to the vector.
func TestPageFaultRestart(t *testing.T) {
	c := newTestCPU(16)
	c.IEna = true
	c.IVec = 0x800

	const pdirPhys, ptabPhys = 7 * mmu.PageSize, 8 * mmu.PageSize
	mapVPN := func(vpn, physPage, flags uint32) {
		pdeOff := pdirPhys + (vpn>>10)*4
		writeWord(c.MMU, pdeOff, ptabPhys|mmu.PteP|mmu.PteW|mmu.PteU)
		pteOff := ptabPhys + (vpn&0x3FF)*4
		writeWord(c.MMU, pteOff, physPage*mmu.PageSize|flags)
	}
	mapVPN(0, 0, mmu.PteP|mmu.PteU)               // code page, identity
	mapVPN(1, 5, mmu.PteP|mmu.PteU)                // target page, read-only
	mapVPN(3, 6, mmu.PteP|mmu.PteW|mmu.PteU)       // stack page

	c.MMU.PDir = pdirPhys
	c.MMU.VMem = true
	c.SSP = 3*mmu.PageSize + mmu.PageSize // top of the stack page
	c.SP = c.SSP

	target := uint32(1 * mmu.PageSize)
	// global(imm) = PC-after-fetch(=4) + imm
	writeWord(c.MMU, 0, encode(SG, int32(target-4)))

	c.Step()

	if c.Trap&^trap.USER != trap.FWPAGE {
		t.Fatalf("trap = %s, want FWPAGE", c.Trap)
	}
	if c.Vadr != target {
		t.Errorf("vadr = %#x, want %#x", c.Vadr, target)
	}
	if c.PC != c.IVec {
		t.Errorf("PC = %#x, want ivec %#x", c.PC, c.IVec)
	}
}

// TestBulkCopyAcrossPages covers the "bulk copy across pages"
// scenario: MCPY restarts cleanly at a page boundary, leaving A, B, C
// describing the unconsumed suffix when the second destination page
// is unmapped.
func TestBulkCopyAcrossPages(t *testing.T) {
	c := newTestCPU(32)

	const pdirPhys, ptabPhys = 20 * mmu.PageSize, 21 * mmu.PageSize
	mapVPN := func(vpn, physPage, flags uint32) {
		pdeOff := pdirPhys + (vpn>>10)*4
		writeWord(c.MMU, pdeOff, ptabPhys|mmu.PteP|mmu.PteW|mmu.PteU)
		pteOff := ptabPhys + (vpn&0x3FF)*4
		writeWord(c.MMU, pteOff, physPage*mmu.PageSize|flags)
	}
	mapVPN(0, 0, mmu.PteP|mmu.PteU) // code page, identity
	mapVPN(10, 10, mmu.PteP|mmu.PteU)
	mapVPN(11, 11, mmu.PteP|mmu.PteU)
	mapVPN(20, 15, mmu.PteP|mmu.PteW|mmu.PteU)
	// vpn 21 intentionally left unmapped

	c.MMU.PDir = pdirPhys
	c.MMU.VMem = true

	srcBase := uint32(10 * mmu.PageSize)
	dstBase := uint32(20 * mmu.PageSize)
	for i := uint32(0); i < 2*mmu.PageSize; i++ {
		c.MMU.Memory[10*mmu.PageSize+i] = byte(i)
	}

	writeWord(c.MMU, 0, encode(MCPY, 0))
	c.A = dstBase
	c.B = srcBase
	c.C = 2 * mmu.PageSize

	c.Step()

	if c.Trap != trap.FWPAGE {
		t.Fatalf("trap = %s, want FWPAGE", c.Trap)
	}
	if c.C != mmu.PageSize {
		t.Errorf("C = %d, want %d (one page left unconsumed)", c.C, mmu.PageSize)
	}
	if c.A != dstBase+mmu.PageSize || c.B != srcBase+mmu.PageSize {
		t.Errorf("A=%#x B=%#x, want A=%#x B=%#x", c.A, c.B, dstBase+mmu.PageSize, srcBase+mmu.PageSize)
	}
	for i := uint32(0); i < mmu.PageSize; i++ {
		if got, want := c.MMU.Memory[15*mmu.PageSize+i], byte(i); got != want {
			t.Fatalf("copied byte %d = %#x, want %#x", i, got, want)
			break
		}
	}
}

// TestPushPopRoundTrip covers the push/pop symmetry round-trip law.
func TestPushPopRoundTrip(t *testing.T) {
	c := newTestCPU(4)
	c.SP = 2 * mmu.PageSize
	writeWord(c.MMU, 0, encode(PSHA, 0))
	writeWord(c.MMU, 4, encode(POPB, 0))
	c.A = 0xdeadbeef

	c.Step()
	c.Step()

	if c.B != 0xdeadbeef {
		t.Errorf("B = %#x, want %#x", c.B, uint32(0xdeadbeef))
	}
	if c.SP != 2*mmu.PageSize {
		t.Errorf("SP = %#x, want back at %#x after a push/pop pair", c.SP, 2*mmu.PageSize)
	}
}

// TestJsrLevRoundTrip covers the call/return round-trip law.
func TestJsrLevRoundTrip(t *testing.T) {
	c := newTestCPU(4)
	c.SP = 2 * mmu.PageSize
	writeWord(c.MMU, 0, encode(JSR, 16)) // PC after fetch is 4, target = 4+16 = 20
	writeWord(c.MMU, 4, encode(LI, 99))  // would execute if LEV's return were wrong
	writeWord(c.MMU, 20, encode(ENT, 0))
	writeWord(c.MMU, 24, encode(LEV, 0))

	for i := 0; i < 3; i++ {
		c.Step()
	}

	if c.PC != 4 {
		t.Errorf("PC after LEV = %#x, want 4 (the JSR's return address)", c.PC)
	}
	if c.A == 99 {
		t.Error("LI at the skipped return site executed")
	}
}

// TestCliStiRoundTrip covers the CLI-immediately-followed-by-STI
// round-trip law: with no intervening pending interrupt, iena is
// restored exactly.
func TestCliStiRoundTrip(t *testing.T) {
	c := newTestCPU(4)
	c.IEna = true
	writeWord(c.MMU, 0, encode(CLI, 0))
	writeWord(c.MMU, 4, encode(STI, 0))

	c.Step()
	if c.IEna {
		t.Fatal("CLI did not disable interrupts")
	}
	c.Step()
	if !c.IEna {
		t.Error("STI did not restore interrupts with no pending interrupt")
	}
}

// TestRtiFlushesTLB covers the TLB-flush obligation spec section 3
// places on RTI, alongside PDIR's and SPAG's: a stale translation
// cached before the mode switch must not survive it.
func TestRtiFlushesTLB(t *testing.T) {
	c := newTestCPU(16)

	const pdirPhys, ptabPhys = 7 * mmu.PageSize, 8 * mmu.PageSize
	mapVPN := func(vpn, physPage, flags uint32) {
		pdeOff := pdirPhys + (vpn>>10)*4
		writeWord(c.MMU, pdeOff, ptabPhys|mmu.PteP|mmu.PteW|mmu.PteU)
		pteOff := ptabPhys + (vpn&0x3FF)*4
		writeWord(c.MMU, pteOff, physPage*mmu.PageSize|flags)
	}
	mapVPN(0, 0, mmu.PteP|mmu.PteU)          // code page, identity
	mapVPN(3, 3, mmu.PteP|mmu.PteW|mmu.PteU) // stack page, identity
	mapVPN(2, 5, mmu.PteP|mmu.PteU)          // page whose cached translation must not survive RTI

	c.MMU.PDir = pdirPhys
	c.MMU.VMem = true

	if _, _, _, ok := c.MMU.ResolveRead(false, 2*mmu.PageSize); !ok {
		t.Fatal("setup ResolveRead failed")
	}
	if c.MMU.KernelRead[2] == 0 {
		t.Fatal("setup did not populate the TLB")
	}

	c.SP = 3*mmu.PageSize + 16
	writeWord(c.MMU, c.SP, uint32(trap.FMEM))   // trap code, popped first
	writeWord(c.MMU, c.SP+8, 0)                 // saved PC, popped second
	writeWord(c.MMU, 0, encode(RTI, 0))

	c.Step()

	if c.MMU.KernelRead[2] != 0 {
		t.Error("RTI did not flush the TLB")
	}
}
