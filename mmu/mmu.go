// Package mmu implements the two-level paged virtual-to-physical address
// translation and the software TLB that backs it.
//
// The reference emulator encodes each cached translation as a host
// pointer XOR'd with the virtual address, so that recovering the host
// address at the hot path is a single XOR with no branch. That trick
// only pays off when the "pointer" really is a raw host address; here
// translations index into a Go byte slice, so the cache instead stores
// the page-aligned physical offset directly (biased by one so that a
// zero slot unambiguously means "no cached translation", since offset 0
// is itself a legal physical page). The caller recovers the host offset
// with one OR of the low 12 bits of v, which is just as branch-free.
package mmu

import (
	"encoding/binary"

	"vm32/trap"
)

const (
	// PageSize is the size of a single virtual/physical page.
	PageSize = 4096
	// pageShift is log2(PageSize).
	pageShift = 12

	// TLBSize is the number of virtual pages addressable by a 32-bit
	// address space (2^32 / PageSize), i.e. one slot per possible VPN.
	TLBSize = 1 << 20

	// TPages bounds the number of distinct cached translations tracked
	// for a wholesale flush before the TLB flushes itself automatically.
	TPages = 4096
)

// Page table entry / directory entry flag bits.
const (
	PteP = 0x001 // Present
	PteW = 0x002 // Writeable
	PteU = 0x004 // User-accessible
	PteA = 0x020 // Accessed
	PteD = 0x040 // Dirty
)

// MMU owns the page-directory pointer, the virtual-memory-enabled flag,
// and the four parallel TLB arrays (kernel/user x read/write). It reads
// and writes page-table entries directly in the physical memory slice it
// is given at construction.
type MMU struct {
	Memory []byte

	// PDir is the physical byte offset of the page directory; zero means
	// none has been installed yet.
	PDir uint32
	// VMem is the virtual-memory-enabled flag.
	VMem bool

	KernelRead, KernelWrite []uint32
	UserRead, UserWrite     []uint32

	// CurrentRead/CurrentWrite alias whichever pair is active for the
	// processor's current privilege level; swapped by SwitchMode at
	// every mode transition, never reassigned elsewhere.
	CurrentRead, CurrentWrite []uint32

	tpage  [TPages]uint32
	tpages int
}

// New allocates the four TLB arrays over mem and returns an MMU with
// paging disabled, starting in kernel (supervisor) mode.
func New(mem []byte) *MMU {
	m := &MMU{
		Memory:      mem,
		KernelRead:  make([]uint32, TLBSize),
		KernelWrite: make([]uint32, TLBSize),
		UserRead:    make([]uint32, TLBSize),
		UserWrite:   make([]uint32, TLBSize),
	}
	m.SwitchMode(false)
	return m
}

// SwitchMode points CurrentRead/CurrentWrite at the kernel or user TLB
// arrays. Must be called at every privilege transition and nowhere else.
func (m *MMU) SwitchMode(user bool) {
	if user {
		m.CurrentRead, m.CurrentWrite = m.UserRead, m.UserWrite
	} else {
		m.CurrentRead, m.CurrentWrite = m.KernelRead, m.KernelWrite
	}
}

// Flush clears every recorded TLB entry across all four arrays. Callers
// (PDIR, SPAG, RTI, and the automatic flush below) are responsible for
// invoking it whenever the translation context changes.
func (m *MMU) Flush() {
	for i := 0; i < m.tpages; i++ {
		vpn := m.tpage[i]
		m.KernelRead[vpn] = 0
		m.KernelWrite[vpn] = 0
		m.UserRead[vpn] = 0
		m.UserWrite[vpn] = 0
	}
	m.tpages = 0
}

// HostOffset recovers the physical byte offset for virtual address v
// given a non-zero TLB token previously returned through one of the
// Current*/Kernel*/User* arrays.
func HostOffset(token, v uint32) uint32 {
	return (token - 1) | (v & (PageSize - 1))
}

// ResolveRead returns the host byte offset for a read of v: a TLB hit
// costs one slice index, a miss falls through to the full page-table
// walk and installs the result for next time. This is the fast path
// every load and instruction fetch goes through.
func (m *MMU) ResolveRead(user bool, v uint32) (off uint32, code trap.Code, vadr uint32, ok bool) {
	if tok := m.CurrentRead[v>>pageShift]; tok != 0 {
		return HostOffset(tok, v), 0, 0, true
	}
	base, code, vadr, ok := m.TranslateRead(user, v)
	if !ok {
		return 0, code, vadr, false
	}
	return base | (v & (PageSize - 1)), 0, 0, true
}

// ResolveWrite is ResolveRead's write-side counterpart.
func (m *MMU) ResolveWrite(user bool, v uint32) (off uint32, code trap.Code, vadr uint32, ok bool) {
	if tok := m.CurrentWrite[v>>pageShift]; tok != 0 {
		return HostOffset(tok, v), 0, 0, true
	}
	base, code, vadr, ok := m.TranslateWrite(user, v)
	if !ok {
		return 0, code, vadr, false
	}
	return base | (v & (PageSize - 1)), 0, 0, true
}

// setPage installs a translation for the page containing v into all four
// TLB arrays, according to the effective writeable/userable permission,
// and returns the page-aligned physical base. It is the only path that
// mutates the TLB arrays and their bookkeeping list.
func (m *MMU) setPage(v, physBase uint32, writable, userable bool) (uint32, trap.Code, uint32, bool) {
	physBase &^= PageSize - 1
	if physBase >= uint32(len(m.Memory)) {
		return 0, trap.FMEM, v, false
	}
	vpn := v >> pageShift
	if m.KernelRead[vpn] == 0 {
		if m.tpages >= TPages {
			m.Flush()
		}
		m.tpage[m.tpages] = vpn
		m.tpages++
	}
	token := physBase + 1
	m.KernelRead[vpn] = token
	if writable {
		m.KernelWrite[vpn] = token
	} else {
		m.KernelWrite[vpn] = 0
	}
	if userable {
		m.UserRead[vpn] = token
	} else {
		m.UserRead[vpn] = 0
	}
	if userable && writable {
		m.UserWrite[vpn] = token
	} else {
		m.UserWrite[vpn] = 0
	}
	return physBase, 0, 0, true
}

func (m *MMU) readEntry(off uint32) (uint32, bool) {
	if uint64(off)+4 > uint64(len(m.Memory)) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m.Memory[off : off+4]), true
}

func (m *MMU) writeEntry(off, v uint32) {
	binary.LittleEndian.PutUint32(m.Memory[off:off+4], v)
}

// TranslateRead performs the slow-path page-table walk for a read access
// from virtual address v, installing the resulting translation into the
// TLB before returning its page-aligned physical base (the caller adds
// the in-page offset). On failure it returns the fault code and bad
// virtual address to report.
func (m *MMU) TranslateRead(user bool, v uint32) (phys uint32, code trap.Code, vadr uint32, ok bool) {
	if !m.VMem {
		return m.setPage(v, v, true, true)
	}
	pdeOff := m.PDir + (v>>22)*4
	pde, inRange := m.readEntry(pdeOff)
	if !inRange {
		return 0, trap.FMEM, v, false
	}
	if pde&PteP == 0 {
		return 0, trap.FRPAGE, v, false
	}
	if pde&PteA == 0 {
		m.writeEntry(pdeOff, pde|PteA)
	}
	pteOff := (pde &^ (PageSize - 1)) + ((v >> 10) & 0xFFC)
	pte, inRange := m.readEntry(pteOff)
	if !inRange {
		return 0, trap.FMEM, v, false
	}
	q := pte & pde
	userable := q&PteU != 0
	if pte&PteP == 0 || !(userable || !user) {
		return 0, trap.FRPAGE, v, false
	}
	if pte&PteA == 0 {
		m.writeEntry(pteOff, pte|PteA)
	}
	// Dirty-bit trick: a writeable-but-not-yet-dirty page is installed
	// read-only in the write arrays, so the first real write still goes
	// through TranslateWrite and sets D there.
	writable := pte&PteD != 0 && q&PteW != 0
	return m.setPage(v, pte&^(PageSize-1), writable, userable)
}

// TranslateWrite performs the slow-path page-table walk for a write
// access, setting the Accessed/Dirty bits on success and installing the
// resulting translation into the TLB. Like TranslateRead it returns the
// page-aligned physical base.
func (m *MMU) TranslateWrite(user bool, v uint32) (phys uint32, code trap.Code, vadr uint32, ok bool) {
	if !m.VMem {
		return m.setPage(v, v, true, true)
	}
	pdeOff := m.PDir + (v>>22)*4
	pde, inRange := m.readEntry(pdeOff)
	if !inRange {
		return 0, trap.FMEM, v, false
	}
	if pde&PteP == 0 {
		return 0, trap.FWPAGE, v, false
	}
	if pde&PteA == 0 {
		m.writeEntry(pdeOff, pde|PteA)
	}
	pteOff := (pde &^ (PageSize - 1)) + ((v >> 10) & 0xFFC)
	pte, inRange := m.readEntry(pteOff)
	if !inRange {
		return 0, trap.FMEM, v, false
	}
	q := pte & pde
	userable := q&PteU != 0
	if pte&PteP == 0 || !((userable || !user) && q&PteW != 0) {
		return 0, trap.FWPAGE, v, false
	}
	if pte&(PteD|PteA) != (PteD | PteA) {
		m.writeEntry(pteOff, pte|PteD|PteA)
	}
	return m.setPage(v, pte&^(PageSize-1), q&PteW != 0, userable)
}
