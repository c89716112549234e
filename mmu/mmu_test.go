package mmu

import (
	"encoding/binary"
	"testing"

	"vm32/trap"
)

func newTestMMU(pages int) *MMU {
	return New(make([]byte, pages*PageSize))
}

func putEntry(mem []byte, off, v uint32) {
	binary.LittleEndian.PutUint32(mem[off:off+4], v)
}

// mapOnePage installs a page directory at physical page 0 and a page
// table at physical page 1 mapping virtual page vpn to physical page
// physPage with the given flags.
func mapOnePage(m *MMU, vpn, physPage uint32, flags uint32) {
	const pdirPhys = 0
	const ptabPhys = PageSize
	putEntry(m.Memory, pdirPhys+(vpn>>10)*4, ptabPhys|PteP|PteW|PteU)
	putEntry(m.Memory, ptabPhys+(vpn&0x3FF)*4, (physPage*PageSize)|flags)
	m.PDir = pdirPhys
	m.VMem = true
}

func TestTranslateRead_Unpaged(t *testing.T) {
	m := newTestMMU(4)
	off, code, _, ok := m.TranslateRead(false, 0x2000)
	if !ok || code != 0 || off != 0x2000 {
		t.Fatalf("TranslateRead() = %#x, %v, %v; want identity mapping", off, code, ok)
	}
}

func TestTranslateRead_Paged(t *testing.T) {
	m := newTestMMU(8)
	mapOnePage(m, 2, 5, PteP|PteW|PteU)

	off, code, _, ok := m.TranslateRead(true, 2*PageSize+0x10)
	if !ok {
		t.Fatalf("TranslateRead() failed with code %v", code)
	}
	// TranslateRead returns the page base; the in-page 0x10 is added by
	// the caller (ResolveRead).
	if want := 5 * PageSize; off != uint32(want) {
		t.Errorf("off = %#x, want %#x", off, want)
	}
}

func TestTranslateRead_NotPresent(t *testing.T) {
	m := newTestMMU(8)
	mapOnePage(m, 2, 5, 0) // no PteP

	_, code, vadr, ok := m.TranslateRead(false, 2*PageSize)
	if ok {
		t.Fatal("TranslateRead() succeeded on a not-present page")
	}
	if code != trap.FRPAGE || vadr != 2*PageSize {
		t.Errorf("code=%v vadr=%#x, want FRPAGE at %#x", code, vadr, 2*PageSize)
	}
}

func TestTranslateWrite_DirtyBitDeferred(t *testing.T) {
	m := newTestMMU(8)
	mapOnePage(m, 2, 5, PteP|PteW|PteU)

	// First read installs a read-only write-array entry (dirty bit not
	// yet set), so a write through the cached entry must still re-walk.
	if _, _, _, ok := m.TranslateRead(false, 2*PageSize); !ok {
		t.Fatal("TranslateRead() failed")
	}
	if tok := m.CurrentWrite[2]; tok != 0 {
		t.Errorf("write TLB entry installed before first write: %#x", tok)
	}

	off, code, _, ok := m.TranslateWrite(false, 2*PageSize+4)
	if !ok {
		t.Fatalf("TranslateWrite() failed with code %v", code)
	}
	if want := 5 * PageSize; off != uint32(want) {
		t.Errorf("off = %#x, want %#x", off, want)
	}
	if tok := m.CurrentWrite[2]; tok == 0 {
		t.Error("write TLB entry not installed after TranslateWrite")
	}
}

func TestTranslateWrite_ReadOnlyFaults(t *testing.T) {
	m := newTestMMU(8)
	mapOnePage(m, 2, 5, PteP|PteU) // no PteW

	_, code, vadr, ok := m.TranslateWrite(false, 2*PageSize)
	if ok {
		t.Fatal("TranslateWrite() succeeded on a read-only page")
	}
	if code != trap.FWPAGE || vadr != 2*PageSize {
		t.Errorf("code=%v vadr=%#x, want FWPAGE at %#x", code, vadr, 2*PageSize)
	}
}

func TestResolveRead_CachesAfterMiss(t *testing.T) {
	m := newTestMMU(8)
	mapOnePage(m, 2, 5, PteP|PteW|PteU)

	off1, _, _, ok := m.ResolveRead(false, 2*PageSize+8)
	if !ok {
		t.Fatal("ResolveRead() miss path failed")
	}
	if m.CurrentRead[2] == 0 {
		t.Fatal("ResolveRead() did not populate the TLB on a miss")
	}
	off2, _, _, ok := m.ResolveRead(false, 2*PageSize+8)
	if !ok || off1 != off2 {
		t.Errorf("ResolveRead() hit path = %#x, want %#x", off2, off1)
	}
}

func TestFlush_ClearsAllFourArrays(t *testing.T) {
	m := newTestMMU(8)
	mapOnePage(m, 2, 5, PteP|PteW|PteU)
	if _, _, _, ok := m.ResolveRead(true, 2*PageSize); !ok {
		t.Fatal("setup ResolveRead failed")
	}
	if m.UserRead[2] == 0 {
		t.Fatal("setup did not populate UserRead")
	}
	m.Flush()
	if m.KernelRead[2] != 0 || m.KernelWrite[2] != 0 || m.UserRead[2] != 0 || m.UserWrite[2] != 0 {
		t.Error("Flush() left a non-zero TLB entry")
	}
}

func TestSwitchMode_SelectsArrays(t *testing.T) {
	m := newTestMMU(2)
	m.SwitchMode(true)
	if &m.CurrentRead[0] != &m.UserRead[0] {
		t.Error("SwitchMode(true) did not select the user arrays")
	}
	m.SwitchMode(false)
	if &m.CurrentRead[0] != &m.KernelRead[0] {
		t.Error("SwitchMode(false) did not select the kernel arrays")
	}
}
