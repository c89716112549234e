package system

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func writeImage(t *testing.T, dir string, entry, bss, flags uint32, body []byte) string {
	t.Helper()
	hdr := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(hdr[0:4], imageMagic)
	binary.LittleEndian.PutUint32(hdr[4:8], bss)
	binary.LittleEndian.PutUint32(hdr[8:12], entry)
	binary.LittleEndian.PutUint32(hdr[12:16], flags)

	path := filepath.Join(dir, "image.bin")
	if err := os.WriteFile(path, append(hdr, body...), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	body := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	path := writeImage(t, dir, 0x100, 0, 0, body)

	m := New(8<<20, nil)
	if err := m.LoadImage(path); err != nil {
		t.Fatalf("LoadImage() error = %v", err)
	}
	if m.CPU.PC != 0x100 {
		t.Errorf("PC = %#x, want 0x100", m.CPU.PC)
	}
	if want := uint32(len(m.Memory) - FSSize); m.CPU.SP != want {
		t.Errorf("SP = %#x, want %#x", m.CPU.SP, want)
	}
	for i, b := range body {
		if m.Memory[i] != b {
			t.Errorf("memory[%d] = %#x, want %#x", i, m.Memory[i], b)
		}
	}
}

func TestLoadImage_BadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bin")
	if err := os.WriteFile(path, make([]byte, headerSize), 0644); err != nil {
		t.Fatal(err)
	}

	m := New(8<<20, nil)
	if err := m.LoadImage(path); err == nil {
		t.Error("LoadImage() with a zero header should have failed on bad magic")
	}
}

func TestLoadImage_TooShort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0644); err != nil {
		t.Fatal(err)
	}

	m := New(8<<20, nil)
	if err := m.LoadImage(path); err == nil {
		t.Error("LoadImage() on a too-short file should have failed")
	}
}

func TestLoadFilesystem(t *testing.T) {
	dir := t.TempDir()
	fsPath := filepath.Join(dir, "fs.img")
	data := []byte("hello filesystem")
	if err := os.WriteFile(fsPath, data, 0644); err != nil {
		t.Fatal(err)
	}

	m := New(8<<20, nil)
	if err := m.LoadFilesystem(fsPath); err != nil {
		t.Fatalf("LoadFilesystem() error = %v", err)
	}
	off := len(m.Memory) - FSSize
	if got := m.Memory[off : off+len(data)]; string(got) != string(data) {
		t.Errorf("filesystem window = %q, want %q", got, data)
	}
}
