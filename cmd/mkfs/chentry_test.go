package main

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// riscvElfBytes builds the same minimal ELF64/RISC-V/ET_EXEC layout
// cmd/kernel's boot test uses, with a configurable initial entry value.
func riscvElfBytes(entry uint64) []byte {
	const ehsize = 64
	const phentsize = 56
	buf := make([]byte, ehsize+phentsize)

	copy(buf[0:4], []byte{0x7f, 'E', 'L', 'F'})
	buf[4] = 2 // ELFCLASS64
	buf[5] = 1 // ELFDATA2LSB
	buf[6] = 1 // EI_VERSION

	le := binary.LittleEndian
	le.PutUint16(buf[16:], 2)    // e_type = ET_EXEC
	le.PutUint16(buf[18:], 0xF3) // e_machine = EM_RISCV
	le.PutUint32(buf[20:], 1)    // e_version
	le.PutUint64(buf[24:], entry)
	le.PutUint64(buf[32:], ehsize) // e_phoff
	le.PutUint16(buf[52:], ehsize)
	le.PutUint16(buf[54:], phentsize)
	le.PutUint16(buf[56:], 1) // e_phnum
	return buf
}

func TestChentryPatchesEntryAddress(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kernel.elf")
	if err := os.WriteFile(path, riscvElfBytes(0x1000), 0o644); err != nil {
		t.Fatalf("write elf: %v", err)
	}

	var out bytes.Buffer
	if err := chentry(path, 0x8020_0000, &out); err != nil {
		t.Fatalf("chentry: %v", err)
	}

	patched, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read patched file: %v", err)
	}
	ef, err := elf.NewFile(bytes.NewReader(patched))
	if err != nil {
		t.Fatalf("parse patched elf: %v", err)
	}
	if ef.Entry != 0x8020_0000 {
		t.Fatalf("expected entry 0x80200000, got %#x", ef.Entry)
	}
}

func TestChentryRejectsNonRiscvMachine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.elf")
	raw := riscvElfBytes(0x1000)
	binary.LittleEndian.PutUint16(raw[18:], uint16(elf.EM_X86_64))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write elf: %v", err)
	}

	var out bytes.Buffer
	if err := chentry(path, 0x2000, &out); err == nil {
		t.Fatal("expected chentry to reject a non-RISC-V machine")
	}
}

func TestParseAddrAcceptsHexAndDecimal(t *testing.T) {
	v, err := parseAddr("0x80200000")
	if err != nil {
		t.Fatalf("parseAddr hex: %v", err)
	}
	if v != 0x80200000 {
		t.Fatalf("expected 0x80200000, got %#x", v)
	}
	v, err = parseAddr("42")
	if err != nil {
		t.Fatalf("parseAddr decimal: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
}

func TestParseAddrRejectsGarbage(t *testing.T) {
	if _, err := parseAddr("not-an-address"); err == nil {
		t.Fatal("expected an error for a non-numeric address")
	}
}
