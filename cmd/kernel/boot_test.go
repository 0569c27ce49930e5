package main

import (
	"encoding/binary"
	"testing"

	"rvcore/defs"
	"rvcore/fs"
	"rvcore/mem"
	"rvcore/plic"
	"rvcore/proc"
)

// buildMinimalElf hand-assembles the smallest ELF64 RISC-V executable
// vm.FromELF will accept: one PT_LOAD segment of a few NOP instructions,
// entry equal to the segment's load address.
func buildMinimalElf() []byte {
	const vaddr = 0x10000
	code := []byte{0x13, 0x00, 0x00, 0x00, 0x13, 0x00, 0x00, 0x00} // two addi x0,x0,0 (nop)

	const ehsize = 64
	const phentsize = 56
	buf := make([]byte, ehsize+phentsize+len(code))

	copy(buf[0:4], []byte{0x7f, 'E', 'L', 'F'})
	buf[4] = 2 // ELFCLASS64
	buf[5] = 1 // little endian
	buf[6] = 1 // EI_VERSION

	le := binary.LittleEndian
	le.PutUint16(buf[16:], 2)      // e_type = ET_EXEC
	le.PutUint16(buf[18:], 0xF3)   // e_machine = EM_RISCV
	le.PutUint32(buf[20:], 1)      // e_version
	le.PutUint64(buf[24:], vaddr)  // e_entry
	le.PutUint64(buf[32:], ehsize) // e_phoff
	le.PutUint64(buf[40:], 0)      // e_shoff
	le.PutUint32(buf[48:], 0)      // e_flags
	le.PutUint16(buf[52:], ehsize)
	le.PutUint16(buf[54:], phentsize)
	le.PutUint16(buf[56:], 1) // e_phnum
	le.PutUint16(buf[58:], 0)
	le.PutUint16(buf[60:], 0)
	le.PutUint16(buf[62:], 0)

	ph := buf[ehsize:]
	le.PutUint32(ph[0:], 1)                 // p_type = PT_LOAD
	le.PutUint32(ph[4:], 5)                 // p_flags = R|X
	le.PutUint64(ph[8:], ehsize+phentsize)  // p_offset
	le.PutUint64(ph[16:], vaddr)            // p_vaddr
	le.PutUint64(ph[24:], vaddr)            // p_paddr
	le.PutUint64(ph[32:], uint64(len(code))) // p_filesz
	le.PutUint64(ph[40:], uint64(len(code))) // p_memsz
	le.PutUint64(ph[48:], 0x1000)            // p_align

	copy(buf[ehsize+phentsize:], code)
	return buf
}

func TestSetupWiresDispatcherHooksAndInitproc(t *testing.T) {
	frameAlloc := mem.NewFrameAllocator(mem.PPN(0x9000), mem.PPN(0xb000))
	memfs := fs.NewMemFS()
	memfs.Install("initproc", buildMinimalElf())

	cfg := BootConfig{
		FrameAlloc: frameAlloc,
		PLIC:       plic.New(defs.VirtPLIC),
		FS:         memfs,
		InitPath:   "initproc",
	}

	dispatcher := setup(cfg)
	if dispatcher == nil {
		t.Fatal("setup returned a nil dispatcher")
	}

	// setup's init process is pid 0 in a fresh process registry (the
	// first call to proc.New in this test binary's lifetime); confirm
	// it was registered and carries the three std descriptors and its
	// single leader thread.
	ip, ok := proc.LookupPid(0)
	if !ok {
		t.Fatal("setup did not register the init process under its pid")
	}

	ip.Inner.Access(func(pi *proc.ProcessInner) {
		if len(pi.Threads) != 1 {
			t.Fatalf("expected exactly one thread in the fresh process, got %d", len(pi.Threads))
		}
		for num := 0; num < 3; num++ {
			if _, ok := pi.Fds.Get(num); !ok {
				t.Fatalf("expected std descriptor %d installed", num)
			}
		}
		if _, ok := pi.Fds.Get(3); ok {
			t.Fatal("expected no descriptor beyond the three std ones")
		}
	})
}

func TestSetupFailsLoudlyWithoutInitprocImage(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected setup to panic when initproc is missing")
		}
	}()

	frameAlloc := mem.NewFrameAllocator(mem.PPN(0xb000), mem.PPN(0xd000))
	memfs := fs.NewMemFS()

	setup(BootConfig{
		FrameAlloc: frameAlloc,
		PLIC:       plic.New(defs.VirtPLIC),
		FS:         memfs,
		InitPath:   "initproc",
	})
}
