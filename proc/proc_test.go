package proc

import (
	"encoding/binary"
	"sync"
	"testing"

	"rvcore/defs"
	"rvcore/irq"
	"rvcore/mem"
	"rvcore/vm"
)

// buildMinimalElf hand-assembles the smallest ELF64 RISC-V executable
// vm.FromELF will accept: one PT_LOAD segment of a few NOP instructions,
// entry equal to the segment's load address. Mirrors the fixture
// cmd/kernel's own boot tests build, duplicated here since that's an
// unexported helper in an unimportable main package.
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
	le.PutUint32(ph[0:], 1)                  // p_type = PT_LOAD
	le.PutUint32(ph[4:], 5)                  // p_flags = R|X
	le.PutUint64(ph[8:], ehsize+phentsize)   // p_offset
	le.PutUint64(ph[16:], vaddr)             // p_vaddr
	le.PutUint64(ph[24:], vaddr)             // p_paddr
	le.PutUint64(ph[32:], uint64(len(code))) // p_filesz
	le.PutUint64(ph[40:], uint64(len(code))) // p_memsz
	le.PutUint64(ph[48:], 0x1000)            // p_align

	copy(buf[ehsize+phentsize:], code)
	return buf
}

var kernelSpaceOnce sync.Once

// ensureKernelSpace installs a throwaway kernel address space so
// AllocKernelStack (invoked transitively by AllocTaskUserRes) has
// somewhere to map each thread's kernel stack, mirroring what
// cmd/kernel's boot sequence does once for real at startup.
func ensureKernelSpace(t *testing.T) {
	t.Helper()
	kernelSpaceOnce.Do(func() {
		kalloc := mem.NewFrameAllocator(mem.PPN(0x3000), mem.PPN(0x6000))
		ks := vm.NewBare(kalloc)
		ks.MapTrampoline(mem.PPN(0x2fff))
		vm.SetKernelSpace(ks)
	})
}

func TestRecycleAllocatorReissuesFreedIDsFirst(t *testing.T) {
	a := NewRecycleAllocator()
	id0 := a.Alloc()
	id1 := a.Alloc()
	id2 := a.Alloc()
	if id0 != 0 || id1 != 1 || id2 != 2 {
		t.Fatalf("got %d,%d,%d want 0,1,2", id0, id1, id2)
	}
	a.Dealloc(1)
	if got := a.Alloc(); got != 1 {
		t.Fatalf("expected freed id 1 to be reissued first, got %d", got)
	}
	if got := a.Alloc(); got != 3 {
		t.Fatalf("expected next fresh id 3, got %d", got)
	}
}

func TestRecycleAllocatorDoubleFreePanics(t *testing.T) {
	a := NewRecycleAllocator()
	id := a.Alloc()
	a.Dealloc(id)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double free")
		}
	}()
	a.Dealloc(id)
}

// newTestProcess builds a bare, ELF-free process (no code ever runs it --
// these tests only exercise resource bookkeeping and scheduling, not
// instruction execution) backed by a small host frame pool.
func newTestProcess(t *testing.T) (*Process, *mem.FrameAllocator) {
	t.Helper()
	ensureKernelSpace(t)
	alloc := mem.NewFrameAllocator(mem.PPN(0x1000), mem.PPN(0x2000))
	const trampolinePPN = mem.PPN(0x0fff)

	ms := vm.NewBare(alloc)
	ms.MapTrampoline(trampolinePPN)

	p := &Process{Pid: defs.Pid_t(pidAlloc.Alloc())}
	inner := newProcessInner(ms)
	const ulimBase = uintptr(0x40_0000)
	res := AllocTaskUserRes(p, &inner, ulimBase, true)
	th := newLeaderThread(p, res, ulimBase)
	inner.Threads = []*Thread{th}
	p.Inner = irq.NewCell(inner)

	registerPid(p)
	return p, alloc
}

func TestAllocTaskUserResGivesDistinctTids(t *testing.T) {
	p, _ := newTestProcess(t)
	var t1, t2 defs.Tid_t
	p.Inner.Access(func(pi *ProcessInner) {
		r1 := AllocTaskUserRes(p, pi, 0x40_0000, true)
		r2 := AllocTaskUserRes(p, pi, 0x40_0000, true)
		t1, t2 = r1.Tid, r2.Tid
	})
	if t1 == t2 {
		t.Fatalf("expected distinct tids, got %d and %d", t1, t2)
	}
}

// TestForkClonesAddressSpaceWithoutOverlapPanic guards against
// AllocTaskUserRes remapping a tid-0 user stack FromExistedUser already
// cloned into place -- MemorySet.Push panics on any overlapping area, so
// a regression here fails loudly rather than silently leaking pages.
func TestForkClonesAddressSpaceWithoutOverlapPanic(t *testing.T) {
	ensureKernelSpace(t)
	alloc := mem.NewFrameAllocator(mem.PPN(0x6000), mem.PPN(0x9000))
	const trampolinePPN = mem.PPN(0x0fff)

	parent := New(buildMinimalElf(), alloc, trampolinePPN)

	var leader *Thread
	parent.Inner.Access(func(pi *ProcessInner) { leader = pi.Threads[0] })

	child := Fork(leader, alloc, trampolinePPN)

	if child.Pid == parent.Pid {
		t.Fatalf("expected fork to produce a distinct pid, got %d for both", child.Pid)
	}

	var childTid defs.Tid_t
	child.Inner.Access(func(ci *ProcessInner) { childTid = ci.Threads[0].Res.Tid })
	if childTid != 0 {
		t.Fatalf("expected the forked child's leader thread to be tid 0, got %d", childTid)
	}
}

func TestSchedulerFIFOOrdering(t *testing.T) {
	p, _ := newTestProcess(t)
	var leader *Thread
	p.Inner.Access(func(pi *ProcessInner) { leader = pi.Threads[0] })

	// Drain any state left by other tests sharing the package-level
	// ready queue before asserting strict FIFO order.
	for fetchTask() != nil {
	}

	th2 := &Thread{Process: p, Res: leader.Res, Inner: irq.NewCell(ThreadInner{})}
	th3 := &Thread{Process: p, Res: leader.Res, Inner: irq.NewCell(ThreadInner{})}

	AddTask(leader)
	AddTask(th2)
	AddTask(th3)

	if got := fetchTask(); got != leader {
		t.Fatalf("expected leader fetched first")
	}
	if got := fetchTask(); got != th2 {
		t.Fatalf("expected th2 fetched second")
	}
	if got := fetchTask(); got != th3 {
		t.Fatalf("expected th3 fetched third")
	}
	if got := fetchTask(); got != nil {
		t.Fatalf("expected empty queue, got %v", got)
	}
}

func TestWaitpidReturnsEAGAINBeforeChildExits(t *testing.T) {
	parent, _ := newTestProcess(t)
	child, _ := newTestProcess(t)

	parent.Inner.Access(func(pi *ProcessInner) { pi.Children = append(pi.Children, child) })
	child.Inner.Access(func(ci *ProcessInner) { ci.Parent = parent })

	_, ok, errno := Waitpid(parent, child.Pid)
	if ok || errno != defs.EAGAIN {
		t.Fatalf("expected EAGAIN before exit, got ok=%v errno=%v", ok, errno)
	}

	child.Inner.Access(func(ci *ProcessInner) {
		ci.IsZombie = true
		ci.ExitCode = 7
	})

	res, ok, errno := Waitpid(parent, child.Pid)
	if !ok || errno != 0 {
		t.Fatalf("expected success after exit, got ok=%v errno=%v", ok, errno)
	}
	if res.Pid != child.Pid || res.ExitCode != 7 {
		t.Fatalf("unexpected wait result %+v", res)
	}

	if _, ok, errno := Waitpid(parent, child.Pid); ok || errno != defs.ESRCH {
		t.Fatalf("expected ESRCH once child already reaped, got ok=%v errno=%v", ok, errno)
	}
}

func TestWaitpidUnknownChildIsESRCH(t *testing.T) {
	parent, _ := newTestProcess(t)
	if _, ok, errno := Waitpid(parent, defs.Pid_t(999_999)); ok || errno != defs.ESRCH {
		t.Fatalf("expected ESRCH for unrelated pid, got ok=%v errno=%v", ok, errno)
	}
}
