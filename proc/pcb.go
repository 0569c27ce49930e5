package proc

import (
	"rvcore/defs"
	"rvcore/fd"
	"rvcore/irq"
	"rvcore/mem"
	"rvcore/signal"
	"rvcore/vm"
)

// Process is the per-process control block: a plain struct behind a
// lock, accessed through methods, following rCore-tutorial's
// ProcessControlBlock for the field set a preemptive multitasking
// kernel needs -- an address space, a thread table indexed by tid, and
// the parent/child tree waitpid walks.
type Process struct {
	Pid defs.Pid_t
	Inner *irq.Cell[ProcessInner]
}

// ProcessInner is guarded by Process.Inner; every field here may only be
// touched from inside an Access closure.
type ProcessInner struct {
	MemSet *vm.MemorySet

	Parent *Process
	Children []*Process

	// Threads is indexed by tid; an exited-and-reaped thread's slot is
	// set to nil rather than removed, so tids already handed out by
	// TidAlloc never collide with a live index. Tid 0 is always the
	// process's leader thread, "exit".
	Threads []*Thread
	TidAlloc *RecycleAllocator

	IsZombie bool
	ExitCode int

	// Signals is the process-wide signal bookkeeping, guarded by the same
	// Inner cell as everything else here rather than its own lock,
	// matching process.rs embedding
	// signal_mask/signal_recv/signal_actions/handling_sig/
	// trap_ctx_backup directly on ProcessControlBlockInner.
	Signals *signal.State

	// Fds is the process's open-file-descriptor table, shared by the
	// read/write/close/dup/pipe/open syscalls.
	Fds *fd.Table
}

// newProcessInner builds an inner block around an already populated
// address space (from vm.FromELF or vm.FromExistedUser), with a fresh
// tid allocator, signal state and descriptor table.
func newProcessInner(ms *vm.MemorySet) ProcessInner {
	return ProcessInner{
		MemSet: ms,
		TidAlloc: NewRecycleAllocator(),
		Signals: signal.NewState(),
		Fds: fd.NewTable(),
	}
}

// LeaderThread returns the process's tid-0 thread, which always exists
// for a live (non-zombie) process.
func (pi *ProcessInner) LeaderThread() *Thread {
	if len(pi.Threads) == 0 {
		return nil
	}
	return pi.Threads[0]
}

// AllocTid claims the next tid (recycling one freed by a reaped thread
// first), mirroring the kernel-stack-slot allocator's policy but scoped
// per process rather than system-wide.
func (pi *ProcessInner) allocTid() defs.Tid_t {
	return defs.Tid_t(pi.TidAlloc.Alloc())
}

// PhysPageOf walks this process's page table to find the physical page
// backing vpn -- used by TaskUserRes to locate a thread's trap context.
func (pi *ProcessInner) PhysPageOf(vpn mem.VPN) (mem.PPN, bool) {
	pte, ok := pi.MemSet.Translate(vpn)
	if !ok {
		return 0, false
	}
	return pte.PPN(), true
}
