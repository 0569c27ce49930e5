package proc

import (
	"rvcore/defs"
	"rvcore/irq"
	"rvcore/trap"
)

// ThreadStatus is a thread's scheduling state: every live thread is in
// exactly one of Ready, Running, Blocked, and an exited thread that has
// not been reaped yet is Exited.
type ThreadStatus int

const (
	ThreadReady ThreadStatus = iota
	ThreadRunning
	ThreadBlocked
	ThreadExited
)

// Thread is the thread control block: a TaskUserRes plus the scheduling
// state __switch needs to resume it,. Grounded on
// rCore-tutorial's os/src/task/task.rs TaskControlBlock, generalized
// from its single-threaded-process shape to the one-PCB-many-TCBs
// model.
type Thread struct {
	Process *Process
	Res *TaskUserRes
	Inner *irq.Cell[ThreadInner]
}

// ThreadInner is guarded by Thread.Inner.
type ThreadInner struct {
	Status ThreadStatus
	TaskCx *TaskContext
	ExitCode int
	UlimBase uintptr // process's user-stack allocation base at thread creation
}

// TrapCx returns this thread's live trap context by walking its
// process's page table for the thread's trap-context page.
func (t *Thread) TrapCx() *trap.Context {
	var cx *trap.Context
	t.Process.Inner.Access(func(pi *ProcessInner) {
		cx = trap.ContextAt(t.Res.TrapCxPPN(pi))
	})
	return cx
}

// Status reports the thread's current scheduling state.
func (t *Thread) Status() ThreadStatus {
	var s ThreadStatus
	t.Inner.Access(func(ti *ThreadInner) { s = ti.Status })
	return s
}

// KernelToken returns the satp value to resume this thread's trap
// return with -- the owning process's address space.
func (t *Thread) KernelToken() uint64 {
	var token uint64
	t.Process.Inner.Access(func(pi *ProcessInner) { token = pi.MemSet.Token() })
	return token
}

// Pid returns the owning process's pid, used as the tgid-equivalent
// exposed to getpid.
func (t *Thread) Pid() defs.Pid_t { return t.Process.Pid }
