package proc

import (
	"rvcore/defs"
	"rvcore/mem"
	"rvcore/vm"
)

// TaskUserRes owns a thread's per-thread user-space resources -- its
// user stack and trap-context page inside the owning process's address
// space, plus its kernel-stack slot in the shared kernel space -- and
// frees all three together: tid, kernel stack, user stack, and trap
// context are allocated together at thread_create and released together
// at exit.
type TaskUserRes struct {
	Tid defs.Tid_t
	Process *Process
	KStack *KernelStack
}

// ulimVPNRange returns the [bottom, top) VPN range a tid-th thread's
// user stack occupies, stacked downward below the process's program
// break with one guard page between threads, matching the kernel-stack
// layout's shape but inside user space instead of kernel space.
func ulimVPNRange(tid defs.Tid_t, ulimBase uintptr) (bottom, top mem.VPN) {
	perThread := uintptr(defs.UserStackSize + defs.PageSize)
	threadTop := ulimBase - uintptr(tid)*perThread
	threadBottom := threadTop - defs.UserStackSize
	return mem.VPN(threadBottom >> mem.PageShift), mem.VPN(threadTop >> mem.PageShift)
}

func trapCxVPN(tid defs.Tid_t) mem.VPN {
	top := uintptr(defs.TrapContextVA) - uintptr(tid)*defs.PageSize
	return mem.VPN(top >> mem.PageShift)
}

// AllocTaskUserRes allocates tid, kernel stack, and trap context for a
// new thread in proc, whose inner must already be locked by the caller
// (New/Fork/ThreadCreate all call this while holding proc.Inner).
// allocUserStack additionally maps a fresh user stack area at this tid's
// slot; Fork passes false because FromExistedUser has already cloned
// the parent's tid-0 stack area into the child's address space at the
// identical range, and mapping it again here would overlap it.
func AllocTaskUserRes(proc *Process, inner *ProcessInner, ulimBase uintptr, allocUserStack bool) *TaskUserRes {
	tid := inner.allocTid()
	if allocUserStack {
		bottom, top := ulimVPNRange(tid, ulimBase)
		inner.MemSet.Push(vm.NewMapArea(bottom, top, vm.Framed, vm.PteR|vm.PteW|vm.PteU), nil)
	}

	cxVPN := trapCxVPN(tid)
	inner.MemSet.Push(vm.NewMapArea(cxVPN, cxVPN+1, vm.Framed, vm.PteR|vm.PteW), nil)

	return &TaskUserRes{Tid: tid, Process: proc, KStack: AllocKernelStack()}
}

// UserStackTop returns the initial user SP for this thread.
func (r *TaskUserRes) UserStackTop(ulimBase uintptr) uintptr {
	_, top := ulimVPNRange(r.Tid, ulimBase)
	return top.Addr()
}

// TrapCxPPN locates the physical page backing this thread's trap
// context by walking the owning process's page table: the trap context
// page is mapped just below the trampoline, once per live thread.
func (r *TaskUserRes) TrapCxPPN(inner *ProcessInner) mem.PPN {
	ppn, ok := inner.PhysPageOf(trapCxVPN(r.Tid))
	if !ok {
		panic("proc: trap context not mapped")
	}
	return ppn
}

// Dealloc releases the user stack, trap context, and kernel stack, and
// returns the tid to the process's allocator.
func (r *TaskUserRes) Dealloc(inner *ProcessInner, ulimBase uintptr) {
	bottom, _ := ulimVPNRange(r.Tid, ulimBase)
	inner.MemSet.RemoveArea(bottom)
	inner.MemSet.RemoveArea(trapCxVPN(r.Tid))
	r.KStack.Dealloc()
	inner.TidAlloc.Dealloc(int(r.Tid))
}
