// Package syscall is the kernel's numeric dispatcher over ids:
// read/write/open/close/pipe/dup, fork/exec/exit/waitpid/yield/getpid/
// get_time/sleep, kill/sigaction/sigprocmask/sigreturn,
// thread_create/gettid/waittid, mutex/sem/condvar create+op. Arguments
// are user pointers; every access goes through translation helpers
// using the current user satp.
//
// This package is where proc, signal, fd, pipe, fs, and sync all meet:
// none of them may import each other directly (proc cannot import sync,
// which itself imports proc; fd cannot import proc, which embeds a
// *fd.Table), so the syscall layer is the one place allowed to wire them
// together.
package syscall

import (
	"rvcore/defs"
	"rvcore/fs"
	"rvcore/mem"
	"rvcore/proc"
)

// Dispatcher holds the host-side state a syscall body needs beyond what
// the calling thread/process already carries: the filesystem backing
// open/exec, and the frame allocator + trampoline physical page fork and
// exec need to build a fresh address space.
type Dispatcher struct {
	FS fs.Provider
	MemFS *fs.MemFS // same value as FS when non-nil; open(2) needs OpenFD, which Provider doesn't expose
	Alloc *mem.FrameAllocator
	TrampolinePPN mem.PPN
}

// NewDispatcher builds a Dispatcher backed by a MemFS, cmd/kernel's boot
// -time filesystem the "out-of-scope collaborator" note.
func NewDispatcher(fs_ *fs.MemFS, alloc *mem.FrameAllocator, trampolinePPN mem.PPN) *Dispatcher {
	return &Dispatcher{FS: fs_, MemFS: fs_, Alloc: alloc, TrampolinePPN: trampolinePPN}
}

// Dispatch implements trap.Hooks.Syscall's exact signature: dispatch
// syscall number id with up to three arguments, returning the value to
// place in a0. Per the "Return convention: non-negative
// result, or -1 (generic failure), or -2 (child exists but not ready)".
func (d *Dispatcher) Dispatch(id uint64, args [3]uint64) int64 {
	th := proc.Current()
	if th == nil {
		panic("syscall: Dispatch called with no current thread")
	}

	switch id {
	case defs.SysRead:
		return d.sysRead(th, int(args[0]), uintptr(args[1]), int(args[2]))
	case defs.SysWrite:
		return d.sysWrite(th, int(args[0]), uintptr(args[1]), int(args[2]))
	case defs.SysOpen:
		return d.sysOpen(th, uintptr(args[0]), int(args[1]))
	case defs.SysClose:
		return d.sysClose(th, int(args[0]))
	case defs.SysPipe:
		return d.sysPipe(th, uintptr(args[0]))
	case defs.SysDup:
		return d.sysDup(th, int(args[0]))

	case defs.SysFork:
		return d.sysFork(th)
	case defs.SysExec:
		return d.sysExec(th, uintptr(args[0]), uintptr(args[1]))
	case defs.SysExit:
		proc.ExitCurrentAndRunNext(int(int32(args[0])), false)
		panic("syscall: exit must not return")
	case defs.SysYield:
		proc.SuspendCurrentAndRunNext()
		return 0
	case defs.SysGetpid:
		return int64(th.Pid())
	case defs.SysGetTime:
		return sysGetTime()
	case defs.SysSleep:
		sysSleep(th, int64(args[0]))
		return 0
	case defs.SysWaitpid:
		return sysWaitpid(th, defs.Pid_t(int32(args[0])), uintptr(args[1]))

	case defs.SysThreadCreate:
		return int64(proc.ThreadCreate(th, uintptr(args[0]), uintptr(args[1])))
	case defs.SysGettid:
		return int64(th.Res.Tid)
	case defs.SysWaittid:
		return sysWaittid(th, defs.Tid_t(int32(args[0])))

	case defs.SysKill:
		return sysKill(defs.Pid_t(int32(args[0])), defs.Sig_t(args[1]))
	case defs.SysSigaction:
		return sysSigaction(th, defs.Sig_t(args[0]), uintptr(args[1]), uintptr(args[2]))
	case defs.SysSigprocmask:
		return sysSigprocmask(th, uint32(args[0]))
	case defs.SysSigreturn:
		return sysSigreturn(th)

	case defs.SysMutexCreate:
		return int64(sysMutexCreate(th, args[0] != 0))
	case defs.SysMutexLock:
		return sysMutexLock(th, int(args[0]))
	case defs.SysMutexUnlock:
		return sysMutexUnlock(th, int(args[0]))
	case defs.SysSemaphoreCreate:
		return int64(sysSemaphoreCreate(th, int(args[0])))
	case defs.SysSemaphoreUp:
		return sysSemaphoreUp(th, int(args[0]))
	case defs.SysSemaphoreDown:
		return sysSemaphoreDown(th, int(args[0]))
	case defs.SysCondvarCreate:
		return int64(sysCondvarCreate(th))
	case defs.SysCondvarSignal:
		return sysCondvarSignal(th, int(args[0]))
	case defs.SysCondvarWait:
		return sysCondvarWait(th, int(args[0]), int(args[1]))
	}

	return -1
}
