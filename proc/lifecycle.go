package proc

import (
	"encoding/binary"
	"rvcore/defs"
	"rvcore/irq"
	"rvcore/mem"
	"rvcore/signal"
	"rvcore/trap"
	"rvcore/vm"
)

var pidAlloc = NewRecycleAllocator()

// pidTable maps every live pid to its Process, the lookup waitpid and
// kill need.
var pidTable = irq.NewCell(map[defs.Pid_t]*Process{})

func registerPid(p *Process) { pidTable.Access(func(m *map[defs.Pid_t]*Process) { (*m)[p.Pid] = p }) }
func unregisterPid(pid defs.Pid_t) {
	pidTable.Access(func(m *map[defs.Pid_t]*Process) { delete(*m, pid) })
}

// LookupPid returns the process registered under pid, if still live.
func LookupPid(pid defs.Pid_t) (*Process, bool) {
	var p *Process
	var ok bool
	pidTable.Access(func(m *map[defs.Pid_t]*Process) { p, ok = (*m)[pid] })
	return p, ok
}

// buildTrapContext is shared by New/ThreadCreate/Exec to build the initial trap
// context for a thread whose user entry/sp/args are already known,
// following the trampoline contract new threads and processes share.
func buildTrapContext(entry, userSP uintptr, kstackTop uintptr) *trap.Context {
	return trap.NewUserContext(entry, userSP, vm.KernelToken(), kstackTop, trapHandlerAddr)
}

// trapHandlerAddr is patched in by cmd/kernel's boot sequence with the
// address __alltraps should call into after saving registers; it has no
// meaningful value until then, the same way any assembly entry stub is
// only meaningful once linked into a bootable image.
var trapHandlerAddr uintptr

// SetTrapHandlerAddr installs the address new trap contexts are built
// with. Must be called once before any process is created.
func SetTrapHandlerAddr(addr uintptr) { trapHandlerAddr = addr }

// New creates a process from an ELF image: a fresh address space, a
// single tid-0 thread, and a brand new pid. (Exec does not go through
// New; it rebuilds an existing process in place.)
func New(elfImage []byte, alloc *mem.FrameAllocator, trampolinePPN mem.PPN) *Process {
	ms, userSP, entry, err := vm.FromELF(alloc, elfImage, trampolinePPN)
	if err != nil {
		panic(err)
	}

	p := &Process{Pid: defs.Pid_t(pidAlloc.Alloc())}
	inner := newProcessInner(ms)
	res := AllocTaskUserRes(p, &inner, userSP, true)
	th := newLeaderThread(p, res, userSP)

	inner.Threads = []*Thread{th}
	p.Inner = irq.NewCell(inner)

	cx := buildTrapContext(entry, res.UserStackTop(userSP), res.KStack.Top())
	p.Inner.Access(func(pi *ProcessInner) { *trap.ContextAt(res.TrapCxPPN(pi)) = *cx })

	registerPid(p)
	AddTask(th)
	return p
}

func newLeaderThread(p *Process, res *TaskUserRes, ulimBase uintptr) *Thread {
	return &Thread{
		Process: p,
		Res: res,
		Inner: irq.NewCell(ThreadInner{
			Status: ThreadReady,
			TaskCx: GotoTrapReturn(trapHandlerAddr, res.KStack.Top()),
			UlimBase: ulimBase,
		}),
	}
}

// ThreadCreate implements "thread_create": a new tid within
// the calling thread's process, sharing its address space, running
// entry(arg) on a fresh user stack. Returns the new tid.
func ThreadCreate(caller *Thread, entry, arg uintptr) defs.Tid_t {
	var newTh *Thread
	caller.Process.Inner.Access(func(pi *ProcessInner) {
		var ulimBase uintptr
		caller.Inner.Access(func(ci *ThreadInner) { ulimBase = ci.UlimBase })
		res := AllocTaskUserRes(caller.Process, pi, ulimBase, true)
		cx := buildTrapContext(entry, res.UserStackTop(ulimBase), res.KStack.Top())
		cx.SetArgs(uint64(arg), 0)
		*trap.ContextAt(res.TrapCxPPN(pi)) = *cx

		newTh = &Thread{
			Process: caller.Process,
			Res: res,
			Inner: irq.NewCell(ThreadInner{
				Status: ThreadReady,
				TaskCx: GotoTrapReturn(trapHandlerAddr, res.KStack.Top()),
				UlimBase: ulimBase,
			}),
		}
		placeThread(pi, newTh)
	})
	AddTask(newTh)
	return newTh.Res.Tid
}

// placeThread installs th at index th.Res.Tid in pi.Threads, growing the
// slice (padding with nils) if this tid has never been seen before, or
// overwriting a nil left by a reaped thread whose tid TidAlloc has since
// reissued -- Threads must stay indexed by tid, not merely append
// -ordered, once tids start getting recycled.
func placeThread(pi *ProcessInner, th *Thread) {
	idx := int(th.Res.Tid)
	for len(pi.Threads) <= idx {
		pi.Threads = append(pi.Threads, nil)
	}
	pi.Threads[idx] = th
}

// Fork implements "fork": clone the calling process's
// address space (copy-on-write is excluded by Non-goals, so this is a
// full eager copy via vm.FromExistedUser), single leader thread, new
// pid, registered as a child of the caller for waitpid to find.
func Fork(caller *Thread, alloc *mem.FrameAllocator, trampolinePPN mem.PPN) *Process {
	var child *Process
	caller.Process.Inner.Access(func(pi *ProcessInner) {
		childMS := vm.FromExistedUser(alloc, pi.MemSet, trampolinePPN)
		child = &Process{Pid: defs.Pid_t(pidAlloc.Alloc())}
		ci := newProcessInner(childMS)
		ci.Parent = caller.Process
		// fork inherits the parent's mask and installed handlers, but
		// starts with nothing pending and no handler in flight, per
		// "fork".
		ci.Signals.Mask = pi.Signals.Mask
		ci.Signals.Actions = pi.Signals.Actions

		// fork shares the parent's open descriptors.
		if cloned, err := pi.Fds.Clone(); err == 0 {
			ci.Fds = cloned
		}

		var ulimBase uintptr
		caller.Inner.Access(func(cin *ThreadInner) { ulimBase = cin.UlimBase })
		// FromExistedUser already cloned the parent's tid-0 stack area
		// into ci.MemSet at this exact range; only the trap context page
		// is fresh, so the cloned tid-0 trap-context area is dropped
		// before AllocTaskUserRes maps a new one there.
		ci.MemSet.RemoveArea(trapCxVPN(0))
		res := AllocTaskUserRes(child, &ci, ulimBase, false)

		parentCx := trap.ContextAt(caller.Res.TrapCxPPN(pi))
		th := newLeaderThread(child, res, ulimBase)
		ci.Threads = []*Thread{th}
		child.Inner = irq.NewCell(ci)

		child.Inner.Access(func(cpi *ProcessInner) {
			cx := *parentCx
			cx.X[trap.RegA0] = 0 // fork returns 0 in the child
			*trap.ContextAt(res.TrapCxPPN(cpi)) = cx
		})

		pi.Children = append(pi.Children, child)
	})

	registerPid(child)
	var leader *Thread
	child.Inner.Access(func(ci *ProcessInner) { leader = ci.Threads[0] })
	AddTask(leader)
	return child
}

// Exec implements "exec": replaces the calling process's
// address space in place (pid, parent, children are unchanged) and
// resets it to a single tid-0 thread running the new image's entry
// point. Because this allocates a brand new trap context, any caller
// holding a stale *trap.Context pointer from before Exec must re-fetch
// it -- exactly the "re-read the trap context since exec may have
// replaced it" rule trap.Hooks.CurrentTrapContext exists for.
func Exec(caller *Thread, elfImage []byte, alloc *mem.FrameAllocator, trampolinePPN mem.PPN, argv [][]byte) {
	ms, userSP, entry, err := vm.FromELF(alloc, elfImage, trampolinePPN)
	if err != nil {
		panic(err)
	}

	caller.Process.Inner.Access(func(pi *ProcessInner) {
		pi.MemSet = ms
		pi.TidAlloc = NewRecycleAllocator()
		pi.Threads = nil
		// exec discards the old image's handler addresses (they point
		// into memory that no longer exists) but keeps the process-wide
		// mask, matching POSIX execve's signal-disposition reset.
		pi.Signals.Actions = [defs.MaxSig]signal.Action{}
		pi.Signals.Pending = 0
		pi.Signals.HandlingSig = -1
		pi.Signals.Backup = nil

		res := AllocTaskUserRes(caller.Process, pi, userSP, true)
		caller.Res = res
		caller.Inner.Access(func(ci *ThreadInner) {
			ci.UlimBase = userSP
			ci.TaskCx = GotoTrapReturn(trapHandlerAddr, res.KStack.Top())
		})
		pi.Threads = []*Thread{caller}

		sp, argvBase := pushArgv(ms.Token(), res.UserStackTop(userSP), argv)

		cx := buildTrapContext(entry, sp, res.KStack.Top())
		cx.SetArgs(uint64(len(argv)), uint64(argvBase))
		*trap.ContextAt(res.TrapCxPPN(pi)) = *cx
	})
}

// pushArgv writes each argv string (NUL-terminated) onto the user stack
// below sp, pointer-aligned, then a NUL-terminated array of their
// addresses, "exec": "push argv strings onto the user
// stack, aligning to pointer size". Returns the new stack pointer and
// the address of the pointer array (argv_base) for a0/a1.
func pushArgv(token uint64, sp uintptr, argv [][]byte) (uintptr, uintptr) {
	ptrs := make([]uintptr, len(argv))
	for i, a := range argv {
		s := append(append([]byte(nil), a...), 0)
		sp -= uintptr(len(s))
		if err := vm.CopyOut(token, sp, s); err != 0 {
			panic(err)
		}
		ptrs[i] = sp
	}

	sp &^= 7 // align before the pointer array itself
	sp -= 8 // NULL terminator
	var zero [8]byte
	if err := vm.CopyOut(token, sp, zero[:]); err != 0 {
		panic(err)
	}
	for i := len(ptrs) - 1; i >= 0; i-- {
		sp -= 8
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(ptrs[i]))
		if err := vm.CopyOut(token, sp, buf[:]); err != 0 {
			panic(err)
		}
	}
	return sp, sp
}

// ExitCurrentAndRunNext implements "exit": marks the
// current thread Exited with exitCode; if it is the process's tid-0
// thread (or asProcess is set, matching a real exit(2) rather than a
// single thread returning), the whole process becomes a zombie,
// reparenting its children onto the init process and recording
// exitCode for waitpid. Either way control never returns -- schedule
// switches straight to the idle loop's RunTasks iteration.
func ExitCurrentAndRunNext(exitCode int, asProcess bool) {
	t := takeCurrent()
	if t == nil {
		return
	}

	var cx TaskContext
	t.Inner.Access(func(ti *ThreadInner) {
		ti.Status = ThreadExited
		ti.ExitCode = exitCode
	})

	isLeader := t.Res.Tid == 0
	if asProcess || isLeader {
		zombifyProcess(t.Process, exitCode, t)
	}

	schedule(&cx)
}

// zombifyProcess marks proc a zombie, reparents its children to the
// init process, releases its user address space and open descriptors,
// and records exitCode for waitpid to collect. exiting is the thread
// whose exit triggered this call -- its kernel stack is still in use
// (schedule hasn't switched off it yet), so it's the one thread whose
// KStack must not be freed here.
func zombifyProcess(proc *Process, exitCode int, exiting *Thread) {
	var children []*Process
	pid := proc.Pid
	proc.Inner.Access(func(pi *ProcessInner) {
		pi.IsZombie = true
		pi.ExitCode = exitCode

		for _, th := range pi.Threads {
			if th == nil {
				continue
			}
			th.Inner.Access(func(ti *ThreadInner) { ti.Status = ThreadExited })
			if th != exiting {
				th.Res.KStack.Dealloc()
			}
		}

		// Every user frame (stacks, trap contexts) is released in one
		// shot rather than per thread, and the thread table collapses to
		// a single placeholder entry -- nothing reaps individual threads
		// once the whole process is a zombie.
		pi.MemSet.RecycleDataPages()
		pi.Fds.CloseAll()
		if len(pi.Threads) > 1 {
			pi.Threads = pi.Threads[:1]
		}

		children = pi.Children
		pi.Children = nil
	})

	if initProc != nil && initProc != proc {
		initProc.Inner.Access(func(ii *ProcessInner) {
			for _, c := range children {
				c.Inner.Access(func(ci *ProcessInner) { ci.Parent = initProc })
				ii.Children = append(ii.Children, c)
			}
		})
	}

	if onExit != nil {
		onExit(pid)
	}
}

// initProc is the reparenting target every orphaned child is handed to,
// set once by cmd/kernel's boot sequence after New.
var initProc *Process

// SetInitProc records the init process built at boot as the reparenting
// target.
func SetInitProc(p *Process) { initProc = p }

// onExit, if set, is called with a process's pid once it has been
// zombified. The syscall layer installs this to drop the pid's
// mutex/semaphore/condvar table -- proc can't import that package
// directly without a cycle (it already imports proc for scheduling).
var onExit func(pid defs.Pid_t)

// SetOnProcessExit installs the hook zombifyProcess calls after a
// process becomes a zombie.
func SetOnProcessExit(f func(pid defs.Pid_t)) { onExit = f }

// WaitResult is what Waitpid/Waittid report for a reaped child/thread.
type WaitResult struct {
	Pid defs.Pid_t
	Tid defs.Tid_t
	ExitCode int
}

// Waitpid implements : pid == -1 waits for any child,
// otherwise a specific one. Returns ok=false with errno EAGAIN if the
// targeted child(ren) exist but haven't exited yet (the "try again"
// sentinel; the caller retries), and ok=false with errno ESRCH if there
// is no matching child at all.
func Waitpid(caller *Process, pid defs.Pid_t) (res WaitResult, ok bool, errno defs.Err_t) {
	var found bool
	var zombieIdx = -1
	var result WaitResult

	caller.Inner.Access(func(pi *ProcessInner) {
		for i, c := range pi.Children {
			if pid != -1 && c.Pid != pid {
				continue
			}
			found = true
			var isZombie bool
			var code int
			c.Inner.Access(func(ci *ProcessInner) {
				isZombie = ci.IsZombie
				code = ci.ExitCode
			})
			if isZombie {
				zombieIdx = i
				result = WaitResult{Pid: c.Pid, ExitCode: code}
				break
			}
		}
		if zombieIdx >= 0 {
			pi.Children = append(pi.Children[:zombieIdx], pi.Children[zombieIdx+1:]...)
		}
	})

	if !found {
		return WaitResult{}, false, defs.ESRCH
	}
	if zombieIdx < 0 {
		return WaitResult{}, false, defs.EAGAIN
	}
	unregisterPid(result.Pid)
	return result, true, 0
}

// Waittid implements the thread-local analogue of waitpid:
// reaps a non-leader thread of the calling process once it has exited.
func Waittid(caller *Process, tid defs.Tid_t) (code int, ok bool, errno defs.Err_t) {
	var result int
	var status ThreadStatus
	var found bool

	caller.Inner.Access(func(pi *ProcessInner) {
		idx := int(tid)
		if idx <= 0 || idx >= len(pi.Threads) || pi.Threads[idx] == nil {
			return
		}
		found = true
		th := pi.Threads[idx]
		th.Inner.Access(func(ti *ThreadInner) {
			status = ti.Status
			result = ti.ExitCode
		})
		if status == ThreadExited {
			var ulimBase uintptr
			th.Inner.Access(func(ti *ThreadInner) { ulimBase = ti.UlimBase })
			th.Res.Dealloc(pi, ulimBase)
			pi.Threads[idx] = nil
		}
	})

	if !found {
		return 0, false, defs.EINVAL
	}
	if status != ThreadExited {
		return 0, false, defs.EAGAIN
	}
	return result, true, 0
}
