package syscall

import (
	"encoding/binary"

	"rvcore/clock"
	"rvcore/defs"
	"rvcore/proc"
	"rvcore/sync"
	"rvcore/vm"
)

// sysFork implements the fork, returning the child's pid to
// the parent. The child's own trap context already has a0=0 baked in by
// proc.Fork, so it never observes this return value.
func (d *Dispatcher) sysFork(th *proc.Thread) int64 {
	child := proc.Fork(th, d.Alloc, d.TrampolinePPN)
	return int64(child.Pid)
}

// readArgv walks a NUL-pointer-terminated array of user string pointers
// at va, translating each one, "exec(elf, argv)". A
// zero va (no argv) yields an empty argument list.
func readArgv(token uint64, va uintptr) ([][]byte, defs.Err_t) {
	if va == 0 {
		return nil, 0
	}
	var out [][]byte
	for {
		raw, err := vm.TranslatedRef(token, va, 8)
		if err != 0 {
			return nil, err
		}
		ptr := binary.LittleEndian.Uint64(raw)
		if ptr == 0 {
			break
		}
		s, serr := vm.TranslatedStr(token, uintptr(ptr))
		if serr != 0 {
			return nil, serr
		}
		out = append(out, []byte(s))
		va += 8
	}
	return out, 0
}

// sysExec implements the exec. Its return value becomes the
// fresh trap context's a0 (trap.HandleUserTrap always stashes the
// dispatch result into the current a0 after a syscall, and exec's
// "current" context by then is the brand new one), matching the argc
// proc.Exec already wrote there via SetArgs -- the two assignments agree
// by construction.
func (d *Dispatcher) sysExec(th *proc.Thread, pathVA, argvVA uintptr) int64 {
	token := th.KernelToken()
	path, err := vm.TranslatedStr(token, pathVA)
	if err != 0 {
		return -1
	}
	argv, aerr := readArgv(token, argvVA)
	if aerr != 0 {
		return -1
	}
	if d.FS == nil {
		return -1
	}
	file, ferr := d.FS.OpenFile(path)
	if ferr != 0 {
		return -1
	}
	image, rerr := file.ReadAll()
	if rerr != 0 {
		return -1
	}
	proc.Exec(th, image, d.Alloc, d.TrampolinePPN, argv)
	return int64(len(argv))
}

// sysGetTime implements the get_time syscall.
func sysGetTime() int64 { return clock.NowMs() }

// sysSleep implements the sleep syscall: arms a timer-wheel entry and
// blocks the caller.
func sysSleep(th *proc.Thread, ms int64) {
	sync.AddTimer(clock.NowMs()+ms, th)
	proc.BlockCurrentAndRunNext()
}

// sysWaitpid implements the waitpid: writes the reaped
// child's exit code through statusVA (if non-null) and returns its pid,
// -2 if a matching child exists but hasn't exited, -1 if there is none.
// A reaped child's mutex/semaphore/condvar tables are dropped.
func sysWaitpid(th *proc.Thread, pid defs.Pid_t, statusVA uintptr) int64 {
	res, ok, errno := proc.Waitpid(th.Process, pid)
	if !ok {
		if errno == defs.EAGAIN {
			return -2
		}
		return -1
	}
	CleanupSyncTables(res.Pid)
	if statusVA != 0 {
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(int32(res.ExitCode)))
		if cerr := vm.CopyOut(th.KernelToken(), statusVA, buf[:]); cerr != 0 {
			return -1
		}
	}
	return int64(res.Pid)
}

// sysWaittid implements the waittid: a thread-local
// waitpid, returning the joined thread's exit code directly.
func sysWaittid(th *proc.Thread, tid defs.Tid_t) int64 {
	code, ok, errno := proc.Waittid(th.Process, tid)
	if !ok {
		if errno == defs.EAGAIN {
			return -2
		}
		return -1
	}
	return int64(code)
}
