package syscall

import (
	"encoding/binary"

	"rvcore/defs"
	"rvcore/fd"
	"rvcore/pipe"
	"rvcore/proc"
	"rvcore/vm"
)

// lookupFd returns the Ops/perms installed at num in th's process, or
// EBADF if num is not currently open.
func lookupFd(th *proc.Thread, num int) (fd.Ops, int, defs.Err_t) {
	var ops fd.Ops
	var perms int
	var errno defs.Err_t
	th.Process.Inner.Access(func(pi *proc.ProcessInner) {
		f, ok := pi.Fds.Get(num)
		if !ok {
			errno = defs.EBADF
			return
		}
		ops, perms = f.Ops, f.Perms
	})
	return ops, perms, errno
}

// sysRead implements the read syscall: translate [va,
// va+length) against the caller's own address space and copy the
// descriptor's bytes into it.
func (d *Dispatcher) sysRead(th *proc.Thread, fdNum int, va uintptr, length int) int64 {
	ops, perms, errno := lookupFd(th, fdNum)
	if errno != 0 || perms&fd.Read == 0 {
		return -1
	}
	buf := make([]byte, length)
	n, err := ops.Read(buf)
	if err != 0 {
		return -1
	}
	if n > 0 {
		if werr := vm.CopyOut(th.KernelToken(), va, buf[:n]); werr != 0 {
			return -1
		}
	}
	return int64(n)
}

// sysWrite implements the write syscall.
func (d *Dispatcher) sysWrite(th *proc.Thread, fdNum int, va uintptr, length int) int64 {
	ops, perms, errno := lookupFd(th, fdNum)
	if errno != 0 || perms&fd.Write == 0 {
		return -1
	}
	buf := make([]byte, length)
	if rerr := vm.CopyIn(th.KernelToken(), va, buf); rerr != 0 {
		return -1
	}
	n, err := ops.Write(buf)
	if err != 0 {
		return -1
	}
	return int64(n)
}

// sysOpen implements the open syscall against the
// dispatcher's filesystem, installing the result as a fresh descriptor.
func (d *Dispatcher) sysOpen(th *proc.Thread, pathVA uintptr, flags int) int64 {
	if d.MemFS == nil {
		return -1
	}
	path, err := vm.TranslatedStr(th.KernelToken(), pathVA)
	if err != 0 {
		return -1
	}
	ops, ferr := d.MemFS.OpenFD(path, flags)
	if ferr != 0 {
		return -1
	}
	perms := fd.Read | fd.Write
	var num int
	var installErr defs.Err_t
	th.Process.Inner.Access(func(pi *proc.ProcessInner) {
		num, installErr = pi.Fds.Install(ops, perms)
	})
	if installErr != 0 {
		return -1
	}
	return int64(num)
}

// sysClose implements the close syscall.
func (d *Dispatcher) sysClose(th *proc.Thread, fdNum int) int64 {
	var errno defs.Err_t
	th.Process.Inner.Access(func(pi *proc.ProcessInner) { errno = pi.Fds.Close(fdNum) })
	if errno != 0 {
		return -1
	}
	return 0
}

// sysPipe implements the pipe syscall: installs both ends
// and writes their fd numbers as two little-endian usize words at va,
// read fd then write fd.
func (d *Dispatcher) sysPipe(th *proc.Thread, va uintptr) int64 {
	r, w := pipe.New()
	var rfd, wfd int
	var errno defs.Err_t
	th.Process.Inner.Access(func(pi *proc.ProcessInner) {
		rfd, errno = pi.Fds.Install(r, fd.Read)
		if errno != 0 {
			return
		}
		wfd, errno = pi.Fds.Install(w, fd.Write)
	})
	if errno != 0 {
		return -1
	}
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(rfd))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(wfd))
	if cerr := vm.CopyOut(th.KernelToken(), va, buf[:]); cerr != 0 {
		return -1
	}
	return 0
}

// sysDup implements the dup syscall.
func (d *Dispatcher) sysDup(th *proc.Thread, fdNum int) int64 {
	var newNum int
	var errno defs.Err_t
	th.Process.Inner.Access(func(pi *proc.ProcessInner) { newNum, errno = pi.Fds.Dup(fdNum) })
	if errno != 0 {
		return -1
	}
	return int64(newNum)
}
