// Package fd implements the process-level file descriptor table this
// kernel's syscall surface (read/write/close/dup/pipe/open) sits on top
// of: a descriptor pairing an operations interface with permission
// bits, a reopen-on-dup duplication step, and a "close must succeed"
// invariant for teardown paths, narrowed to a read/write/close/reopen
// surface since sockets and on-disk files are out of scope here.
package fd

import "rvcore/defs"

// Permission bits for an open descriptor.
const (
	Read = 0x1
	Write = 0x2
	Cloexec = 0x4
)

// Ops is what every open file description (pipe end, in-memory file)
// must implement to sit behind a descriptor number.
type Ops interface {
	Read(buf []byte) (int, defs.Err_t)
	Write(buf []byte) (int, defs.Err_t)
	Close() defs.Err_t
	// Reopen is called by Dup to let the underlying object bump any
	// reference count it keeps (a pipe end's refcount, say); objects
	// with nothing to share on dup just return 0.
	Reopen() defs.Err_t
}

// Fd is one open file descriptor: an operations interface plus the
// permission bits checked before every read/write.
type Fd struct {
	Ops Ops
	Perms int
}

// Copy duplicates fd by reopening its underlying Ops -- used by
// Table.Dup and by fork (children share open fds).
func (f *Fd) Copy() (*Fd, defs.Err_t) {
	nf := &Fd{Ops: f.Ops, Perms: f.Perms}
	if err := nf.Ops.Reopen(); err != 0 {
		return nil, err
	}
	return nf, 0
}

// ClosePanic closes f and panics if the underlying Ops reports failure
// -- used where a close is known to be infallible (e.g. tearing down a
// process's whole table at exit).
func ClosePanic(f *Fd) {
	if f.Ops.Close() != 0 {
		panic("fd: close must succeed")
	}
}
