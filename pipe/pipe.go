// Package pipe implements the anonymous pipe the pipe
// syscall creates: a fixed-capacity ring buffer with two descriptor
// -table ends, using the usual head/tail modular-arithmetic ring-buffer
// shape (full/empty/wraparound-aware copy) over a plain []byte buffer,
// since this module's syscall layer hands read/write already-translated
// Go byte slices rather than raw user pages.
package pipe

import (
	"rvcore/defs"
	"rvcore/irq"
)

// Size is the fixed capacity of a pipe's ring buffer, one page.
const Size = defs.PageSize

type ring struct {
	buf [Size]byte
	head, tail int // head-tail (mod Size) is never negative; head >= tail always
	writers int
	readers int
}

func (r *ring) full() bool { return r.head-r.tail == Size }
func (r *ring) empty() bool { return r.head == r.tail }

// Pipe is the shared ring buffer backing both ends; Read/ReadEnd and
// Write/WriteEnd are thin fd.Ops adapters over it.
type Pipe struct {
	inner *irq.Cell[ring]
}

// New returns a pipe's two ends, each with one open reference, per
// the pipe syscall contract (returns a read fd and a write
// fd).
func New() (*ReadEnd, *WriteEnd) {
	p := &Pipe{inner: irq.NewCell(ring{readers: 1, writers: 1})}
	return &ReadEnd{p: p}, &WriteEnd{p: p}
}

// ReadEnd is the read side of a pipe; it implements fd.Ops.
type ReadEnd struct{ p *Pipe }

// WriteEnd is the write side of a pipe; it implements fd.Ops.
type WriteEnd struct{ p *Pipe }

// Read copies out whatever is currently buffered, up to len(buf),
// handling the wraparound case. Returns (0, 0) rather than
// blocking when the pipe is empty and still has a writer -- the syscall
// layer is responsible for retrying a 0-byte read against a non-closed
// pipe the way the EAGAIN-and-retry convention works elsewhere.
func (r *ReadEnd) Read(buf []byte) (int, defs.Err_t) {
	var n int
	r.p.inner.Access(func(rg *ring) {
		if rg.empty() {
			return
		}
		hi := rg.head % Size
		ti := rg.tail % Size
		var c int
		if ti < hi {
			c = copy(buf, rg.buf[ti:hi])
		} else {
			c = copy(buf, rg.buf[ti:])
			if c < len(buf) {
				c += copy(buf[c:], rg.buf[:hi])
			}
		}
		rg.tail += c
		n = c
	})
	return n, 0
}

// Write is a no-op for the read end; closing the reader and the writer
// still trying to write is the case Write on the write end surfaces as
// EPIPE.
func (r *ReadEnd) Write(buf []byte) (int, defs.Err_t) { return 0, defs.EBADF }

// Close drops this end's reader reference; once both ends close, the
// ring buffer is simply garbage -- it needs no explicit release step
// since it's a plain array, not a borrowed physical page.
func (r *ReadEnd) Close() defs.Err_t {
	r.p.inner.Access(func(rg *ring) { rg.readers-- })
	return 0
}

// Reopen bumps the reader refcount, used by fd.Table.Dup/Clone.
func (r *ReadEnd) Reopen() defs.Err_t {
	r.p.inner.Access(func(rg *ring) { rg.readers++ })
	return 0
}

// Write copies buf into the ring buffer's free space, up to its
// capacity, handling the wraparound case. Returns EPIPE if every reader
// has already closed.
func (w *WriteEnd) Write(buf []byte) (int, defs.Err_t) {
	var n int
	var broken bool
	w.p.inner.Access(func(rg *ring) {
		if rg.readers == 0 {
			broken = true
			return
		}
		if rg.full() {
			return
		}
		free := Size - (rg.head - rg.tail)
		room := buf
		if len(room) > free {
			room = room[:free]
		}
		hi := rg.head % Size
		ti := rg.tail % Size
		var c int
		if ti <= hi {
			// free space wraps: [hi:Size) then [0:ti)
			c = copy(rg.buf[hi:], room)
			if c < len(room) {
				c += copy(rg.buf[:ti], room[c:])
			}
		} else {
			// free space is the single contiguous gap [hi:ti)
			c = copy(rg.buf[hi:ti], room)
		}
		rg.head += c
		n = c
	})
	if broken {
		return 0, defs.EPIPE
	}
	return n, 0
}

// Read is a no-op for the write end.
func (w *WriteEnd) Read(buf []byte) (int, defs.Err_t) { return 0, defs.EBADF }

// Close drops this end's writer reference.
func (w *WriteEnd) Close() defs.Err_t {
	w.p.inner.Access(func(rg *ring) { rg.writers-- })
	return 0
}

// Reopen bumps the writer refcount.
func (w *WriteEnd) Reopen() defs.Err_t {
	w.p.inner.Access(func(rg *ring) { rg.writers++ })
	return 0
}
