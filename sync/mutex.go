// Package sync implements the kernel's own mutex/semaphore/condvar/timer
// primitives — note this deliberately shadows the standard library's
// package name: these are syscall-visible objects a user thread blocks
// on via the scheduler, not the host goroutine-level locks
// `sync.Mutex` provides, so reusing the name "sync" inside this module
// (never imported alongside the standard package from the same file) is
// intentional rather than an oversight.
//
// Every primitive here is grounded on rCore-tutorial's
// os/src/sync/{mutex,condvar}.rs and os/src/timer.rs, adapted from its
// UPIntrFreeCell-guarded free functions into methods guarded by this
// module's own irq.Cell wrapper, with proc.Thread replacing
// Arc<TaskControlBlock>.
package sync

import (
	"container/list"

	"rvcore/irq"
	"rvcore/proc"
)

// Mutex is the common interface both mutex flavors implement -- kept so
// a caller (or Condvar.WaitWithMutex) can hold either flavor through one
// value, the same way rCore-tutorial's mutex.rs uses a Mutex trait
// object.
type Mutex interface {
	Lock()
	Unlock()
}

// MutexSpin is the "boolean guarded by a short critical
// section; on contention, yield and retry. No fairness."
type MutexSpin struct {
	locked *irq.Cell[bool]
}

// NewMutexSpin returns an unlocked spinning mutex.
func NewMutexSpin() *MutexSpin { return &MutexSpin{locked: irq.NewCell(false)} }

func (m *MutexSpin) Lock() {
	for {
		var wasLocked bool
		m.locked.Access(func(v *bool) {
			wasLocked = *v
			if !wasLocked {
				*v = true
			}
		})
		if !wasLocked {
			return
		}
		proc.SuspendCurrentAndRunNext()
	}
}

func (m *MutexSpin) Unlock() {
	m.locked.Access(func(v *bool) { *v = false })
}

// MutexBlocking is the "boolean + FIFO wait queue of TCBs.
// lock: if free, take; else enqueue self and block. unlock: if queue
// non-empty, wake head (directly transfers ownership, queue head
// observes mutex held); else clear."
type MutexBlocking struct {
	inner *irq.Cell[mutexBlockingInner]
}

type mutexBlockingInner struct {
	locked bool
	waitQ *list.List
}

// NewMutexBlocking returns an unlocked blocking mutex.
func NewMutexBlocking() *MutexBlocking {
	return &MutexBlocking{inner: irq.NewCell(mutexBlockingInner{waitQ: list.New()})}
}

func (m *MutexBlocking) Lock() {
	shouldBlock := false
	m.inner.Access(func(in *mutexBlockingInner) {
		if in.locked {
			in.waitQ.PushBack(proc.Current())
			shouldBlock = true
		} else {
			in.locked = true
		}
	})
	if shouldBlock {
		proc.BlockCurrentAndRunNext()
	}
}

func (m *MutexBlocking) Unlock() {
	m.inner.Access(func(in *mutexBlockingInner) {
		if front := in.waitQ.Front(); front != nil {
			woken := front.Value.(*proc.Thread)
			in.waitQ.Remove(front)
			// Ownership transfers directly to the woken thread: in.locked
			// stays true, matching the "directly transfers
			// ownership, queue head observes mutex held" rather than
			// clearing the flag and racing every waiter for it again.
			proc.AddTask(woken)
		} else {
			in.locked = false
		}
	})
}
