package sync

import (
	"container/list"

	"rvcore/irq"
	"rvcore/proc"
)

// Condvar is the "FIFO wait queue of TCBs". Grounded on
// rCore-tutorial's os/src/sync/condvar.rs.
type Condvar struct {
	inner *irq.Cell[condvarInner]
}

type condvarInner struct {
	waitQ *list.List
}

// NewCondvar returns an empty condition variable.
func NewCondvar() *Condvar {
	return &Condvar{inner: irq.NewCell(condvarInner{waitQ: list.New()})}
}

// Signal wakes the longest-waiting thread, a no-op if none are waiting.
func (c *Condvar) Signal() {
	var wake *proc.Thread
	c.inner.Access(func(in *condvarInner) {
		if front := in.waitQ.Front(); front != nil {
			wake = front.Value.(*proc.Thread)
			in.waitQ.Remove(front)
		}
	})
	if wake != nil {
		proc.AddTask(wake)
	}
}

// WaitWithMutex implements : unlock m, enqueue self, block,
// relock m on wake.
func (c *Condvar) WaitWithMutex(m Mutex) {
	m.Unlock()
	c.inner.Access(func(in *condvarInner) { in.waitQ.PushBack(proc.Current()) })
	proc.BlockCurrentAndRunNext()
	m.Lock()
}

// WaitNoSched implements the variant "used by device drivers
// that must not hold device locks across a suspension": it enqueues the
// caller and marks it Blocked but does NOT itself switch away, returning
// the task context so the caller can drop its own locks first and then
// call proc.Schedule explicitly.
func (c *Condvar) WaitNoSched() *proc.TaskContext {
	c.inner.Access(func(in *condvarInner) { in.waitQ.PushBack(proc.Current()) })
	return proc.BlockCurrentTask()
}
