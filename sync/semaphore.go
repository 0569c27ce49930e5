package sync

import (
	"container/list"

	"rvcore/irq"
	"rvcore/proc"
)

// Semaphore is the "integer counter + FIFO wait queue. down:
// decrement; if result < 0, enqueue and block. up: increment; if prior
// count was < 0, wake head." Grounded on rCore-tutorial's counting
// semaphore (referenced by os/src/syscall/sync.rs's semaphore_* calls;
// the struct itself follows the same UPIntrFreeCell<SemaphoreInner>
// shape as Mutex/Condvar).
type Semaphore struct {
	inner *irq.Cell[semaphoreInner]
}

type semaphoreInner struct {
	count int
	waitQ *list.List
}

// NewSemaphore returns a semaphore with the given initial count.
func NewSemaphore(initial int) *Semaphore {
	return &Semaphore{inner: irq.NewCell(semaphoreInner{count: initial, waitQ: list.New()})}
}

// Up increments the counter, waking the longest-waiting thread if the
// counter was negative beforehand.
func (s *Semaphore) Up() {
	var wake *proc.Thread
	s.inner.Access(func(in *semaphoreInner) {
		in.count++
		if in.count <= 0 {
			front := in.waitQ.Front()
			wake = front.Value.(*proc.Thread)
			in.waitQ.Remove(front)
		}
	})
	if wake != nil {
		proc.AddTask(wake)
	}
}

// Down decrements the counter, blocking the caller if the result went
// negative.
func (s *Semaphore) Down() {
	shouldBlock := false
	s.inner.Access(func(in *semaphoreInner) {
		in.count--
		if in.count < 0 {
			in.waitQ.PushBack(proc.Current())
			shouldBlock = true
		}
	})
	if shouldBlock {
		proc.BlockCurrentAndRunNext()
	}
}
