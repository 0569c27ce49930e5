package sync

import (
	"container/heap"

	"rvcore/irq"
	"rvcore/proc"
)

// Timer wheel: "min-heap keyed by expire-ms; add_timer(ms,
// task) enqueues; check_timer (called from timer IRQ) pops and wakes all
// expired entries." Grounded on rCore-tutorial's os/src/timer.rs TIMERS
// BinaryHeap<TimerCondVar>, reimplemented with container/heap (the
// standard library's heap interface) instead of hand-rolling one — the
// teacher itself reaches for container/list for its block cache
// (fs/lru.go) rather than a hand-rolled linked list, the same posture
// this module takes toward container/heap here.
type timerEntry struct {
	expireMs int64
	task *proc.Thread
}

type timerHeap []timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].expireMs < h[j].expireMs }
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x interface{}) { *h = append(*h, x.(timerEntry)) }
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

var timers = irq.NewCell(timerHeap{})

// AddTimer arms task to be woken by the first CheckTimer call whose
// nowMs (clock.NowMs on the timer tick) is at or past expireMs.
func AddTimer(expireMs int64, task *proc.Thread) {
	timers.Access(func(h *timerHeap) { heap.Push(h, timerEntry{expireMs: expireMs, task: task}) })
}

// RemoveTimer cancels every pending timer entry for task (used when a
// sleeping thread is woken early, e.g. by a killing signal), per
// os/src/timer.rs's remove_timer.
func RemoveTimer(task *proc.Thread) {
	timers.Access(func(h *timerHeap) {
		kept := (*h)[:0]
		for _, e := range *h {
			if e.task != task {
				kept = append(kept, e)
			}
		}
		*h = kept
		heap.Init(h)
	})
}

// CheckTimer pops and wakes every entry whose expiry is at or before
// nowMs, called from the SupervisorTimer trap path.
func CheckTimer(nowMs int64) {
	var wake []*proc.Thread
	timers.Access(func(h *timerHeap) {
		for h.Len() > 0 && (*h)[0].expireMs <= nowMs {
			e := heap.Pop(h).(timerEntry)
			wake = append(wake, e.task)
		}
	})
	for _, t := range wake {
		proc.AddTask(t)
	}
}
