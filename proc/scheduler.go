package proc

import (
	"container/list"

	"rvcore/irq"
)

// readyQueue is the single global FIFO ready queue calls
// for ("no priorities, no per-core queues — Non-goals exclude both"),
// guarded the same way every other global singleton is.
var readyQueue = irq.NewCell(list.New())

// AddTask pushes t onto the back of the ready queue and marks it Ready.
func AddTask(t *Thread) {
	t.Inner.Access(func(ti *ThreadInner) { ti.Status = ThreadReady })
	readyQueue.Access(func(q **list.List) { (*q).PushBack(t) })
}

// fetchTask pops the thread at the front of the ready queue, or nil if
// empty.
func fetchTask() *Thread {
	var t *Thread
	readyQueue.Access(func(q **list.List) {
		if front := (*q).Front(); front != nil {
			t = front.Value.(*Thread)
			(*q).Remove(front)
		}
	})
	return t
}

// processor is the single-hart scheduler's own state: which thread is
// currently running, and the idle context run_tasks switches back to
// between threads, "Processor/idle-context pivot".
type processor struct {
	current *Thread
	idleCx TaskContext
}

var theProcessor = &processor{}

// Current returns the thread presently running on the hart, or nil if
// the hart is idling in run_tasks.
func Current() *Thread { return theProcessor.current }

// CurrentPid returns the pid of the currently running thread's process,
// used by syscalls like getpid.
func CurrentPid() (int, bool) {
	if c := theProcessor.current; c != nil {
		return int(c.Pid()), true
	}
	return 0, false
}

// takeCurrent detaches and returns the currently running thread without
// putting it back on the ready queue, for callers (suspend/block/exit)
// that are about to decide its next status themselves.
func takeCurrent() *Thread {
	t := theProcessor.current
	theProcessor.current = nil
	return t
}

// RunTasks is the scheduler's main loop: repeatedly fetch the next ready
// thread, mark it Running, and Switch into it; when that thread later
// Switches back (via suspend/block/exit), control returns here and the
// loop fetches the next one, "run_tasks". cmd/kernel's
// boot sequence calls this once and never returns from it on the boot
// hart.
func RunTasks() {
	for {
		t := fetchTask()
		if t == nil {
			continue
		}
		var taskCx *TaskContext
		t.Inner.Access(func(ti *ThreadInner) {
			ti.Status = ThreadRunning
			taskCx = ti.TaskCx
		})
		theProcessor.current = t
		Switch(&theProcessor.idleCx, taskCx)
		// control returns here once the thread running above has
		// Switch'd back into idleCx.
	}
}

// schedule switches from the currently executing thread's context back
// to the idle loop in theProcessor, resuming RunTasks's for-loop.
// Callers must have already updated the thread's status and TaskCx
// (Ready/Blocked/Exited) before calling this.
func schedule(taskCx *TaskContext) {
	Switch(taskCx, &theProcessor.idleCx)
}

// SuspendCurrentAndRunNext implements "yield": the current
// thread goes back to Ready at the back of the queue and the hart picks
// up the next one.
func SuspendCurrentAndRunNext() {
	t := takeCurrent()
	if t == nil {
		return
	}
	var cx *TaskContext
	t.Inner.Access(func(ti *ThreadInner) {
		ti.Status = ThreadReady
		cx = ti.TaskCx
	})
	readyQueue.Access(func(q **list.List) { (*q).PushBack(t) })
	schedule(cx)
}

// BlockCurrentAndRunNext implements "block": the current
// thread becomes Blocked and is NOT requeued -- whatever synchronization
// primitive it is waiting on is responsible for calling AddTask again
// once it is woken.
func BlockCurrentAndRunNext() *Thread {
	t := takeCurrent()
	if t == nil {
		return nil
	}
	var cx *TaskContext
	t.Inner.Access(func(ti *ThreadInner) {
		ti.Status = ThreadBlocked
		cx = ti.TaskCx
	})
	schedule(cx)
	return t
}

// BlockCurrentTask marks the current thread Blocked and detaches it from
// the processor WITHOUT switching away yet, returning its task context
// so the caller can finish other cleanup (e.g. dropping a device lock)
// before calling Schedule itself — the `wait_no_sched`, used
// by sync.Condvar.WaitNoSched so a device driver never holds its own
// lock across a suspension.
func BlockCurrentTask() *TaskContext {
	t := takeCurrent()
	if t == nil {
		return nil
	}
	var cx *TaskContext
	t.Inner.Access(func(ti *ThreadInner) {
		ti.Status = ThreadBlocked
		cx = ti.TaskCx
	})
	return cx
}

// Schedule switches away from taskCx into the idle loop. Pairs with
// BlockCurrentTask for callers that needed to defer the actual switch.
func Schedule(taskCx *TaskContext) { schedule(taskCx) }
