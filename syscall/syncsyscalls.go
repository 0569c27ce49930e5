package syscall

import (
	"rvcore/defs"
	"rvcore/irq"
	"rvcore/proc"
	ksync "rvcore/sync"
)

// syncTables holds one process's mutex/semaphore/condvar object tables.
// These live here rather than on proc.ProcessInner because sync imports
// proc (Current/AddTask/BlockCurrentAndRunNext) -- proc embedding a
// *ksync.Mutex would cycle back through this module's own sync import,
// so the syscall layer (the one place already wiring proc and sync
// together) owns the id->object mapping instead, keyed by pid.
type syncTables struct {
	mutexes []ksync.Mutex
	semaphores []*ksync.Semaphore
	condvars []*ksync.Condvar
}

var processSyncTables = irq.NewCell(map[defs.Pid_t]*irq.Cell[syncTables]{})

// tableFor returns (creating if necessary) the sync-object table for
// pid.
func tableFor(pid defs.Pid_t) *irq.Cell[syncTables] {
	var cell *irq.Cell[syncTables]
	processSyncTables.Access(func(m *map[defs.Pid_t]*irq.Cell[syncTables]) {
		if existing, ok := (*m)[pid]; ok {
			cell = existing
			return
		}
		cell = irq.NewCell(syncTables{})
		(*m)[pid] = cell
	})
	return cell
}

// CleanupSyncTables drops pid's sync-object table. Registered with
// proc.SetOnProcessExit so it runs once the process has been zombified
// -- every thread that could reference these ids is dead by then, so
// nothing else can look them up afterward. sysWaitpid also calls it
// when it reaps the child.
func CleanupSyncTables(pid defs.Pid_t) {
	processSyncTables.Access(func(m *map[defs.Pid_t]*irq.Cell[syncTables]) { delete(*m, pid) })
}

// sysMutexCreate implements the mutex_create syscall: blocking selects
// MutexBlocking over the default MutexSpin.
func sysMutexCreate(th *proc.Thread, blocking bool) int {
	var idx int
	tableFor(th.Pid()).Access(func(t *syncTables) {
		var m ksync.Mutex
		if blocking {
			m = ksync.NewMutexBlocking()
		} else {
			m = ksync.NewMutexSpin()
		}
		t.mutexes = append(t.mutexes, m)
		idx = len(t.mutexes) - 1
	})
	return idx
}

func lookupMutex(th *proc.Thread, id int) ksync.Mutex {
	var m ksync.Mutex
	tableFor(th.Pid()).Access(func(t *syncTables) {
		if id >= 0 && id < len(t.mutexes) {
			m = t.mutexes[id]
		}
	})
	return m
}

func sysMutexLock(th *proc.Thread, id int) int64 {
	m := lookupMutex(th, id)
	if m == nil {
		return -1
	}
	m.Lock()
	return 0
}

func sysMutexUnlock(th *proc.Thread, id int) int64 {
	m := lookupMutex(th, id)
	if m == nil {
		return -1
	}
	m.Unlock()
	return 0
}

func sysSemaphoreCreate(th *proc.Thread, initial int) int {
	var idx int
	tableFor(th.Pid()).Access(func(t *syncTables) {
		t.semaphores = append(t.semaphores, ksync.NewSemaphore(initial))
		idx = len(t.semaphores) - 1
	})
	return idx
}

func lookupSemaphore(th *proc.Thread, id int) *ksync.Semaphore {
	var s *ksync.Semaphore
	tableFor(th.Pid()).Access(func(t *syncTables) {
		if id >= 0 && id < len(t.semaphores) {
			s = t.semaphores[id]
		}
	})
	return s
}

func sysSemaphoreUp(th *proc.Thread, id int) int64 {
	s := lookupSemaphore(th, id)
	if s == nil {
		return -1
	}
	s.Up()
	return 0
}

func sysSemaphoreDown(th *proc.Thread, id int) int64 {
	s := lookupSemaphore(th, id)
	if s == nil {
		return -1
	}
	s.Down()
	return 0
}

func sysCondvarCreate(th *proc.Thread) int {
	var idx int
	tableFor(th.Pid()).Access(func(t *syncTables) {
		t.condvars = append(t.condvars, ksync.NewCondvar())
		idx = len(t.condvars) - 1
	})
	return idx
}

func lookupCondvar(th *proc.Thread, id int) *ksync.Condvar {
	var c *ksync.Condvar
	tableFor(th.Pid()).Access(func(t *syncTables) {
		if id >= 0 && id < len(t.condvars) {
			c = t.condvars[id]
		}
	})
	return c
}

func sysCondvarSignal(th *proc.Thread, id int) int64 {
	c := lookupCondvar(th, id)
	if c == nil {
		return -1
	}
	c.Signal()
	return 0
}

func sysCondvarWait(th *proc.Thread, id, mutexID int) int64 {
	c := lookupCondvar(th, id)
	m := lookupMutex(th, mutexID)
	if c == nil || m == nil {
		return -1
	}
	c.WaitWithMutex(m)
	return 0
}
