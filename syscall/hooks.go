package syscall

import (
	"rvcore/defs"
	"rvcore/proc"
	"rvcore/trap"
)

// PostSignal implements trap.Hooks.PostSignal: raises sig against the
// currently running thread's process (SIGSEGV on a memory fault, SIGILL
// on an illegal instruction).
func PostSignal(sig defs.Sig_t) {
	th := proc.Current()
	if th == nil {
		return
	}
	th.Process.Inner.Access(func(pi *proc.ProcessInner) { pi.Signals.Raise(sig) })
}

// RunPendingSignals implements trap.Hooks.RunPendingSignals: drains the
// current process's pending signals against the current thread's trap
// context.
func RunPendingSignals() (exitCode int, exit bool) {
	th := proc.Current()
	if th == nil {
		return 0, false
	}
	cx := th.TrapCx()
	th.Process.Inner.Access(func(pi *proc.ProcessInner) {
		exitCode, exit = pi.Signals.HandlePending(cx)
	})
	return exitCode, exit
}

// ExitCurrent implements trap.Hooks.ExitCurrent: a killing signal
// terminates the whole process, not just the thread that took the trap.
func ExitCurrent(code int) {
	proc.ExitCurrentAndRunNext(code, true)
}

// CurrentTrapContext implements trap.Hooks.CurrentTrapContext.
func CurrentTrapContext() *trap.Context {
	return proc.Current().TrapCx()
}
