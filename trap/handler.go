package trap

import "rvcore/defs"

// Cause enumerates the trap causes this kernel must distinguish when
// dispatching a trap. Its values are this package's own sequential
// enumeration, not the raw scause encoding; only the causes this kernel
// names are given symbols here.
type Cause int

const (
	CauseUserEnvCall Cause = iota
	CauseStorePageFault
	CauseLoadPageFault
	CauseInstructionPageFault
	CauseStoreAccessFault
	CauseLoadAccessFault
	CauseIllegalInstruction
	CauseSupervisorTimer
	CauseSupervisorExternal
	CauseOther
)

func (c Cause) isMemoryFault() bool {
	switch c {
	case CauseStorePageFault, CauseLoadPageFault, CauseInstructionPageFault,
		CauseStoreAccessFault, CauseLoadAccessFault:
		return true
	}
	return false
}

// Hooks lets trap.Handler call back into the scheduler, syscall
// dispatcher, signal subsystem, and interrupt router without those
// packages importing trap (which would cycle back through proc, since
// proc constructs Contexts). cmd/kernel wires a concrete Hooks at boot.
type Hooks struct {
	// Syscall dispatches syscall number id with up to three arguments
	// and returns the value to place in a0.
	Syscall func(id uint64, args [3]uint64) int64

	// CurrentTrapContext returns the live trap context for the running
	// thread. The handler re-reads through this after a syscall instead
	// of trusting its own cx argument, because exec replaces the
	// context object outright.
	CurrentTrapContext func() *Context

	// PostSignal posts sig to the current process (SIGSEGV/SIGILL on
	// faults).
	PostSignal func(sig defs.Sig_t)

	// OnTimerTick re-arms the next timer trigger, sweeps the timer
	// wheel, and yields — all three happen together at every
	// SupervisorTimer trap.
	OnTimerTick func()

	// ClaimExternalIRQ asks the PLIC which device raised the external
	// interrupt and dispatches to its handler, returning when the
	// device's completion has been acknowledged.
	ClaimExternalIRQ func()

	// RunPendingSignals runs the post-trap signal loop; it returns
	// (exitCode, true) if the process must now exit due to a killing
	// signal.
	RunPendingSignals func() (exitCode int, exit bool)

	// ExitCurrent terminates the running thread/process with the given
	// code.
	ExitCurrent func(code int)
}

// HandleUserTrap implements the user-trap dispatch table. cx
// is the trap context captured by __alltraps for the trap that just
// fired; Handler may return a different *Context (after Syscall, via
// CurrentTrapContext) for the caller to resume with.
func HandleUserTrap(h *Hooks, cx *Context, cause Cause) *Context {
	switch {
	case cause == CauseUserEnvCall:
		cx.Sepc += 4
		id := cx.X[RegA7]
		args := [3]uint64{cx.X[RegA0], cx.X[RegA1], cx.X[RegA2]}
		ret := h.Syscall(id, args)
		cx = h.CurrentTrapContext()
		cx.X[RegA0] = uint64(ret)

	case cause.isMemoryFault():
		h.PostSignal(defs.SIGSEGV)

	case cause == CauseIllegalInstruction:
		h.PostSignal(defs.SIGILL)

	case cause == CauseSupervisorTimer:
		h.OnTimerTick()

	case cause == CauseSupervisorExternal:
		h.ClaimExternalIRQ()

	default:
		panic("trap: unexpected scause in user trap")
	}

	if code, exit := h.RunPendingSignals(); exit {
		h.ExitCurrent(code)
		return cx
	}
	return h.CurrentTrapContext()
}

// HandleKernelTrap implements the reduced kernel-mode vector: only
// timer and external interrupts are accepted there (no nested
// syscalls). Anything else reaching it is a kernel bug.
func HandleKernelTrap(h *Hooks, cause Cause) {
	switch cause {
	case CauseSupervisorTimer:
		h.OnTimerTick()
	case CauseSupervisorExternal:
		h.ClaimExternalIRQ()
	default:
		panic("trap: unexpected scause in kernel trap")
	}
}
