// Package signal implements the per-process signal subsystem: a 32-bit
// pending mask, a process-wide block mask, a table of per-signal
// actions, and the save/restore dance a user handler runs under.
// Grounded on original_source's
// os/src/task/process.rs (the signal_mask/signal_recv/signal_actions/
// handling_sig/trap_ctx_backup field set on ProcessControlBlockInner)
// and the kernel-handled-vs-user-handled split.
package signal

import (
	"rvcore/defs"
	"rvcore/trap"
)

// Action is one entry of the per-signal action table: the user handler
// address (0 means "no handler installed", i.e. default disposition)
// plus the mask installed while that handler runs.
type Action struct {
	Handler uintptr
	Mask uint32
}

// State holds one process's complete signal bookkeeping. It is meant to
// live inside proc.ProcessInner, guarded by the same irq.Cell the rest
// of that struct is -- it has no locking of its own, by design, matching
// every other per-process field in this module.
type State struct {
	Pending uint32 // bit i set: signal i has been raised and not yet handled
	Mask uint32 // bit i set: signal i is blocked process-wide
	Actions [defs.MaxSig]Action

	// HandlingSig is the signal number currently being handled by a user
	// handler, or -1 if none -- testable property 6:
	// "Signal delivery never nests: while handling_sig >= 0, no user
	// handler is entered for a new signal whose per-action mask covers
	// it."
	HandlingSig int

	Frozen bool // true between SIGSTOP and the next SIGCONT
	Killed bool // true once SIGKILL or an unhandled default-action signal arrived

	// Backup holds the trap context saved across a user handler
	// invocation, nil outside of one. Mirrors process.rs's
	// trap_ctx_backup field exactly.
	Backup *trap.Context
}

// NewState returns a process's initial signal state: nothing pending,
// nothing masked, no handlers installed (fork additionally inherits
// the parent's Mask and Actions, which the caller copies in after
// calling NewState).
func NewState() *State {
	return &State{HandlingSig: -1}
}

// Raise sets sig pending, -- the kernel (SIGSEGV on a
// fault) or a kill syscall both funnel through here.
func (s *State) Raise(sig defs.Sig_t) {
	s.Pending |= 1 << uint(sig)
}

// Clear drops sig from the pending set, used once a pending signal has
// been fully processed by HandlePending.
func (s *State) Clear(sig defs.Sig_t) {
	s.Pending &^= 1 << uint(sig)
}

// IsPending reports whether sig is currently pending.
func (s *State) IsPending(sig defs.Sig_t) bool {
	return s.Pending&(1<<uint(sig)) != 0
}

// SetMask installs the process-wide signal mask, the
// sigprocmask syscall.
func (s *State) SetMask(mask uint32) { s.Mask = mask }

// SetAction installs the handler/mask pair for sig, the
// sigaction syscall. Installing a handler for SIGKILL or SIGSTOP is
// rejected (ok=false) since always handles those in the
// kernel regardless of any installed action.
func (s *State) SetAction(sig defs.Sig_t, a Action) bool {
	if sig == defs.SIGKILL || sig == defs.SIGSTOP {
		return false
	}
	s.Actions[sig] = a
	return true
}
