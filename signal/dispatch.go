package signal

import (
	"rvcore/defs"
	"rvcore/trap"
)

// HandlePending implements the handle_signals: it walks
// signals 0..MaxSig, and for each pending, non-masked signal either
// handles it in-kernel (SIGSTOP/SIGCONT/SIGKILL/unhandled-default) or
// enters an installed user handler. cx is the thread's live trap
// context (so a handler entry can rewrite sepc/a0 in place); returns
// (exitCode, true) if this thread must now exit, the
// error mapping table (defs.ExitCodeForSignal).
//
// Testable property 6 ("signal delivery never nests") is enforced by
// folding the currently-handling action's own mask into the effective
// mask alongside the process-wide mask, so a second signal the active
// handler's action blocks cannot interrupt it.
func (s *State) HandlePending(cx *trap.Context) (exitCode int, exit bool) {
	for sig := defs.Sig_t(0); int(sig) < defs.MaxSig; sig++ {
		if !s.IsPending(sig) {
			continue
		}
		effectiveMask := s.Mask
		if s.HandlingSig >= 0 {
			effectiveMask |= s.Actions[s.HandlingSig].Mask
		}
		if effectiveMask&(1<<uint(sig)) != 0 {
			continue
		}
		s.Clear(sig)

		switch sig {
		case defs.SIGSTOP:
			s.Frozen = true
		case defs.SIGCONT:
			s.Frozen = false
		case defs.SIGKILL, defs.SIGDEF:
			s.Killed = true
			if code, ok := defs.ExitCodeForSignal(sig); ok {
				return code, true
			}
			return -9, true
		default:
			act := s.Actions[sig]
			if act.Handler != 0 {
				s.enterHandler(sig, act, cx)
				continue
			}
			if code, ok := defs.ExitCodeForSignal(sig); ok {
				s.Killed = true
				return code, true
			}
			// No mapped default action (e.g. SIGTRAP, SIGBUS, SIGUSR1/2):
			// these pass through unhandled and are dropped silently.
		}
	}
	return 0, false
}

// enterHandler backs up cx, then rewrites it to enter the user handler
// with the signal number in a0, : "save the current
// trap context into trap_ctx_backup, set sepc to the handler, x10 to
// the signal number, record handling_sig."
func (s *State) enterHandler(sig defs.Sig_t, act Action, cx *trap.Context) {
	saved := *cx
	s.Backup = &saved
	s.HandlingSig = int(sig)
	cx.Sepc = uint64(act.Handler)
	cx.X[trap.RegA0] = uint64(sig)
}

// Sigreturn implements the sigreturn syscall: restores
// trap_ctx_backup into cx and clears handling_sig, returning false if
// there was no handler in flight to return from (a user bug: sigreturn
// called outside a handler).
func (s *State) Sigreturn(cx *trap.Context) bool {
	if s.Backup == nil {
		return false
	}
	*cx = *s.Backup
	s.Backup = nil
	s.HandlingSig = -1
	return true
}
