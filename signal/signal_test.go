package signal

import (
	"testing"

	"rvcore/defs"
	"rvcore/trap"
)

func TestRaiseClearIsPending(t *testing.T) {
	s := NewState()
	if s.IsPending(defs.SIGUSR1) {
		t.Fatal("expected nothing pending on a fresh state")
	}
	s.Raise(defs.SIGUSR1)
	if !s.IsPending(defs.SIGUSR1) {
		t.Fatal("expected SIGUSR1 pending after Raise")
	}
	s.Clear(defs.SIGUSR1)
	if s.IsPending(defs.SIGUSR1) {
		t.Fatal("expected SIGUSR1 no longer pending after Clear")
	}
}

func TestSetActionRejectsKillAndStop(t *testing.T) {
	s := NewState()
	if s.SetAction(defs.SIGKILL, Action{Handler: 0x1000}) {
		t.Fatal("expected SIGKILL action install to be rejected")
	}
	if s.SetAction(defs.SIGSTOP, Action{Handler: 0x1000}) {
		t.Fatal("expected SIGSTOP action install to be rejected")
	}
	if !s.SetAction(defs.SIGUSR1, Action{Handler: 0x1000}) {
		t.Fatal("expected SIGUSR1 action install to succeed")
	}
}

func TestHandlePendingSigstopSetsFrozenAndSigcontClears(t *testing.T) {
	s := NewState()
	cx := &trap.Context{}

	s.Raise(defs.SIGSTOP)
	code, exit := s.HandlePending(cx)
	if exit {
		t.Fatalf("SIGSTOP must not terminate the thread, got code=%d", code)
	}
	if !s.Frozen {
		t.Fatal("expected Frozen after SIGSTOP")
	}

	s.Raise(defs.SIGCONT)
	_, exit = s.HandlePending(cx)
	if exit {
		t.Fatal("SIGCONT must not terminate the thread")
	}
	if s.Frozen {
		t.Fatal("expected Frozen cleared after SIGCONT")
	}
}

func TestHandlePendingSigkillExits(t *testing.T) {
	s := NewState()
	cx := &trap.Context{}
	s.Raise(defs.SIGKILL)
	code, exit := s.HandlePending(cx)
	if !exit {
		t.Fatal("expected SIGKILL to terminate the thread")
	}
	if !s.Killed {
		t.Fatal("expected Killed set")
	}
	wantCode, _ := defs.ExitCodeForSignal(defs.SIGKILL)
	if code != wantCode {
		t.Fatalf("expected exit code %d, got %d", wantCode, code)
	}
}

func TestHandlePendingMappedDefaultSignalExits(t *testing.T) {
	s := NewState()
	cx := &trap.Context{}
	s.Raise(defs.SIGSEGV)
	code, exit := s.HandlePending(cx)
	if !exit {
		t.Fatal("expected an unhandled SIGSEGV to terminate the thread")
	}
	wantCode, _ := defs.ExitCodeForSignal(defs.SIGSEGV)
	if code != wantCode {
		t.Fatalf("expected exit code %d, got %d", wantCode, code)
	}
}

func TestHandlePendingUnmappedDefaultSignalIsDropped(t *testing.T) {
	s := NewState()
	cx := &trap.Context{}
	s.Raise(defs.SIGTRAP)
	_, exit := s.HandlePending(cx)
	if exit {
		t.Fatal("expected an unmapped default-action signal to be dropped, not terminate")
	}
	if s.IsPending(defs.SIGTRAP) {
		t.Fatal("expected SIGTRAP cleared after being handled (dropped)")
	}
}

func TestHandlePendingEntersUserHandlerAndBacksUpContext(t *testing.T) {
	s := NewState()
	s.SetAction(defs.SIGUSR1, Action{Handler: 0x4000_1000})

	cx := &trap.Context{Sepc: 0x1000}
	cx.X[2] = 0x8000_0000 // sp, should survive untouched in the live cx

	s.Raise(defs.SIGUSR1)
	_, exit := s.HandlePending(cx)
	if exit {
		t.Fatal("entering a user handler must not terminate the thread")
	}
	if s.HandlingSig != int(defs.SIGUSR1) {
		t.Fatalf("expected HandlingSig=%d, got %d", defs.SIGUSR1, s.HandlingSig)
	}
	if s.Backup == nil {
		t.Fatal("expected a trap context backup")
	}
	if s.Backup.Sepc != 0x1000 {
		t.Fatalf("expected backup to capture original sepc, got %#x", s.Backup.Sepc)
	}
	if cx.Sepc != 0x4000_1000 {
		t.Fatalf("expected sepc rewritten to handler address, got %#x", cx.Sepc)
	}
	if cx.X[trap.RegA0] != uint64(defs.SIGUSR1) {
		t.Fatalf("expected a0 set to signal number, got %d", cx.X[trap.RegA0])
	}
}

func TestHandlePendingNeverNestsWhileHandlerActionMasksIt(t *testing.T) {
	s := NewState()
	// SIGUSR1's handler blocks SIGUSR2 while it runs.
	s.SetAction(defs.SIGUSR1, Action{Handler: 0x4000_1000, Mask: 1 << uint(defs.SIGUSR2)})

	cx := &trap.Context{}
	s.Raise(defs.SIGUSR1)
	s.HandlePending(cx)
	if s.HandlingSig != int(defs.SIGUSR1) {
		t.Fatalf("expected to be inside the SIGUSR1 handler, HandlingSig=%d", s.HandlingSig)
	}

	s.Raise(defs.SIGUSR2)
	_, exit := s.HandlePending(cx)
	if exit {
		t.Fatal("SIGUSR2 must not be dispatched while masked by the active handler")
	}
	if !s.IsPending(defs.SIGUSR2) {
		t.Fatal("expected SIGUSR2 to remain pending, not dropped, while masked")
	}
	if s.HandlingSig != int(defs.SIGUSR1) {
		t.Fatal("expected the SIGUSR1 handler to still be the one in flight")
	}
}

func TestSigreturnRestoresContextAndClearsHandlingSig(t *testing.T) {
	s := NewState()
	s.SetAction(defs.SIGUSR1, Action{Handler: 0x4000_1000})

	cx := &trap.Context{Sepc: 0x1000}
	cx.X[trap.RegA1] = 42
	s.Raise(defs.SIGUSR1)
	s.HandlePending(cx)

	// Handler mutates the live context as it runs.
	cx.X[2] = 0x9000_0000

	ok := s.Sigreturn(cx)
	if !ok {
		t.Fatal("expected Sigreturn to succeed while a handler is in flight")
	}
	if cx.Sepc != 0x1000 {
		t.Fatalf("expected sepc restored to pre-handler value, got %#x", cx.Sepc)
	}
	if cx.X[trap.RegA1] != 42 {
		t.Fatal("expected the rest of the register file restored")
	}
	if s.HandlingSig != -1 {
		t.Fatalf("expected HandlingSig reset to -1, got %d", s.HandlingSig)
	}
	if s.Backup != nil {
		t.Fatal("expected Backup cleared after Sigreturn")
	}
}

func TestSigreturnWithoutHandlerInFlightFails(t *testing.T) {
	s := NewState()
	cx := &trap.Context{}
	if s.Sigreturn(cx) {
		t.Fatal("expected Sigreturn to fail with no handler in flight")
	}
}
