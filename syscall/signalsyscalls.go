package syscall

import (
	"encoding/binary"

	"rvcore/defs"
	"rvcore/proc"
	"rvcore/signal"
	"rvcore/trap"
	"rvcore/vm"
)

// actionWireSize is a signal.Action marshaled for a user pointer: an
// 8-byte handler address followed by a 4-byte mask (4 bytes of padding
// to keep the next field, if any, 8-byte aligned).
const actionWireSize = 16

func encodeAction(a signal.Action) [actionWireSize]byte {
	var buf [actionWireSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(a.Handler))
	binary.LittleEndian.PutUint32(buf[8:12], a.Mask)
	return buf
}

func decodeAction(raw []byte) signal.Action {
	return signal.Action{
		Handler: uintptr(binary.LittleEndian.Uint64(raw[0:8])),
		Mask: binary.LittleEndian.Uint32(raw[8:12]),
	}
}

// sysKill implements the kill syscall: raises sig against
// pid's process, which the next trap return's RunPendingSignals drains.
func sysKill(pid defs.Pid_t, sig defs.Sig_t) int64 {
	if int(sig) < 0 || int(sig) >= defs.MaxSig {
		return -1
	}
	p, ok := proc.LookupPid(pid)
	if !ok {
		return -1
	}
	p.Inner.Access(func(pi *proc.ProcessInner) { pi.Signals.Raise(sig) })
	return 0
}

// sysSigaction implements the sigaction syscall: installs
// the action at actionVA for sig (a null actionVA only reads the old
// one) and, if oldActionVA is non-null, writes back what was previously
// installed. SIGKILL/SIGSTOP are rejected per signal.State.SetAction.
func sysSigaction(th *proc.Thread, sig defs.Sig_t, actionVA, oldActionVA uintptr) int64 {
	if int(sig) < 0 || int(sig) >= defs.MaxSig {
		return -1
	}
	token := th.KernelToken()
	var old signal.Action
	var ok = true
	th.Process.Inner.Access(func(pi *proc.ProcessInner) {
		old = pi.Signals.Actions[sig]
		if actionVA == 0 {
			return
		}
		raw, err := vm.TranslatedRef(token, actionVA, actionWireSize)
		if err != 0 {
			ok = false
			return
		}
		ok = pi.Signals.SetAction(sig, decodeAction(raw))
	})
	if !ok {
		return -1
	}
	if oldActionVA != 0 {
		buf := encodeAction(old)
		if err := vm.CopyOut(token, oldActionVA, buf[:]); err != 0 {
			return -1
		}
	}
	return 0
}

// sysSigprocmask implements the sigprocmask syscall,
// installing mask and returning the mask that was previously in effect.
func sysSigprocmask(th *proc.Thread, mask uint32) int64 {
	var old uint32
	th.Process.Inner.Access(func(pi *proc.ProcessInner) {
		old = pi.Signals.Mask
		pi.Signals.SetMask(mask)
	})
	return int64(old)
}

// sysSigreturn implements the sigreturn syscall: restores
// the trap context signal.State.HandlePending backed up at handler
// entry. Per the syscall's own return value becomes the
// restored context's a0, so the restored register ends up unchanged.
func sysSigreturn(th *proc.Thread) int64 {
	cx := th.TrapCx()
	var ok bool
	th.Process.Inner.Access(func(pi *proc.ProcessInner) { ok = pi.Signals.Sigreturn(cx) })
	if !ok {
		return -1
	}
	return int64(cx.X[trap.RegA0])
}
