// Package trap implements the user<->kernel trap path: the trap context
// record, dispatch, and the trampoline that switches page tables across
// the boundary. It follows a "demultiplex then dispatch" structure for
// the trap entry point, and rCore-tutorial's os/src/trap/mod.rs for the
// RISC-V-specific scause dispatch table this kernel names.
package trap

import "rvcore/mem"

// Context is the saved register file and mode bits of a thread at a trap
// entry ( "TrapContext"). It lives in the per-thread trap
// -context page: kernel-writable, user-unreachable because its PTE has
// the U bit clear.
type Context struct {
	X [32]uint64 // x0-x31; x10 is a0, the syscall/return-value register
	Sstatus uint64
	Sepc uint64
	KernelSatp uint64
	KernelSP uint64
	TrapHandler uint64 // address of trap_handler, for __alltraps to call into
}

// A0..A7 index Context.X for the RISC-V calling convention's argument
// registers, used throughout syscall argument extraction.
const (
	RegA0 = 10
	RegA1 = 11
	RegA2 = 12
	RegA7 = 17
)

// NewUserContext builds the initial trap context for a brand new thread,
// "new"/"thread_create": entry point, user stack
// pointer, the kernel's own satp (so __alltraps can switch back to it),
// the thread's kernel stack top, and the address of trap_handler.
func NewUserContext(entry, userSP uintptr, kernelSatp uint64, kernelSP uintptr, trapHandler uintptr) *Context {
	cx := &Context{
		Sepc: uint64(entry),
		KernelSatp: kernelSatp,
		KernelSP: uint64(kernelSP),
		TrapHandler: uint64(trapHandler),
	}
	cx.X[2] = uint64(userSP) // sp
	// sstatus.SPP = 0 (user mode on sret), SPIE = 1 (re-enable
	// interrupts on return to U-mode) -- bit 8 is SPP, bit 5 is SPIE.
	cx.Sstatus = 1 << 5
	return cx
}

// SetArgs overwrites a0/a1 — used by exec to hand the new program its
// (argc, argv), and by thread_create to hand the new thread its single
// argument.
func (cx *Context) SetArgs(a0, a1 uint64) {
	cx.X[RegA0] = a0
	cx.X[RegA1] = a1
}

// TrapContextVPN returns base unchanged; it does no per-thread
// arithmetic. proc computes each thread's trap-context VPN itself (one
// page per tid, stacked downward from defs.TrapContextVA).
func TrapContextVPN(base mem.VPN) mem.VPN { return base }
