package trap

import (
	"unsafe"

	"rvcore/mem"
)

// ContextAt reinterprets the page at ppn as a *Context. This is the
// physical-page counterpart of NewUserContext: __alltraps/__restore
// address the trap context through the physical page mapped just below
// TRAMPOLINE in every address space, so the kernel side
// must be able to read/write the same bytes by physical page number
// rather than through a Go pointer into some other thread's stack.
//
// mem.PPN.Bytes already gives a real backing array on both the
// riscv64 and host builds (direct physical memory on target, a
// host-resident page map for tests), so no further arch split is
// needed here.
func ContextAt(ppn mem.PPN) *Context {
	b := ppn.Bytes()
	return (*Context)(unsafe.Pointer(&b[0]))
}
