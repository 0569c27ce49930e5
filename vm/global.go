package vm

import (
	"rvcore/irq"
	"rvcore/mem"
)

// KernelSpace is the one address space shared identically by every
// process above the user/kernel split ( "Shared resources").
// It is populated once at boot by cmd/kernel via SetKernelSpace and from
// then on only ever touched through the irq.Cell wrapper, the same rule
// every global kernel singleton here follows.
var KernelSpace = irq.NewCell((*MemorySet)(nil))

// SetKernelSpace installs the address space built by NewKernel as the
// process-independent kernel half of every page table.
func SetKernelSpace(ms *MemorySet) {
	KernelSpace.Access(func(cur **MemorySet) { *cur = ms })
}

// KernelToken returns the satp value every thread's TrapContext.KernelSatp
// field is initialized with.
func KernelToken() uint64 {
	var token uint64
	KernelSpace.Access(func(cur **MemorySet) { token = (*cur).Token() })
	return token
}

// InsertKernelArea maps area into the shared kernel address space —
// used for per-thread kernel stacks, which must be reachable while
// running in S-mode regardless of which user satp was active when the
// trap fired.
func InsertKernelArea(area *MapArea) {
	KernelSpace.Access(func(cur **MemorySet) { (*cur).Push(area, nil) })
}

// RemoveKernelArea unmaps the kernel-space area starting at start.
func RemoveKernelArea(start mem.VPN) {
	KernelSpace.Access(func(cur **MemorySet) { (*cur).RemoveArea(start) })
}
