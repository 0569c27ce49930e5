package proc

import (
	"rvcore/defs"
	"rvcore/mem"
	"rvcore/vm"
)

// kstackAlloc is the single system-wide source of kernel-stack slot
// numbers, : every live thread in the system — not just
// every thread in one process — occupies one slot below TRAMPOLINE in
// the shared kernel address space, so the allocator is global rather
// than per-process.
var kstackAlloc = NewRecycleAllocator()

// KernelStackPosition returns the [bottom, top) virtual address range of
// kernel-stack slot, counting down from TRAMPOLINE with one guard page
// between each slot, 
// "TRAMPOLINE - slot*(KSTACK+GUARD)".
func KernelStackPosition(slot int) (bottom, top uintptr) {
	top = defs.TrampolineVA - uintptr(slot)*(defs.KernelStackSize+defs.KernelStackGuard)
	bottom = top - defs.KernelStackSize
	return
}

// KernelStack owns one slot in the shared kernel address space.
type KernelStack struct {
	slot int
}

// AllocKernelStack claims the next free slot and maps it R+W into the
// shared kernel space.
func AllocKernelStack() *KernelStack {
	slot := kstackAlloc.Alloc()
	bottom, top := KernelStackPosition(slot)
	area := vm.NewMapArea(mem.VPN(bottom>>mem.PageShift), mem.VPN(top>>mem.PageShift), vm.Framed, vm.PteR|vm.PteW)
	vm.InsertKernelArea(area)
	return &KernelStack{slot: slot}
}

// Top returns the stack-top virtual address new threads start executing
// with as their kernel SP.
func (k *KernelStack) Top() uintptr {
	_, top := KernelStackPosition(k.slot)
	return top
}

// Dealloc unmaps the slot and returns it to the allocator.
func (k *KernelStack) Dealloc() {
	bottom, _ := KernelStackPosition(k.slot)
	vm.RemoveKernelArea(mem.VPN(bottom >> mem.PageShift))
	kstackAlloc.Dealloc(k.slot)
}
