package vm

import (
	"rvcore/defs"
	"rvcore/mem"
	"rvcore/util"
)

// KernelSections describes the linker-provided section boundaries
// listed in "Linker sections required" that NewKernel needs
// to build the identity map. Addresses are physical/virtual (identical
// for the kernel's own identity-mapped region).
type KernelSections struct {
	TextStart, TextEnd uintptr
	RodataStart, RodataEnd uintptr
	DataStart, DataEnd uintptr
	BSSStart, BSSEnd uintptr
	EKernel uintptr // end of kernel image; start of free RAM
	TrampolinePPN mem.PPN
}

func identVPNRange(start, end uintptr) (mem.VPN, mem.VPN) {
	return mem.VPN(start >> mem.PageShift), mem.VPN(util.Roundup(end, mem.PageSize) >> mem.PageShift)
}

// NewKernel builds the kernel's own address space: identity maps for
// .text (R+X), .rodata (R), .data/.bss (R+W), the remainder of physical
// RAM (R+W), and each MMIO region (R+W), plus the trampoline. This is
// the address space mapped identically into every process above the
// user/kernel split.
func NewKernel(alloc *mem.FrameAllocator, sec KernelSections) *MemorySet {
	ms := NewBare(alloc)
	ms.MapTrampoline(sec.TrampolinePPN)

	push := func(start, end uintptr, perm uint64) {
		s, e := identVPNRange(start, end)
		ms.Push(NewMapArea(s, e, Identical, perm), nil)
	}

	push(sec.TextStart, sec.TextEnd, PteR|PteX)
	push(sec.RodataStart, sec.RodataEnd, PteR)
	push(sec.DataStart, sec.DataEnd, PteR|PteW)
	push(sec.BSSStart, sec.BSSEnd, PteR|PteW)
	push(sec.EKernel, defs.MemoryEnd, PteR|PteW)

	push(defs.VirtUART, defs.VirtUART+defs.PageSize, PteR|PteW)
	push(defs.VirtPLIC, defs.VirtPLIC+defs.VirtPLICSize, PteR|PteW)
	for i := 0; i < defs.VirtioMMIOCount; i++ {
		base := uintptr(defs.VirtioMMIOBase + i*defs.VirtioMMIOStride)
		push(base, base+defs.PageSize, PteR|PteW)
	}

	return ms
}
