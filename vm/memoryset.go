package vm

import (
	"fmt"

	"rvcore/defs"
	"rvcore/mem"
)

// MemorySet is a PageTable plus an ordered collection of MapArea. It
// enforces the invariants this kernel relies on: (a) no two areas
// overlap, (b) the trampoline is always mapped R+X at TRAMPOLINE, (c) a
// trap-context page is mapped just below it per live thread.
type MemorySet struct {
	PT *PageTable
	Areas []*MapArea
	alloc *mem.FrameAllocator
}

// NewBare returns an empty address space with a fresh root.
func NewBare(alloc *mem.FrameAllocator) *MemorySet {
	return &MemorySet{PT: NewPageTable(alloc), alloc: alloc}
}

// MapTrampoline installs a direct (area-less) mapping of the trampoline
// page at the top of the address space to the physical page holding the
// trampoline code, R+X. Every MemorySet must call this so
// __alltraps/__restore are reachable identically regardless of which
// user satp is active.
func (ms *MemorySet) MapTrampoline(trampolinePPN mem.PPN) {
	vpn := mem.VPN(defs.TrampolineVA >> mem.PageShift)
	ms.PT.Map(vpn, trampolinePPN, PteR|PteX)
}

// Push inserts area into the set, mapping it into the page table and
// optionaly copying initial data into it (only valid for Framed areas).
// It panics if the area overlaps an existing one, enforcing MemorySet
// invariant (a).
func (ms *MemorySet) Push(area *MapArea, data []byte) {
	for _, existing := range ms.Areas {
		if area.Overlaps(existing) {
			panic(fmt.Sprintf("vm: area [%#x,%#x) overlaps existing [%#x,%#x)",
				area.Start, area.End, existing.Start, existing.End))
		}
	}
	area.mapInto(ms.PT, ms.alloc)
	if data != nil {
		ms.copyData(area, data)
	}
	ms.Areas = append(ms.Areas, area)
}

// InsertFramedArea is a convenience wrapper for inserting a plain
// anonymous framed mapping with no initial data.
func (ms *MemorySet) InsertFramedArea(start, end mem.VPN, perm uint64) {
	ms.Push(NewMapArea(start, end, Framed, perm), nil)
}

// RemoveArea unmaps and drops the area covering start, 
// "destroyed... on explicit region removal".
func (ms *MemorySet) RemoveArea(start mem.VPN) bool {
	for i, a := range ms.Areas {
		if a.Start == start {
			a.unmapFrom(ms.PT)
			ms.Areas = append(ms.Areas[:i], ms.Areas[i+1:]...)
			return true
		}
	}
	return false
}

func (ms *MemorySet) copyData(area *MapArea, data []byte) {
	off := 0
	vpn := area.Start
	for off < len(data) {
		src := data[off:]
		if len(src) > mem.PageSize {
			src = src[:mem.PageSize]
		}
		dst := area.pageBytes(vpn)
		copy(dst, src)
		off += len(src)
		vpn++
	}
}

// Activate writes this address space's token to satp and issues
// sfence.vma.
func (ms *MemorySet) Activate() {
	writeSatp(ms.PT.Token())
	sfenceVMA()
}

// Token returns the satp value for this address space without
// activating it, used for populating a thread's TrapContext.
func (ms *MemorySet) Token() uint64 { return ms.PT.Token() }

// RecycleDataPages drops every area (and therefore every user frame)
// while the page table's own storage frames are released separately by
// the caller once teardown is otherwise complete.
func (ms *MemorySet) RecycleDataPages() {
	for _, a := range ms.Areas {
		a.unmapFrom(ms.PT)
	}
	ms.Areas = nil
}

// Translate exposes the page table's read-only walk.
func (ms *MemorySet) Translate(vpn mem.VPN) (PTE, bool) {
	return ms.PT.Translate(vpn)
}
