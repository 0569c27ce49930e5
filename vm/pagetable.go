// Package vm implements SV39 address translation and address-space
// construction: the PageTable/MapArea/MemorySet trio, following the same
// careful locking discipline and translate-then-touch pattern a
// page-table package needs whenever it walks user-controlled virtual
// addresses, adapted to rCore-tutorial's os/src/mm/page_table.rs and
// os/src/mm/memory_set.rs for SV39-specific semantics (3-level walk,
// PTE flag layout, the trampoline/trap-context invariants).
package vm

import (
	"fmt"
	"unsafe"

	"rvcore/mem"
)

// ptesOf reinterprets the page at ppn as the 512 SV39 page table entries
// it holds.
func ptesOf(ppn mem.PPN) []PTE {
	words := mem.Words64(ppn)
	return unsafe.Slice((*PTE)(unsafe.Pointer(&words[0])), len(words))
}

// PTE flag bits, "PageTableEntry": low 8 bits are flags
// {V,R,W,X,U,G,A,D}.
const (
	PteV uint64 = 1 << 0
	PteR uint64 = 1 << 1
	PteW uint64 = 1 << 2
	PteX uint64 = 1 << 3
	PteU uint64 = 1 << 4
	PteG uint64 = 1 << 5
	PteA uint64 = 1 << 6
	PteD uint64 = 1 << 7

	pteFlagBits = 8
	pteFlagMask = uint64(1)<<pteFlagBits - 1
	ptePPNShift = 10 // bits 8-9 are the RSW field
	pteRWX = PteR | PteW | PteX
)

// PTE is a single SV39 page table entry: 64 bits, low 8 bits flags,
// bits [53:10] the child/leaf PPN.
type PTE uint64

func mkPTE(ppn mem.PPN, flags uint64) PTE {
	return PTE(uint64(ppn)<<ptePPNShift | (flags & pteFlagMask))
}

func (p PTE) PPN() mem.PPN { return mem.PPN(uint64(p) >> ptePPNShift) }
func (p PTE) Flags() uint64 { return uint64(p) & pteFlagMask }
func (p PTE) Valid() bool { return uint64(p)&PteV != 0 }
func (p PTE) Readable() bool { return uint64(p)&PteR != 0 }
func (p PTE) Writable() bool { return uint64(p)&PteW != 0 }
func (p PTE) Executable() bool { return uint64(p)&PteX != 0 }
func (p PTE) User() bool { return uint64(p)&PteU != 0 }
func (p PTE) IsLeaf() bool { return uint64(p)&pteRWX != 0 }

// vpnIndexes splits a VPN into its three 9-bit SV39 level indices,
// highest level first, "VPN... split into three 9-bit
// levels".
func vpnIndexes(v mem.VPN) [3]int {
	var idx [3]int
	vv := uint64(v)
	for i := 2; i >= 0; i-- {
		idx[i] = int(vv & 0x1ff)
		vv >>= 9
	}
	return idx
}

// PageTable owns a root frame plus every intermediate-level frame it
// allocated while creating entries, "PageTable". A
// PageTable built with FromToken borrows an existing root instead and
// owns nothing, used for translating another address space's user
// pointers without taking ownership of its frames (
// "from_token").
type PageTable struct {
	root mem.PPN
	alloc *mem.FrameAllocator
	owned []*mem.FrameTracker // intermediate + root frames this table created
	borrows bool
}

// NewPageTable allocates a fresh root frame from alloc.
func NewPageTable(alloc *mem.FrameAllocator) *PageTable {
	root, ok := alloc.Alloc()
	if !ok {
		panic("vm: out of frames allocating page table root")
	}
	return &PageTable{root: root.PPN, alloc: alloc, owned: []*mem.FrameTracker{root}}
}

// FromToken constructs a borrowing view over the root PPN encoded in a
// satp value, suitable for translating user pointers from another
// address space. It owns no frames, so dropping it never
// frees anything.
func FromToken(satp uint64) *PageTable {
	return &PageTable{root: mem.PPN(satp & ((1 << 44) - 1)), borrows: true}
}

// Token returns the value to write to satp to activate this page table:
// mode SV39 (8<<60) | root PPN.
func (pt *PageTable) Token() uint64 {
	const modeSV39 = uint64(8) << 60
	return modeSV39 | uint64(pt.root)
}

func (pt *PageTable) tableAt(ppn mem.PPN) []PTE {
	return ptesOf(ppn)
}

// findPTE walks the three levels, optionally allocating intermediate
// tables when create is true. It returns nil if the entry does not
// exist and create is false.
func (pt *PageTable) findPTE(vpn mem.VPN, create bool) *PTE {
	idx := vpnIndexes(vpn)
	ppn := pt.root
	for level := 0; level < 3; level++ {
		entries := pt.tableAt(ppn)
		pte := &entries[idx[level]]
		if level == 2 {
			return pte
		}
		if !pte.Valid() {
			if !create {
				return nil
			}
			if pt.borrows {
				panic("vm: borrowing page table cannot allocate")
			}
			frame, ok := pt.alloc.Alloc()
			if !ok {
				panic("vm: out of frames walking page table")
			}
			pt.owned = append(pt.owned, frame)
			*pte = mkPTE(frame.PPN, PteV)
		}
		ppn = pte.PPN()
	}
	panic("unreachable")
}

// Map installs vpn -> ppn with the given flags, creating intermediate
// tables as needed. It asserts the final entry was not already valid,
// ("asserts the final entry was not already valid") —
// mapping an already-mapped VPN is a programming-invariant violation.
func (pt *PageTable) Map(vpn mem.VPN, ppn mem.PPN, flags uint64) {
	pte := pt.findPTE(vpn, true)
	if pte.Valid() {
		panic(fmt.Sprintf("vm: vpn %#x already mapped", vpn))
	}
	*pte = mkPTE(ppn, flags|PteV)
}

// Unmap clears the mapping for vpn. It asserts the entry was valid, per
// — unmapping an invalid VPN is fatal.
func (pt *PageTable) Unmap(vpn mem.VPN) {
	pte := pt.findPTE(vpn, false)
	if pte == nil || !pte.Valid() {
		panic(fmt.Sprintf("vm: unmap of unmapped vpn %#x", vpn))
	}
	*pte = 0
}

// Translate is a read-only walk returning the PTE for vpn, or ok=false
// if no such mapping exists.
func (pt *PageTable) Translate(vpn mem.VPN) (PTE, bool) {
	pte := pt.findPTE(vpn, false)
	if pte == nil || !pte.Valid() {
		return 0, false
	}
	return *pte, true
}

// TranslateVA translates a full virtual address to its physical address,
// or ok=false if unmapped.
func (pt *PageTable) TranslateVA(va uintptr) (uintptr, bool) {
	vpn := mem.VPN(va >> mem.PageShift)
	off := va & (mem.PageSize - 1)
	pte, ok := pt.Translate(vpn)
	if !ok {
		return 0, false
	}
	return pte.PPN().Addr() | off, true
}
