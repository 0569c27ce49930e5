// Package mem implements the kernel's physical frame allocator and
// kernel heap: a stack-allocator shape generalized from a refcounted
// copy-on-write frame model down to the simpler single-owner model this
// kernel uses (copy-on-write pages are out of scope here).
package mem

import (
	"fmt"
	"sync"
)

// PPN is a 44-bit physical page number.
type PPN uint64

// VPN is a 27-bit SV39 virtual page number.
type VPN uint64

const (
	PageSize = 4096
	PageShift = 12
)

// Addr returns the physical address of the start of this page.
func (p PPN) Addr() uintptr { return uintptr(p) << PageShift }

// Bytes returns the 4096-byte slice backing this physical page, without
// taking any ownership over it — used by translation helpers that only
// need to read/write bytes some FrameTracker elsewhere already owns.
func (p PPN) Bytes() []byte { return pageBytes(p) }

// Addr returns the virtual address of the start of this page.
func (v VPN) Addr() uintptr { return uintptr(v) << PageShift }

// PPNOf truncates a physical address down to its containing page number.
func PPNOf(addr uintptr) PPN { return PPN(addr >> PageShift) }

// VPNOf truncates a virtual address down to its containing page number.
func VPNOf(addr uintptr) VPN { return VPN(addr >> PageShift) }

// FrameAllocator is a stack allocator over [start, end), :
// alloc pops a recycled page or bumps the watermark; dealloc(ppn)
// pushes to the recycle stack after validating the page was issued and
// is not already free.
type FrameAllocator struct {
	mu sync.Mutex
	current PPN
	end PPN
	recycle []PPN
	freed map[PPN]bool
}

// NewFrameAllocator creates an allocator over the page range [start,
// end), the free physical memory between the kernel image's end and
// the board's top of RAM.
func NewFrameAllocator(start, end PPN) *FrameAllocator {
	return &FrameAllocator{
		current: start,
		end: end,
		freed: make(map[PPN]bool),
	}
}

// FrameTracker is the exclusive owner of one physical page. Go has no
// destructors, so every FrameTracker must be released explicitly with
// Dealloc; the allocator's "double free is fatal" invariant (testable
// property 1 in ) is enforced there, not by a finalizer, so
// that the failure is deterministic rather than tied to GC timing.
type FrameTracker struct {
	PPN PPN
	alloc *FrameAllocator
	freed bool
}

// Alloc pops a recycled frame or bumps the watermark. The returned page
// is always zeroed, "Pages are zeroed on allocation". It
// returns ok=false on out-of-memory (: surfaced, not fatal).
func (a *FrameAllocator) Alloc() (*FrameTracker, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var ppn PPN
	if n := len(a.recycle); n > 0 {
		ppn = a.recycle[n-1]
		a.recycle = a.recycle[:n-1]
		delete(a.freed, ppn)
	} else {
		if a.current >= a.end {
			return nil, false
		}
		ppn = a.current
		a.current++
	}
	zeroPage(ppn)
	return &FrameTracker{PPN: ppn, alloc: a}, true
}

// Dealloc returns the frame to the allocator. A second Dealloc of the
// same tracker, or of any page outside the issued range, is a
// programming-invariant violation and panics.
func (t *FrameTracker) Dealloc() {
	if t.freed {
		panic(fmt.Sprintf("mem: double free of ppn %#x", t.PPN))
	}
	t.alloc.dealloc(t.PPN)
	t.freed = true
}

func (a *FrameAllocator) dealloc(ppn PPN) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ppn < 0 || ppn >= a.current {
		panic(fmt.Sprintf("mem: dealloc of unissued ppn %#x", ppn))
	}
	if a.freed[ppn] {
		panic(fmt.Sprintf("mem: double free of ppn %#x", ppn))
	}
	a.freed[ppn] = true
	a.recycle = append(a.recycle, ppn)
}

// Bytes returns a byte slice view of the page backing this frame. On
// real hardware this would be a direct-mapped window over physical
// memory; host builds back it with a plain allocation (see page_stub.go
// / page_riscv64.go for the arch split).
func (t *FrameTracker) Bytes() []byte {
	return pageBytes(t.PPN)
}
