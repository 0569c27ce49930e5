//go:build riscv64

package mem

import "unsafe"

// On the real target, physical memory is identity-reachable from
// supervisor mode once paging covers it (the kernel identity-maps all
// of RAM), so a page's bytes are just the memory at its physical
// address reinterpreted as a slice.
func pageBytes(p PPN) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(p.Addr())), PageSize)
}

func zeroPage(p PPN) {
	b := pageBytes(p)
	for i := range b {
		b[i] = 0
	}
}
