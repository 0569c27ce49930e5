package mem

import "unsafe"

// Words64 reinterprets the page at ppn as 512 uint64 words. Page tables
// and other word-addressed kernel structures use this instead of
// threading byte-slice arithmetic through every caller.
func Words64(p PPN) []uint64 {
	b := pageBytes(p)
	return unsafe.Slice((*uint64)(unsafe.Pointer(&b[0])), len(b)/8)
}
