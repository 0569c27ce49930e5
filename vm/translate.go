package vm

import (
	"rvcore/defs"
	"rvcore/mem"
)

// TranslatedByteBuffer returns the bytes of [va, va+length) in the
// address space named by satp as a sequence of page-bounded slices,
// since a user range may span pages that are not contiguous in physical
// memory, "a chunked byte buffer that spans page
// boundaries".
func TranslatedByteBuffer(satp uint64, va uintptr, length int) ([][]byte, defs.Err_t) {
	pt := FromToken(satp)
	var out [][]byte
	start := va
	end := va + uintptr(length)
	for start < end {
		vpn := mem.VPN(start >> mem.PageShift)
		pte, ok := pt.Translate(vpn)
		if !ok {
			return nil, -defs.EFAULT
		}
		pageEnd := vpn.Addr() + mem.PageSize
		sliceEnd := pageEnd
		if end < sliceEnd {
			sliceEnd = end
		}
		off := start & (mem.PageSize - 1)
		lim := sliceEnd - vpn.Addr()
		phys := pte.PPN().Bytes()
		out = append(out, phys[off:lim])
		start = sliceEnd
	}
	return out, 0
}

// TranslatedStr walks byte-by-byte from va until a NUL, the same way
// translated_str does in os/src/mm/page_table.rs.
func TranslatedStr(satp uint64, va uintptr) (string, defs.Err_t) {
	pt := FromToken(satp)
	var out []byte
	for {
		vpn := mem.VPN(va >> mem.PageShift)
		pte, ok := pt.Translate(vpn)
		if !ok {
			return "", -defs.EFAULT
		}
		off := va & (mem.PageSize - 1)
		page := pte.PPN().Bytes()
		for i := int(off); i < mem.PageSize; i++ {
			if page[i] == 0 {
				return string(out), 0
			}
			out = append(out, page[i])
			va++
		}
	}
}

// TranslatedRef returns a pointer to a value of size n bytes at va,
// which must not straddle a page boundary (used for small fixed-size
// structures like a struct timeval, mirroring the "kernel
// side references").
func TranslatedRef(satp uint64, va uintptr, n int) ([]byte, defs.Err_t) {
	bufs, err := TranslatedByteBuffer(satp, va, n)
	if err != 0 {
		return nil, err
	}
	if len(bufs) != 1 {
		return nil, -defs.EFAULT
	}
	return bufs[0], 0
}

// CopyOut writes data into the user address space at va, spanning pages
// as needed.
func CopyOut(satp uint64, va uintptr, data []byte) defs.Err_t {
	bufs, err := TranslatedByteBuffer(satp, va, len(data))
	if err != 0 {
		return err
	}
	off := 0
	for _, b := range bufs {
		off += copy(b, data[off:])
	}
	return 0
}

// CopyIn reads len(dst) bytes from the user address space at va into dst.
func CopyIn(satp uint64, va uintptr, dst []byte) defs.Err_t {
	bufs, err := TranslatedByteBuffer(satp, va, len(dst))
	if err != 0 {
		return err
	}
	off := 0
	for _, b := range bufs {
		off += copy(dst[off:], b)
	}
	return 0
}
