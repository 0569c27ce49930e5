package vm

import (
	"bytes"
	"debug/elf"
	"fmt"

	"rvcore/defs"
	"rvcore/mem"
	"rvcore/util"
)

// FromELF parses an ELF image and builds a user address space from its
// PT_LOAD segments: for each PT_LOAD program header, create a Framed
// area with U plus R/W/X per the segment's flags, copy file_size bytes
// into the newly mapped frames zeroing mem_size-file_size, then compute
// (without mapping) a user stack range one page above the highest
// loaded VPN. Returns the built space, the user stack top, and the
// entry point.
//
// This uses the standard library's debug/elf for parsing program
// headers and segments.
func FromELF(alloc *mem.FrameAllocator, image []byte, trampolinePPN mem.PPN) (ms *MemorySet, userSP uintptr, entry uintptr, err error) {
	f, e := elf.NewFile(bytes.NewReader(image))
	if e != nil {
		return nil, 0, 0, fmt.Errorf("vm: parse elf: %w", e)
	}
	if f.Class != elf.ELFCLASS64 || f.Machine != elf.EM_RISCV {
		return nil, 0, 0, fmt.Errorf("vm: not a 64-bit RISC-V executable")
	}

	ms = NewBare(alloc)
	ms.MapTrampoline(trampolinePPN)

	var maxVPN mem.VPN
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		startVA := uintptr(prog.Vaddr)
		endVA := startVA + uintptr(prog.Memsz)
		startVPN := mem.VPN(startVA >> mem.PageShift)
		endVPN := mem.VPN(util.Roundup(endVA, mem.PageSize) >> mem.PageShift)

		perm := PteU
		if prog.Flags&elf.PF_R != 0 {
			perm |= PteR
		}
		if prog.Flags&elf.PF_W != 0 {
			perm |= PteW
		}
		if prog.Flags&elf.PF_X != 0 {
			perm |= PteX
		}

		area := NewMapArea(startVPN, endVPN, Framed, perm)
		data := make([]byte, prog.Filesz)
		if _, e := prog.ReadAt(data, 0); e != nil {
			return nil, 0, 0, fmt.Errorf("vm: read segment: %w", e)
		}
		ms.pushWithOffset(area, data, startVA)

		if endVPN > maxVPN {
			maxVPN = endVPN
		}
	}

	// The user stack itself is not mapped here: proc.AllocTaskUserRes maps
	// tid 0's stack at this exact range once the process/thread exists to
	// own it, the same split rCore-tutorial's from_elf keeps between
	// computing user_stack_base and TaskUserRes::new mapping it.
	userStackBottom := maxVPN.Addr() + mem.PageSize // one guard page
	userStackTop := userStackBottom + defs.UserStackSize

	return ms, userStackTop, uintptr(f.Entry), nil
}

// pushWithOffset is like Push but the data's first byte lands at
// startVA rather than at the area's page-aligned start, matching ELF
// segments whose Vaddr is not page-aligned.
func (ms *MemorySet) pushWithOffset(area *MapArea, data []byte, startVA uintptr) {
	for _, existing := range ms.Areas {
		if area.Overlaps(existing) {
			panic(fmt.Sprintf("vm: area [%#x,%#x) overlaps existing [%#x,%#x)",
				area.Start, area.End, existing.Start, existing.End))
		}
	}
	area.mapInto(ms.PT, ms.alloc)
	skip := int(startVA - area.Start.Addr())
	off := skip
	vpn := area.Start
	remaining := data
	for len(remaining) > 0 {
		dst := area.pageBytes(vpn)
		n := util.Min(len(dst)-off, len(remaining))
		copy(dst[off:off+n], remaining[:n])
		remaining = remaining[n:]
		off = 0
		vpn++
	}
	ms.Areas = append(ms.Areas, area)
}

// FromExistedUser deep-copies src: a fresh MemorySet with new frames for
// every Framed area, byte-for-byte identical to src at the moment of the
// call, sharing no frames with it.
func FromExistedUser(alloc *mem.FrameAllocator, src *MemorySet, trampolinePPN mem.PPN) *MemorySet {
	dst := NewBare(alloc)
	dst.MapTrampoline(trampolinePPN)
	for _, area := range src.Areas {
		clone := NewMapArea(area.Start, area.End, area.Type, area.Perm)
		clone.LinearOff = area.LinearOff
		dst.Push(clone, nil)
		if area.Type == Framed {
			for vpn := area.Start; vpn < area.End; vpn++ {
				copy(clone.pageBytes(vpn), area.pageBytes(vpn))
			}
		}
	}
	return dst
}
