package vm

import (
	"rvcore/mem"
)

// MapType selects how a MapArea's VPN range is backed, 
// glossary "Framed / Identical / Linear map".
type MapType int

const (
	// Identical maps virtual == physical, used for the kernel's own
	//.text/.rodata/.data/.bss and RAM identity map (
	// "new_kernel").
	Identical MapType = iota
	// Framed allocates a fresh frame per page; dropping the area frees
	// every frame it owns ( "MapArea").
	Framed
	// Linear maps virtual = physical + a fixed offset.
	Linear
)

// MapArea is a half-open VPN range plus a map type and permission
// flags,. For Framed areas it also owns the frames
// backing every page in range so they can be released together with the
// area.
type MapArea struct {
	Start, End mem.VPN // [Start, End)
	Type MapType
	Perm uint64 // PteR|PteW|PteX|PteU, PteV is added at map time
	LinearOff int64 // only meaningful for Linear

	frames map[mem.VPN]*mem.FrameTracker // only populated for Framed
}

// NewMapArea constructs an area over [start, end) with the given type
// and permission bits (excluding PteV, which Map adds).
func NewMapArea(start, end mem.VPN, mt MapType, perm uint64) *MapArea {
	a := &MapArea{Start: start, End: end, Type: mt, Perm: perm}
	if mt == Framed {
		a.frames = make(map[mem.VPN]*mem.FrameTracker)
	}
	return a
}

// Contains reports whether vpn falls in this area's half-open range.
func (a *MapArea) Contains(vpn mem.VPN) bool {
	return vpn >= a.Start && vpn < a.End
}

// Overlaps reports whether this area and other share any VPN, used to
// enforce MemorySet invariant (a): "no two areas overlap".
func (a *MapArea) Overlaps(other *MapArea) bool {
	return a.Start < other.End && other.Start < a.End
}

// mapInto installs every page of this area into pt, allocating frames
// for Framed areas as it goes. It is the only place Framed areas acquire
// frames, keeping the invariant that an area's frames map keys equal its
// VPN range ( "Invariants enforced").
func (a *MapArea) mapInto(pt *PageTable, alloc *mem.FrameAllocator) {
	for vpn := a.Start; vpn < a.End; vpn++ {
		var ppn mem.PPN
		switch a.Type {
		case Identical:
			ppn = mem.PPN(vpn)
		case Linear:
			ppn = mem.PPN(int64(vpn) - (a.LinearOff >> mem.PageShift))
		case Framed:
			frame, ok := alloc.Alloc()
			if !ok {
				panic("vm: out of frames mapping area")
			}
			a.frames[vpn] = frame
			ppn = frame.PPN
		}
		pt.Map(vpn, ppn, a.Perm|PteV)
	}
}

// unmapFrom removes every page of this area from pt and releases any
// frames it owned.
func (a *MapArea) unmapFrom(pt *PageTable) {
	for vpn := a.Start; vpn < a.End; vpn++ {
		pt.Unmap(vpn)
		if a.Type == Framed {
			if f, ok := a.frames[vpn]; ok {
				f.Dealloc()
				delete(a.frames, vpn)
			}
		}
	}
}

// pageBytes returns the byte slice backing vpn within a Framed area,
// used by FromELF/FromExistedUser to copy segment/clone data.
func (a *MapArea) pageBytes(vpn mem.VPN) []byte {
	f, ok := a.frames[vpn]
	if !ok {
		panic("vm: pageBytes of unmapped framed vpn")
	}
	return f.Bytes()
}
