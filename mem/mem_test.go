package mem

import "testing"

func TestFrameAllocDealloc(t *testing.T) {
	a := NewFrameAllocator(0x1000, 0x1010)
	var trackers []*FrameTracker
	for i := 0; i < 16; i++ {
		tr, ok := a.Alloc()
		if !ok {
			t.Fatalf("alloc %d failed", i)
		}
		trackers = append(trackers, tr)
	}
	if _, ok := a.Alloc(); ok {
		t.Fatalf("expected out-of-memory after exhausting range")
	}
	trackers[0].Dealloc()
	tr, ok := a.Alloc()
	if !ok {
		t.Fatalf("alloc after dealloc failed")
	}
	if tr.PPN != trackers[0].PPN {
		t.Fatalf("recycle stack did not reissue freed ppn")
	}
}

func TestDoubleFreeIsFatal(t *testing.T) {
	a := NewFrameAllocator(0x2000, 0x2004)
	tr, ok := a.Alloc()
	if !ok {
		t.Fatalf("alloc failed")
	}
	tr.Dealloc()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on double free")
		}
	}()
	tr.Dealloc()
}

func TestAllocatedPagesAreZeroed(t *testing.T) {
	a := NewFrameAllocator(0x3000, 0x3001)
	tr, ok := a.Alloc()
	if !ok {
		t.Fatalf("alloc failed")
	}
	b := tr.Bytes()
	b[10] = 0xff
	tr.Dealloc()
	tr2, ok := a.Alloc()
	if !ok {
		t.Fatalf("realloc failed")
	}
	if tr2.Bytes()[10] != 0 {
		t.Fatalf("reallocated page was not zeroed")
	}
}

func TestKernelHeapAllocFree(t *testing.T) {
	h := NewKernelHeap(0x9000_0000, 1<<20)
	a := h.Alloc(100)
	b := h.Alloc(200)
	if a == b {
		t.Fatalf("distinct allocations aliased")
	}
	h.Free(a, 100)
	h.Free(b, 200)
	c := h.Alloc(4096)
	if c == 0 {
		t.Fatalf("alloc after free failed")
	}
}
