package pipe

import (
	"bytes"
	"testing"

	"rvcore/defs"
)

func TestRoundTripSmallWriteThenRead(t *testing.T) {
	r, w := New()
	msg := []byte("hello, pipe")
	n, err := w.Write(msg)
	if err != 0 || n != len(msg) {
		t.Fatalf("write: n=%d err=%v", n, err)
	}
	buf := make([]byte, 64)
	n, err = r.Read(buf)
	if err != 0 {
		t.Fatalf("read: err=%v", err)
	}
	if !bytes.Equal(buf[:n], msg) {
		t.Fatalf("expected %q, got %q", msg, buf[:n])
	}
}

func TestWriteWrapsAroundRingBuffer(t *testing.T) {
	r, w := New()
	first := bytes.Repeat([]byte{'a'}, Size-4)
	if n, err := w.Write(first); err != 0 || n != len(first) {
		t.Fatalf("first write: n=%d err=%v", n, err)
	}
	drained := make([]byte, len(first)-2)
	if n, _ := r.Read(drained); n != len(drained) {
		t.Fatalf("expected to drain %d bytes, got %d", len(drained), n)
	}

	second := []byte("wraparound!!")
	if n, err := w.Write(second); err != 0 || n != len(second) {
		t.Fatalf("second write: n=%d err=%v", n, err)
	}

	rest := make([]byte, 256)
	n, _ := r.Read(rest)
	want := append(first[len(drained):], second...)
	if !bytes.Equal(rest[:n], want) {
		t.Fatalf("expected %q, got %q", want, rest[:n])
	}
}

func TestWriteBeyondCapacityIsShort(t *testing.T) {
	r, w := New()
	_ = r
	big := bytes.Repeat([]byte{'x'}, Size+100)
	n, err := w.Write(big)
	if err != 0 {
		t.Fatalf("unexpected error %v", err)
	}
	if n != Size {
		t.Fatalf("expected short write of %d, got %d", Size, n)
	}
}

func TestReadFromEmptyPipeReturnsZero(t *testing.T) {
	r, _ := New()
	buf := make([]byte, 16)
	n, err := r.Read(buf)
	if n != 0 || err != 0 {
		t.Fatalf("expected (0,0) from an empty pipe, got (%d,%v)", n, err)
	}
}

func TestWriteAfterAllReadersClosedIsEPIPE(t *testing.T) {
	r, w := New()
	if err := r.Close(); err != 0 {
		t.Fatalf("unexpected close error %v", err)
	}
	_, err := w.Write([]byte("x"))
	if err != defs.EPIPE {
		t.Fatalf("expected EPIPE, got %v", err)
	}
}

func TestReopenBumpsRefcountSoOneCloseLeavesPipeOpen(t *testing.T) {
	r, w := New()
	r2 := &ReadEnd{p: r.p}
	r2.Reopen()
	r.Close() // drops to 1 reader, still open
	if _, err := w.Write([]byte("ok")); err != 0 {
		t.Fatalf("expected pipe to remain writable, got %v", err)
	}
}
