package fs

import (
	"bytes"
	"testing"

	"rvcore/defs"
)

func TestOpenFileMissingPathIsENOENT(t *testing.T) {
	m := NewMemFS()
	if _, err := m.OpenFile("/nope"); err != defs.ENOENT {
		t.Fatalf("expected ENOENT, got %v", err)
	}
}

func TestReadAllReturnsInstalledBytes(t *testing.T) {
	m := NewMemFS()
	m.Install("/init", []byte("entry point"))
	f, err := m.OpenFile("/init")
	if err != 0 {
		t.Fatalf("unexpected error %v", err)
	}
	data, err := f.ReadAll()
	if err != 0 {
		t.Fatalf("unexpected read error %v", err)
	}
	if !bytes.Equal(data, []byte("entry point")) {
		t.Fatalf("got %q", data)
	}
}

func TestOpenWithoutCreatOnMissingPathFails(t *testing.T) {
	m := NewMemFS()
	if _, err := m.Open("/missing", defs.ORdonly); err != defs.ENOENT {
		t.Fatalf("expected ENOENT, got %v", err)
	}
}

func TestOpenWriteCloseOpenReadRoundTrips(t *testing.T) {
	m := NewMemFS()
	wf, err := m.Open("/a.txt", defs.OCreat|defs.OWronly)
	if err != 0 {
		t.Fatalf("open for write: %v", err)
	}
	payload := []byte("round trip bytes")
	if n, err := wf.Write(payload); err != 0 || n != len(payload) {
		t.Fatalf("write: n=%d err=%v", n, err)
	}
	if err := wf.Close(); err != 0 {
		t.Fatalf("close: %v", err)
	}

	rf, err := m.Open("/a.txt", defs.ORdonly)
	if err != 0 {
		t.Fatalf("reopen: %v", err)
	}
	buf := make([]byte, 64)
	n, err := rf.Read(buf)
	if err != 0 {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(buf[:n], payload) {
		t.Fatalf("expected %q, got %q", payload, buf[:n])
	}
}

func TestOTruncDiscardsExistingContent(t *testing.T) {
	m := NewMemFS()
	m.Install("/b.txt", []byte("old content"))
	wf, err := m.Open("/b.txt", defs.OWronly|defs.OTrunc)
	if err != 0 {
		t.Fatalf("open: %v", err)
	}
	wf.Close()

	rf, _ := m.Open("/b.txt", defs.ORdonly)
	buf := make([]byte, 64)
	n, _ := rf.Read(buf)
	if n != 0 {
		t.Fatalf("expected truncated file to read empty, got %d bytes", n)
	}
}

func TestWritesAreIsolatedUntilClose(t *testing.T) {
	m := NewMemFS()
	m.Install("/c.txt", []byte("original"))
	wf, _ := m.Open("/c.txt", defs.OWronly|defs.OTrunc)
	wf.Write([]byte("new"))

	// A second open, before Close, must not observe the uncommitted write.
	rf, _ := m.Open("/c.txt", defs.ORdonly)
	buf := make([]byte, 64)
	n, _ := rf.Read(buf)
	if !bytes.Equal(buf[:n], []byte("original")) {
		t.Fatalf("expected isolation before close, got %q", buf[:n])
	}
}
