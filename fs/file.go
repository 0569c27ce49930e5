package fs

import (
	"rvcore/defs"
	"rvcore/fd"
)

// RegularFile is an open file description over a MemFS path, supporting
// the read/write/close surface fd.Ops requires so an open/write/close/
// open/read round trip can run through the normal syscall path rather
// than a special case. It buffers fully in memory and commits on
// close -- full journaling/logging durability is out of scope here.
type RegularFile struct {
	fs *MemFS
	path string
	offset int
	data []byte
	dirty bool
}

// Open implements the open syscall against a MemFS: with
// OCreat set, a missing path is created empty; OTrunc discards existing
// content.
func (m *MemFS) Open(path string, flags int) (*RegularFile, defs.Err_t) {
	var data []byte
	var ok bool
	// created or truncated content is committed on Close even with no write
	var reset bool
	m.files.Access(func(f *map[string][]byte) { data, ok = (*f)[path] })
	if !ok {
		if flags&defs.OCreat == 0 {
			return nil, defs.ENOENT
		}
		data = nil
		reset = true
	} else if flags&defs.OTrunc != 0 {
		data = nil
		reset = true
	} else {
		cp := make([]byte, len(data))
		copy(cp, data)
		data = cp
	}
	return &RegularFile{fs: m, path: path, data: data, dirty: reset}, 0
}

// Read implements fd.Ops: reads from the current offset, advancing it.
func (rf *RegularFile) Read(buf []byte) (int, defs.Err_t) {
	if rf.offset >= len(rf.data) {
		return 0, 0
	}
	n := copy(buf, rf.data[rf.offset:])
	rf.offset += n
	return n, 0
}

// Write implements fd.Ops: writes at the current offset, extending the
// in-memory buffer as needed, and advances the offset.
func (rf *RegularFile) Write(buf []byte) (int, defs.Err_t) {
	end := rf.offset + len(buf)
	if end > len(rf.data) {
		grown := make([]byte, end)
		copy(grown, rf.data)
		rf.data = grown
	}
	copy(rf.data[rf.offset:end], buf)
	rf.offset = end
	rf.dirty = true
	return len(buf), 0
}

// Close commits any writes back into the MemFS, the
// "open/write/close/open/read of a regular file yields original bytes".
func (rf *RegularFile) Close() defs.Err_t {
	if rf.dirty {
		rf.fs.Install(rf.path, rf.data)
	}
	return 0
}

// Reopen is a no-op: MemFS holds no refcount, each RegularFile owns an
// independent in-memory copy committed on its own Close.
func (rf *RegularFile) Reopen() defs.Err_t { return 0 }

// OpenFD is Open's result as an fd.Ops, for installing directly into a
// process's descriptor table from the open syscall.
func (m *MemFS) OpenFD(path string, flags int) (fd.Ops, defs.Err_t) {
	rf, err := m.Open(path, flags)
	if err != 0 {
		return nil, err
	}
	return rf, 0
}
