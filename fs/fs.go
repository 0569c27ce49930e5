// Package fs is a facade over a block-backed filesystem treated as an
// out-of-scope external collaborator exposing open_file/read_all/inode
// I/O -- this module implements only that capability surface, not a
// real on-disk format, log, or block cache. Provider mirrors a minimal
// Read(path) ([]byte, Err_t) surface, and MemFS is the in-memory
// filesystem used when no disk image is attached, rather than a real
// disk-backed path, since a disk driver is itself an out-of-scope
// collaborator here.
package fs

import (
	"rvcore/defs"
	"rvcore/irq"
)

// File is the read_all capability the facade names: the whole
// contents of an already-opened file.
type File interface {
	ReadAll() ([]byte, defs.Err_t)
}

// Provider is the open_file capability: resolve a path to a File.
type Provider interface {
	OpenFile(path string) (File, defs.Err_t)
}

// memFile implements File over an in-memory byte slice.
type memFile struct{ data []byte }

func (f *memFile) ReadAll() ([]byte, defs.Err_t) {
	out := make([]byte, len(f.data))
	copy(out, f.data)
	return out, 0
}

// MemFS is an in-memory Provider: no backing block device at all, every
// file just a byte slice in a map. cmd/kernel uses one to load initproc
// when booting without a driver-backed disk image, and cmd/mkfs's own
// tests build one to verify a manifest round-trips before writing a
// real image.
type MemFS struct {
	files *irq.Cell[map[string][]byte]
}

// NewMemFS returns an empty in-memory filesystem.
func NewMemFS() *MemFS {
	return &MemFS{files: irq.NewCell(map[string][]byte{})}
}

// Install adds or overwrites the file at path, used by boot code and
// tests to seed content -- there is no on-disk write path here, since
// durability is excluded from this module's scope.
func (m *MemFS) Install(path string, data []byte) {
	m.files.Access(func(f *map[string][]byte) {
		cp := make([]byte, len(data))
		copy(cp, data)
		(*f)[path] = cp
	})
}

// OpenFile implements Provider.
func (m *MemFS) OpenFile(path string) (File, defs.Err_t) {
	var data []byte
	var ok bool
	m.files.Access(func(f *map[string][]byte) { data, ok = (*f)[path] })
	if !ok {
		return nil, defs.ENOENT
	}
	return &memFile{data: data}, 0
}
