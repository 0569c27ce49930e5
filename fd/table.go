package fd

import "rvcore/defs"

// Table is a process's open-file-descriptor table: a slice indexed by fd
// number plus a free list of numbers released by Close, so a closed fd
// number is reused before the table grows -- the same id-reuse policy
// proc.RecycleAllocator applies to pids/tids, reimplemented locally
// rather than imported so this leaf package never depends on proc (which
// itself embeds a Table per process and would otherwise form an import
// cycle).
type Table struct {
	slots []*Fd
	free []int
}

// NewTable returns an empty descriptor table.
func NewTable() *Table {
	return &Table{}
}

// Install assigns the lowest available fd number to ops/perms and
// returns it, or EMFILE if the table has hit its configured limit.
func (t *Table) Install(ops Ops, perms int) (int, defs.Err_t) {
	const maxFds = 256
	f := &Fd{Ops: ops, Perms: perms}
	if n := len(t.free); n > 0 {
		low := 0
		for i := 1; i < n; i++ {
			if t.free[i] < t.free[low] {
				low = i
			}
		}
		num := t.free[low]
		t.free = append(t.free[:low], t.free[low+1:]...)
		t.slots[num] = f
		return num, 0
	}
	if len(t.slots) >= maxFds {
		return 0, defs.EMFILE
	}
	t.slots = append(t.slots, f)
	return len(t.slots) - 1, 0
}

// Get returns the Fd at num, or ok=false if num is closed or was never
// assigned.
func (t *Table) Get(num int) (*Fd, bool) {
	if num < 0 || num >= len(t.slots) || t.slots[num] == nil {
		return nil, false
	}
	return t.slots[num], true
}

// Close closes and releases num, the close syscall.
// Returns EBADF for an fd number that is not currently open.
func (t *Table) Close(num int) defs.Err_t {
	f, ok := t.Get(num)
	if !ok {
		return defs.EBADF
	}
	err := f.Ops.Close()
	t.slots[num] = nil
	t.free = append(t.free, num)
	return err
}

// Dup duplicates num onto the lowest available fd number, for the dup
// syscall.
func (t *Table) Dup(num int) (int, defs.Err_t) {
	f, ok := t.Get(num)
	if !ok {
		return 0, defs.EBADF
	}
	nf, err := f.Copy()
	if err != 0 {
		return 0, err
	}
	return t.Install(nf.Ops, nf.Perms)
}

// CloseAll closes every open descriptor in t, used at process exit.
// A pipe write end's Close decrements its ring's writer refcount, which
// is how a reader blocked on an empty pipe learns the last writer is
// gone and it should see EOF rather than block forever.
func (t *Table) CloseAll() {
	for num, f := range t.slots {
		if f == nil {
			continue
		}
		ClosePanic(f)
		t.slots[num] = nil
	}
	t.free = nil
}

// Clone returns a fresh table sharing every open Fd's underlying Ops
// with t (reopened, so refcounts stay correct), used by fork: a forked
// child inherits its parent's open descriptors.
func (t *Table) Clone() (*Table, defs.Err_t) {
	nt := &Table{slots: make([]*Fd, len(t.slots)), free: append([]int(nil), t.free...)}
	for i, f := range t.slots {
		if f == nil {
			continue
		}
		nf, err := f.Copy()
		if err != 0 {
			return nil, err
		}
		nt.slots[i] = nf
	}
	return nt, 0
}
