package proc

// TaskContext holds the callee-saved registers __switch exchanges when
// the scheduler moves the hart from one thread to another. Unlike
// Context (trap/context.go), this is never visible to userspace; it
// only exists across calls to Switch.
type TaskContext struct {
	RA uint64 // return address Switch resumes at
	SP uint64 // kernel stack pointer
	S [12]uint64 // s0-s11
}

// GotoTrapReturn builds the TaskContext a brand new thread's first
// Switch lands in: RA points at trap_return (supplied by the caller,
// since trap.HandleUserTrap's Go signature has no raw label address to
// take), SP is the thread's kernel stack top.
func GotoTrapReturn(trapReturn uintptr, kstackTop uintptr) *TaskContext {
	return &TaskContext{RA: uint64(trapReturn), SP: uint64(kstackTop)}
}

// Switch saves the caller's register state into old and restores new's,
// so the function returns on a different thread's stack than it was
// called on -- cooperative, not preemptible at arbitrary points: a
// context switch only ever happens inside __switch.
// See switch_riscv64.s for the real implementation;
// switch_stub.go models the same bookkeeping for host-run tests, which
// never actually transfer control between two live call stacks.
func Switch(old, new *TaskContext) {
	switchTo(old, new)
}
