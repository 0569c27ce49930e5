//go:build !riscv64

package proc

// Host builds have no second call stack to actually jump to -- there is
// only ever one goroutine driving the scheduler's unit tests -- so this
// models just the bookkeeping half of Switch: new's fields become old's
// so callers that inspect a TaskContext after a Switch see the same
// save/restore accounting the real instruction sequence would produce.
func switchTo(old, new *TaskContext) {
	*old, *new = *new, *old
}
