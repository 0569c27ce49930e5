//go:build riscv64

package proc

// switchTo is implemented in switch_riscv64.s.
func switchTo(old, new *TaskContext)
