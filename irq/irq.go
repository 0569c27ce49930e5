// Package irq provides the interrupt-disabling exclusive-access wrapper
// calls for around global mutable kernel state (pid map,
// ready queue, timer heap, KERNEL_SPACE, device handles): "guarded by an
// interrupt-disabling exclusive-access wrapper that both prevents
// reentrancy from IRQs and enforces single-writer discipline."
//
// On a single hart there is no cross-core race to guard against (SMP is
// out of scope), only reentrancy from an interrupt handler running
// on top of code that is mutating the same structure — hence disabling
// S-mode interrupts is sufficient and a full spinlock is not needed, the
// same shape as the original rCore-tutorial's UPIntrFreeCell.
package irq

// DisableSave (irq_riscv64.go, irq_stub.go) disables S-mode interrupts
// (clearing sstatus.SIE) and returns whether they were enabled
// beforehand, so the caller can restore the prior state rather than
// unconditionally re-enabling. Restore sets sstatus.SIE back to the
// value returned by a prior DisableSave.

// Cell wraps a value that must only ever be touched with interrupts
// disabled. Access runs f with exclusive access and the correct
// interrupt state restored afterward, mirroring how says
// global kernel singletons should be "exposed through free functions
// that take the wrapper briefly."
type Cell[T any] struct {
	v T
}

// NewCell wraps an initial value.
func NewCell[T any](v T) *Cell[T] { return &Cell[T]{v: v} }

// Access exclusively runs f against the wrapped value.
func (c *Cell[T]) Access(f func(*T)) {
	was := DisableSave()
	f(&c.v)
	Restore(was)
}
