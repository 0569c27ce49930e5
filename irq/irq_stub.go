//go:build !riscv64

package irq

// Host builds have no sstatus CSR, so the "interrupt disable" is
// modeled as a plain flag mirroring the CSR's own reentrant semantics:
// DisableSave always reports the PRIOR state and forces disabled,
// exactly like readSIEAndClear, so nested Disable/Restore pairs (e.g. a
// Cell.Access whose callback takes another Cell) compose correctly the
// same way they do reading sstatus.SIE on the real target. There is
// only ever one hart here, so no actual mutual exclusion is needed --
// the single-goroutine host tests never run two of these concurrently.
var hostEnabled = true

func DisableSave() bool {
	was := hostEnabled
	hostEnabled = false
	return was
}

func Restore(wasEnabled bool) {
	hostEnabled = wasEnabled
}
