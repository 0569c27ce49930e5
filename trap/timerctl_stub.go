//go:build !riscv64

package trap

// EnableTimerInterrupt is a no-op on the host build: there is no sie
// register to unmask, and tests drive clock ticks/timer-wheel sweeps
// directly instead of through a real interrupt.
func EnableTimerInterrupt() {}
