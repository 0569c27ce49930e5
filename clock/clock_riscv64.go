//go:build riscv64

package clock

// readTime is implemented in clock_riscv64.s: `rdtime` reads the `time`
// CSR directly, with no ecall into the SBI firmware.
func readTime() uint64
