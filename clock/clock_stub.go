//go:build !riscv64

package clock

// ticks is an in-process counter standing in for the `time` CSR when
// this module runs as a host binary (tests, cmd/mkfs): there is no real
// timebase to read, so every call advances by one simulated tick.
var ticks uint64

func readTime() uint64 {
	ticks++
	return ticks
}
