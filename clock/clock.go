// Package clock reads the platform's free-running time counter, per
// original_source's os/src/timer.rs: CLOCK_FREQ ticks per second, read
// directly from the `time` CSR rather than an SBI call (SBI covers
// console/timer-arm/shutdown; reading the counter is a plain CSR read
// with no firmware round trip). Used by the get_time syscall, by
// cmd/kernel to arm each timer interrupt, and by its timer tick to sweep
// the timer wheel.
package clock

// CLOCK_FREQ is QEMU virt's default timebase-frequency, matching the
// constant original_source's os/src/config.rs hardcodes for this board.
const CLOCK_FREQ = 12_500_000

const msecPerSec = 1000

// TicksPerSec is how many timer interrupts the boot sequence arms per
// second of wall-clock time, matching original_source's timer.rs
// TICKS_PER_SEC.
const TicksPerSec = 100

// NowMs returns the current time in milliseconds since boot.
func NowMs() int64 {
	return int64(readTime()) / (CLOCK_FREQ / msecPerSec)
}

// NowTicks returns the raw free-running counter value, for arming the
// next timer interrupt CLOCK_FREQ/TicksPerSec ticks ahead of now, per
// original_source's set_next_trigger.
func NowTicks() uint64 {
	return readTime()
}
