//go:build riscv64

package trap

// setSTIE is implemented in timerctl_riscv64.s: sets sie.STIE (bit 5),
// unmasking the supervisor timer interrupt line.
func setSTIE()

// EnableTimerInterrupt implements original_source's
// enabled_timer_interrupt, called once from cmd/kernel's boot sequence
// after trap vectors are installed.
func EnableTimerInterrupt() { setSTIE() }
