// Package sbi wraps the supervisor binary interface: the firmware service
// call surface used for console I/O, the timer, and machine shutdown.
// It is the out-of-scope "SBI layer" collaborator named in,
// modeled the way the original rCore-tutorial's os/src/sbi.rs does and
// grounded on the retrieval pack's internal/hv/riscv/rv64/sbi.go SBI
// extension/function ID tables for the constants below.
package sbi

// SBI extension IDs, grounded on _examples/other_examples's
// internal-hv-riscv-rv64-sbi.go (tinyrange-cc), which documents the same
// legacy/HSM/TIME/SRST extension layout OpenSBI implements.
const (
	extLegacyPutchar = 0x01
	extLegacyGetchar = 0x02
	extTimer = 0x54494D45 // "TIME"
	extSRST = 0x53525354 // "SRST"
)

const (
	fnTimerSetTimer = 0
	fnSRSTReset = 0
)

const (
	resetTypeShutdown = 0
	reasonNoReason = 0
	reasonFailure = 1
)

// sbiCall issues an ecall to M-mode firmware with the given extension and
// function IDs and up to three arguments. It is implemented in
// sbi_riscv64.s; callers never see the machine's a0/a1 split. On a host
// that is not running under SBI firmware (e.g. this module's test suite
// on the development machine) it is stubbed by sbi_stub.go instead,
// selected by a build tag so tests can exercise callers without a real
// ecall trap.
func sbiCall(eid, fid, arg0, arg1, arg2 uintptr) uintptr

// ConsolePutchar writes a single byte to the UART console via the SBI
// legacy console extension.
func ConsolePutchar(c byte) {
	sbiCall(extLegacyPutchar, 0, uintptr(c), 0, 0)
}

// ConsoleGetchar reads one byte from the console, or -1 (as 0xff..ff)
// if no byte is ready.
func ConsoleGetchar() int {
	return int(int64(sbiCall(extLegacyGetchar, 0, 0, 0, 0)))
}

// SetTimer arms the next supervisor timer interrupt to fire at the given
// absolute mtime value.
func SetTimer(stimeValue uint64) {
	sbiCall(extTimer, fnTimerSetTimer, uintptr(stimeValue), 0, 0)
}

// Shutdown powers the machine off through the SBI system reset extension.
// failure selects the system-reset reason reported to firmware; it never
// returns.
func Shutdown(failure bool) {
	reason := uintptr(reasonNoReason)
	if failure {
		reason = reasonFailure
	}
	sbiCall(extSRST, fnSRSTReset, resetTypeShutdown, reason, 0)
	for {
	}
}

// Console adapts the SBI legacy console extension to io.Writer so the
// rest of the kernel (klog, the stdio file descriptor) can treat it like
// any other byte sink.
type Console struct{}

func (Console) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\n' {
			ConsolePutchar('\r')
		}
		ConsolePutchar(b)
	}
	return len(p), nil
}
