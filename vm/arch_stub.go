//go:build !riscv64

package vm

// lastSatp records the last token written, purely so host-side tests can
// assert Activate() was called; there is no real satp CSR off-target.
var lastSatp uint64

func writeSatp(token uint64) { lastSatp = token }
func sfenceVMA()             {}
