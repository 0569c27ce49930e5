//go:build riscv64

package vm

// writeSatp writes token to the satp CSR, switching the active page
// table, "activate". Implemented in arch_riscv64.s.
func writeSatp(token uint64)

// sfenceVMA flushes stale TLB entries after a satp write.
func sfenceVMA()
