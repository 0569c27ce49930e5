//go:build riscv64

package irq

// readSIEAndClear / writeSIE are implemented in irq_riscv64.s: they read
// and set/clear sstatus's SIE bit (bit 1).
func readSIEAndClear() bool
func writeSIE(enable bool)

func DisableSave() bool {
	return readSIEAndClear()
}

func Restore(wasEnabled bool) {
	writeSIE(wasEnabled)
}
