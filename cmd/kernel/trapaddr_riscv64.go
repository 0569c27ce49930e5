//go:build riscv64

package main

import (
	"reflect"

	"rvcore/trap"
)

// trapHandlerAddr returns the machine address __alltraps's saved
// TrapHandler field ultimately jumps to: trap.DispatchUserTrap, the one
// fixed entry point that re-enters the Hooks dispatch table installed
// by trap.SetHooks. A plain top-level function's reflect.Value.Pointer
// is its real code address, the same way any assembly stub reaches a Go
// symbol by name.
func trapHandlerAddr() uintptr {
	return reflect.ValueOf(trap.DispatchUserTrap).Pointer()
}
