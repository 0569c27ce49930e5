package trap

// activeHooks is the single Hooks dispatch table cmd/kernel's boot
// sequence installs once at startup. The real trap entry __alltraps
// jumps into by raw address (proc.SetTrapHandlerAddr) has no way to
// carry a closure across a hardware trap, so DispatchUserTrap/
// DispatchKernelTrap reach back through this package-level pointer
// instead, the "expose through free functions" pattern for
// global kernel singletons.
var activeHooks *Hooks

// SetHooks installs the Hooks table built at boot.
func SetHooks(h *Hooks) { activeHooks = h }

// DispatchUserTrap is the function a live kernel build's TrapHandler
// address ultimately resolves to: it hands cx and cause off to
// HandleUserTrap against the globally installed Hooks.
func DispatchUserTrap(cx *Context, cause Cause) *Context {
	return HandleUserTrap(activeHooks, cx, cause)
}

// DispatchKernelTrap is DispatchUserTrap's counterpart for a trap taken
// while already running in S-mode, the reduced
// kernel-mode vector.
func DispatchKernelTrap(cause Cause) {
	HandleKernelTrap(activeHooks, cause)
}
