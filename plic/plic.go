// Package plic drives the platform-level interrupt controller at
// VIRT_PLIC, routing the virtio bus slots (1..8) and UART (10) external
// interrupts to the single hart. Grounded on
// original_source/os/src/boards/qemu.rs's device_init/irq_handler
// (set_threshold/enable/set_priority at boot, then claim/dispatch/
// complete on every SupervisorExternal trap) and its
// drivers::plic::PLIC type's threshold-priority-per-target-mode shape.
package plic

// TargetPriority selects which privilege mode's interrupt-enable/
// threshold registers a call addresses, mirroring qemu.rs's
// IntrTargetPriority::{Machine,Supervisor}.
type TargetPriority int

const (
	Machine TargetPriority = iota
	Supervisor
)

// Handler services one claimed interrupt source.
type Handler func()

// Controller owns the PLIC's MMIO registers (or, on the host build, an
// in-memory stand-in) plus the dispatch table Claim consults.
type Controller struct {
	regs registers
	handlers map[int]Handler
}

// New returns a Controller bound to the PLIC's base MMIO address,
// mirroring qemu.rs's PLIC::new(VIRT_PLIC).
func New(base uintptr) *Controller {
	return &Controller{regs: newRegisters(base), handlers: map[int]Handler{}}
}

// Register installs the handler invoked when Dispatch claims source,
// and raises its priority above the threshold so it can ever fire --
// qemu.rs's device_init loop does both set_priority and enable per
// source it cares about.
func (c *Controller) Register(hart int, target TargetPriority, source int, h Handler) {
	c.regs.setPriority(source, 1)
	c.regs.enable(hart, target, source)
	c.handlers[source] = h
}

// SetThreshold sets the minimum priority target's claim will report,
// mirroring qemu.rs's set_threshold(hart, priority, 0) call that arms
// Supervisor-mode claiming at boot.
func (c *Controller) SetThreshold(hart int, target TargetPriority, threshold uint32) {
	c.regs.setThreshold(hart, target, threshold)
}

// Raise marks source pending, simulating a device asserting its
// interrupt line. Only meaningful on the host build's in-memory
// registers; used by tests to exercise Dispatch without real hardware.
func (c *Controller) Raise(source int) { c.regs.raise(source) }

// Dispatch implements trap.Hooks.ClaimExternalIRQ: claim the pending
// source, run its registered handler (panicking on an unregistered
// source, per qemu.rs's irq_handler match arm), then complete it.
func (c *Controller) Dispatch(hart int, target TargetPriority) {
	source := c.regs.claim(hart, target)
	h, ok := c.handlers[source]
	if !ok {
		panic("plic: unsupported IRQ source")
	}
	h()
	c.regs.complete(hart, target, source)
}
