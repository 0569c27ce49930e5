package plic

import "testing"

func TestDispatchRoutesToRegisteredHandler(t *testing.T) {
	c := New(0x0C00_0000)
	var fired bool
	c.Register(0, Supervisor, 10, func() { fired = true })
	c.SetThreshold(0, Supervisor, 0)

	c.Raise(10)
	c.Dispatch(0, Supervisor)

	if !fired {
		t.Fatal("expected the UART handler to fire")
	}
}

func TestDispatchUnregisteredSourcePanics(t *testing.T) {
	c := New(0x0C00_0000)
	c.SetThreshold(0, Supervisor, 0)
	c.Raise(7)
	c.regs.enabled[ctxSource{contextFor(0, Supervisor), 7}] = true
	c.regs.priority[7] = 1

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected Dispatch to panic on an unregistered source")
		}
	}()
	c.Dispatch(0, Supervisor)
}

func TestClaimIgnoresSourcesBelowThreshold(t *testing.T) {
	c := New(0x0C00_0000)
	var fired bool
	c.Register(0, Supervisor, 3, func() { fired = true })
	c.SetThreshold(0, Supervisor, 5) // priority 1 (Register's default) never clears this

	c.Raise(3)
	source := c.regs.claim(0, Supervisor)
	if source != 0 {
		t.Fatalf("expected no claimable source below threshold, got %d", source)
	}
	if fired {
		t.Fatal("handler must not have run")
	}
}

func TestMachineAndSupervisorContextsAreIndependent(t *testing.T) {
	c := New(0x0C00_0000)
	c.Register(0, Machine, 5, func() {})
	c.SetThreshold(0, Machine, 0)
	c.SetThreshold(0, Supervisor, 0)

	c.Raise(5)
	if got := c.regs.claim(0, Supervisor); got != 0 {
		t.Fatalf("expected Supervisor context not to claim a Machine-enabled source, got %d", got)
	}
}
