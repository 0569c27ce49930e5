// Command kernel is the preemptive multitasking RISC-V kernel's boot
// entry point. Its data flow, grounded on original_source's
// os/src/main.rs rust_main: clear BSS, initialize the heap and frame
// allocator, build the kernel address space, map the trampoline,
// activate paging, initialize trap vectors, enable the timer, load
// initproc from the filesystem as the first process, and enter the
// scheduler loop.
package main

import (
	"rvcore/clock"
	"rvcore/defs"
	"rvcore/fd"
	"rvcore/fs"
	"rvcore/klog"
	"rvcore/mem"
	"rvcore/plic"
	"rvcore/proc"
	"rvcore/sbi"
	"rvcore/sync"
	sys "rvcore/syscall"
	"rvcore/trap"
	"rvcore/vm"
)

// kernelSections describes this image's own text/rodata/data/bss
// boundaries -- the Go-and-linker-script equivalent of the symbols
// original_source's linker-qemu.ld defines (stext, etext,..., ekernel).
// A production build's linker script supplies the real section
// addresses; this fixed layout reserves a modest region of each kind
// starting at QEMU virt's load address, standing in for them.
var kernelSections = vm.KernelSections{
	TextStart: defs.KernelLoadAddr,
	TextEnd: defs.KernelLoadAddr + 0x10_0000,
	RodataStart: defs.KernelLoadAddr + 0x10_0000,
	RodataEnd: defs.KernelLoadAddr + 0x18_0000,
	DataStart: defs.KernelLoadAddr + 0x18_0000,
	DataEnd: defs.KernelLoadAddr + 0x1c_0000,
	BSSStart: defs.KernelLoadAddr + 0x1c_0000,
	BSSEnd: defs.KernelLoadAddr + 0x20_0000,
	EKernel: defs.KernelLoadAddr + 0x20_0000,
}

// trampolinePPN is the physical frame the trampoline page (__alltraps/
// __restore) is built into; a production build's linker script fixes
// this to strampoline's real load address.
const trampolinePPN = mem.PPN(0x8_001f)

const hart = 0

// BootConfig collects the platform-supplied inputs setup needs, keeping
// setup itself a pure function a test can drive without a real machine
// underneath it.
type BootConfig struct {
	FrameAlloc *mem.FrameAllocator
	PLIC *plic.Controller
	FS *fs.MemFS
	InitPath string
}

// setup implements the boot sequence through "enters the scheduler
// loop" minus that last step, which main calls separately since
// proc.RunTasks never returns. It returns the live dispatcher so tests
// (and main, for symmetry) can inspect what was wired.
func setup(cfg BootConfig) *sys.Dispatcher {
	kernelSpace := vm.NewKernel(cfg.FrameAlloc, kernelSections)
	kernelSpace.MapTrampoline(trampolinePPN)
	vm.SetKernelSpace(kernelSpace)
	kernelSpace.Activate()

	dispatcher := sys.NewDispatcher(cfg.FS, cfg.FrameAlloc, trampolinePPN)

	cfg.PLIC.SetThreshold(hart, plic.Supervisor, 0)
	for src := defs.IRQVirtioBase; src <= defs.IRQVirtioLast; src++ {
		cfg.PLIC.Register(hart, plic.Supervisor, src, func() {})
	}
	cfg.PLIC.Register(hart, plic.Supervisor, defs.IRQUART, func() {})

	trap.SetHooks(&trap.Hooks{
		Syscall: dispatcher.Dispatch,
		CurrentTrapContext: sys.CurrentTrapContext,
		PostSignal: sys.PostSignal,
		OnTimerTick: onTimerTick,
		ClaimExternalIRQ: func() { cfg.PLIC.Dispatch(hart, plic.Supervisor) },
		RunPendingSignals: sys.RunPendingSignals,
		ExitCurrent: sys.ExitCurrent,
	})
	proc.SetTrapHandlerAddr(trapHandlerAddr)
	proc.SetOnProcessExit(sys.CleanupSyncTables)

	trap.EnableTimerInterrupt()
	setNextTrigger()

	initImage, ferr := loadInitproc(cfg.FS, cfg.InitPath)
	if ferr != 0 {
		klog.Fatalf("boot: loading %s: errno %d", cfg.InitPath, ferr)
		panic("boot: no initproc image")
	}
	initProc := proc.New(initImage, cfg.FrameAlloc, trampolinePPN)
	installStdFds(initProc)
	proc.SetInitProc(initProc)

	return dispatcher
}

// loadInitproc reads the first process's ELF image out of the boot
// filesystem, per the "loads the initproc program from the
// filesystem as the first process".
func loadInitproc(provider fs.Provider, path string) ([]byte, defs.Err_t) {
	file, err := provider.OpenFile(path)
	if err != 0 {
		return nil, err
	}
	return file.ReadAll()
}

// installStdFds gives a fresh process the three standard descriptors
// every shell and user program expects open on entry, backed by the
// legacy SBI console.
func installStdFds(p *proc.Process) {
	p.Inner.Access(func(pi *proc.ProcessInner) {
		pi.Fds.Install(consoleOps{}, fd.Read)
		pi.Fds.Install(consoleOps{}, fd.Write)
		pi.Fds.Install(consoleOps{}, fd.Write)
	})
}

// setNextTrigger arms the next timer interrupt CLOCK_FREQ/TicksPerSec
// ticks ahead of now, per original_source's set_next_trigger.
func setNextTrigger() {
	sbi.SetTimer(clock.NowTicks() + clock.CLOCK_FREQ/clock.TicksPerSec)
}

// onTimerTick is trap.Hooks.OnTimerTick: re-arm the next trigger, sweep
// the timer wheel, and yield, -- all three happen
// together at every SupervisorTimer trap.
func onTimerTick() {
	setNextTrigger()
	sync.CheckTimer(clock.NowMs())
	proc.SuspendCurrentAndRunNext()
}

func main() {
	klog.Init(sbi.Console{}, klog.LevelInfo)

	frameAlloc := mem.NewFrameAllocator(mem.PPNOf(kernelSections.EKernel), mem.PPNOf(defs.MemoryEnd))
	memfs := fs.NewMemFS()

	setup(BootConfig{
		FrameAlloc: frameAlloc,
		PLIC: plic.New(defs.VirtPLIC),
		FS: memfs,
		InitPath: "initproc",
	})

	klog.Infof("boot complete, entering scheduler loop")
	proc.RunTasks()
}
