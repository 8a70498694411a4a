// Package kmain contains the kernel entrypoint that brings up the hardware
// trust layer: console output, descriptor tables, interrupt handlers and the
// interrupt controllers.
package kmain

import (
	"gopherboot/device"
	"gopherboot/device/pic"
	"gopherboot/device/tty"
	"gopherboot/device/video/console"
	"gopherboot/kernel"
	"gopherboot/kernel/cpu"
	"gopherboot/kernel/gate"
	"gopherboot/kernel/gdt"
	"gopherboot/kernel/hal"
	"gopherboot/kernel/hal/multiboot"
	"gopherboot/kernel/irq"
	"gopherboot/kernel/kfmt"
)

var (
	setInfoPtrFn       = multiboot.SetInfoPtr
	detectHardwareFn   = hal.DetectHardware
	initDriverFn       = hal.InitDriver
	gdtInitFn          = gdt.Init
	irqInstallFn       = irq.Install
	gateInitFn         = gate.Init
	breakpointFn       = cpu.Breakpoint
	enableInterruptsFn = cpu.EnableInterrupts
	waitForInterruptFn = cpu.WaitForInterrupt
	panicFn            = kfmt.Panic

	// driverRegistrations lists the drivers probed by the HAL.
	driverRegistrations = [...]func() *kernel.Error{
		console.RegisterDrivers,
		tty.RegisterDrivers,
	}

	// picDriver remaps the interrupt controllers once the vector table
	// is in place.
	picDriver device.Driver = pic.SystemDriver{}
)

// Kmain is the only Go symbol that is visible (exported) from the rt0
// initialization code. This function is invoked by the rt0 assembly code after
// switching to long mode and setting up a minimal stack that allows Go code to
// run.
//
// The rt0 code passes the address of the multiboot info payload provided by the
// bootloader.
//
// Kmain never returns: once the tables are loaded it idles, waking up only to
// service interrupts. Errors during bring-up halt the CPU via kfmt.Panic.
//
//go:noinline
func Kmain(multibootInfoPtr uintptr) {
	setInfoPtrFn(multibootInfoPtr)

	for _, register := range driverRegistrations {
		if err := register(); err != nil {
			panicFn(err)
			return
		}
	}

	detectHardwareFn()
	if w := hal.ActiveTTY(); w != nil {
		w.Clear()
	}

	if err := bringUp(); err != nil {
		panicFn(err)
		return
	}

	kfmt.Printfln("Hello World !")
	kfmt.Printfln("The console wraps lines that do not fit on a single row, so this sentence continues on the next one.")

	// Exercise the diagnostic trap path; the handler resumes execution.
	breakpointFn()
	kfmt.Printfln("resumed after breakpoint")

	enableInterruptsFn()
	for {
		waitForInterruptFn()
	}
}

// bringUp loads the descriptor and vector tables and remaps the interrupt
// controllers. Interrupts stay disabled until it returns.
func bringUp() *kernel.Error {
	gdtInitFn()

	if err := irqInstallFn(); err != nil {
		return err
	}

	if err := gateInitFn(); err != nil {
		return err
	}

	return initDriverFn(picDriver)
}
