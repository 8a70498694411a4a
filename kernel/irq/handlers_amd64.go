// Package irq binds the kernel's interrupt handlers to the vector table.
//
// The handler set is closed: diagnostic traps that log and resume, fatal
// faults that log and halt, and device interrupts that must be acknowledged
// at the interrupt controller before they return.
package irq

import (
	"gopherboot/device/keyboard"
	"gopherboot/device/pic"
	"gopherboot/kernel"
	"gopherboot/kernel/cpu"
	"gopherboot/kernel/gate"
	"gopherboot/kernel/gdt"
	"gopherboot/kernel/kfmt"
)

// Kind classifies how a handler treats the interrupt it receives.
type Kind uint8

const (
	// DiagnosticResume handlers log the event and return to the
	// interrupted code.
	DiagnosticResume Kind = iota

	// FatalHalt handlers log the event and halt the CPU; they never
	// return.
	FatalHalt

	// DeviceTimer handles the programmable interval timer line.
	DeviceTimer

	// DeviceKeyboard handles the PS/2 keyboard line.
	DeviceKeyboard
)

// Interrupt controller lines of the devices handled by this package.
const (
	TimerLine    = 0
	KeyboardLine = 1
)

// binding describes a handler and the vector it serves.
type binding struct {
	kind      Kind
	vector    gate.InterruptNumber
	istOffset uint8
	handler   gate.Handler
}

var (
	handleInterruptFn = gate.HandleInterrupt
	picOffsetsFn      = pic.Offsets
	notifyEOIFn       = pic.NotifyEndOfInterrupt
	readScancodeFn    = keyboard.ReadScancode
	readCR2Fn         = cpu.ReadCR2
	panicFn           = kfmt.Panic

	keyDecoder keyboard.Decoder

	// bindings is populated by Install; it is a fixed array so that no
	// allocation is required.
	bindings [6]binding

	errDoubleFault     = &kernel.Error{Module: "irq", Message: "double fault"}
	errProtectionFault = &kernel.Error{Module: "irq", Message: "general protection fault"}
	errPageFault       = &kernel.Error{Module: "irq", Message: "page fault"}
)

// Install binds every kernel handler to its vector. The double fault handler
// runs on the emergency stack referenced by the descriptor registry. Device
// handlers are bound relative to the primary interrupt controller offset.
func Install() *kernel.Error {
	primary, _ := picOffsetsFn()

	bindings = [6]binding{
		{DiagnosticResume, gate.Breakpoint, 0, breakpointHandler},
		{FatalHalt, gate.DoubleFault, gdt.DoubleFaultISTOffset, doubleFaultHandler},
		{FatalHalt, gate.GPFException, 0, generalProtectionFaultHandler},
		{FatalHalt, gate.PageFaultException, 0, pageFaultHandler},
		{DeviceTimer, gate.InterruptNumber(primary + TimerLine), 0, timerHandler},
		{DeviceKeyboard, gate.InterruptNumber(primary + KeyboardLine), 0, keyboardHandler},
	}

	for i := range bindings {
		if err := handleInterruptFn(bindings[i].vector, bindings[i].istOffset, bindings[i].handler); err != nil {
			return err
		}
	}

	return nil
}

// Lookup returns the kind and the handler installed for vector by Install.
func Lookup(vector gate.InterruptNumber) (Kind, gate.Handler, bool) {
	for i := range bindings {
		if bindings[i].handler != nil && bindings[i].vector == vector {
			return bindings[i].kind, bindings[i].handler, true
		}
	}

	return 0, nil, false
}

// breakpointHandler reports an int3 trap and resumes execution after the
// trapping instruction.
func breakpointHandler(regs *gate.Registers) {
	kfmt.Printfln("EXCEPTION: BREAKPOINT")
	regs.DumpTo(kfmt.GetOutputSink())
}

// doubleFaultHandler runs on the emergency stack. The interrupted state is
// not recoverable so it reports the fault and halts.
func doubleFaultHandler(regs *gate.Registers) {
	kfmt.Printfln("EXCEPTION: DOUBLE FAULT")
	regs.DumpTo(kfmt.GetOutputSink())
	panicFn(errDoubleFault)
}

// generalProtectionFaultHandler is invoked for various reasons:
// - segment errors (privilege, type or limit violations)
// - executing privileged instructions outside ring-0
// - attempts to access reserved or unimplemented CPU registers
func generalProtectionFaultHandler(regs *gate.Registers) {
	kfmt.Printfln("EXCEPTION: GENERAL PROTECTION FAULT (selector index 0x%x)", regs.ErrorCode>>3)
	regs.DumpTo(kfmt.GetOutputSink())
	panicFn(errProtectionFault)
}

// Page fault error code bits.
const (
	pageFaultPresent     = 1 << 0
	pageFaultWrite       = 1 << 1
	pageFaultUser        = 1 << 2
	pageFaultReservedBit = 1 << 3
	pageFaultFetch       = 1 << 4
)

// pageFaultHandler reports the faulting address and the reason encoded in the
// error code. Without paging support no fault can be recovered.
func pageFaultHandler(regs *gate.Registers) {
	kfmt.Printfln("EXCEPTION: PAGE FAULT")
	kfmt.Printf("address 0x%16x: ", readCR2Fn())

	switch code := regs.ErrorCode; {
	case code&pageFaultReservedBit != 0:
		kfmt.Printfln("page table has reserved bit set")
	case code&pageFaultFetch != 0:
		kfmt.Printfln("instruction fetch")
	case code&pageFaultUser != 0:
		kfmt.Printfln("page-fault in user-mode")
	case code&(pageFaultPresent|pageFaultWrite) == 0:
		kfmt.Printfln("read from non-present page")
	case code&(pageFaultPresent|pageFaultWrite) == pageFaultPresent:
		kfmt.Printfln("page protection violation (read)")
	case code&(pageFaultPresent|pageFaultWrite) == pageFaultWrite:
		kfmt.Printfln("write to non-present page")
	default:
		kfmt.Printfln("page protection violation (write)")
	}

	regs.DumpTo(kfmt.GetOutputSink())
	panicFn(errPageFault)
}

func timerHandler(regs *gate.Registers) {
	serveDevice(regs, onTimerTick)
}

func keyboardHandler(regs *gate.Registers) {
	serveDevice(regs, onKeyPress)
}

// serveDevice runs fn and acknowledges the interrupt at the controller on
// every path out of fn.
func serveDevice(regs *gate.Registers, fn func()) {
	defer notifyEOIFn(uint8(regs.Vector))
	fn()
}

func onTimerTick() {
	kfmt.Printf(".")
}

// onKeyPress reads the pending scancode and echoes the character it maps to
// if it is printable. The scancode must be read even if it is ignored or the
// keyboard controller will not report further key presses.
func onKeyPress() {
	ch, ok := keyDecoder.Decode(readScancodeFn())
	if !ok || (ch != '\n' && (ch < 0x20 || ch > 0x7e)) {
		return
	}

	kfmt.Printf("%c", ch)
}
