package gate

import (
	"gopherboot/kernel"
	"gopherboot/kernel/cpu"
	"gopherboot/kernel/gdt"
	"gopherboot/kernel/sync"
	"unsafe"
)

const (
	gateTypeInterrupt = 0xe
	gatePresent       = 1 << 15

	// maxISTOffset is the largest value the 3-bit IST field can hold.
	maxISTOffset = 7
)

// Gate is a 16-byte long-mode interrupt gate descriptor.
type Gate struct {
	bits [4]uint32
}

// setInterrupt configures g as a present 64-bit interrupt gate. Interrupt
// gates clear RFLAGS.IF on entry so handlers run with interrupts masked.
func (g *Gate) setInterrupt(cs gdt.Selector, rip uint64, dpl int, ist uint8) {
	g.bits[0] = uint32(cs)<<16 | uint32(rip)&0xFFFF
	g.bits[1] = uint32(rip)&0xFFFF0000 | gatePresent | uint32(dpl)<<13 | gateTypeInterrupt<<8 | uint32(ist)&0x7
	g.bits[2] = uint32(rip >> 32)
	g.bits[3] = 0
}

// Present returns true if the gate is marked as present.
func (g *Gate) Present() bool {
	return g.bits[1]&gatePresent != 0
}

// Offset returns the address of the code that the gate transfers control to.
func (g *Gate) Offset() uint64 {
	return uint64(g.bits[2])<<32 | uint64(g.bits[1]&0xFFFF0000) | uint64(g.bits[0]&0xFFFF)
}

// Selector returns the code segment selector used by the gate.
func (g *Gate) Selector() gdt.Selector {
	return gdt.Selector(g.bits[0] >> 16)
}

// ISTOffset returns the interrupt stack table offset (0 = no stack switch).
func (g *Gate) ISTOffset() uint8 {
	return uint8(g.bits[1] & 0x7)
}

// vectorTable holds the hardware gates together with the Go handler and
// IST offset bound to each vector. A vector moves from unbound to bound at
// most once; after the table is loaded it is never modified again.
type vectorTable struct {
	gates      [NumVectors]Gate
	handlers   [NumVectors]Handler
	istOffsets [NumVectors]uint8
	loaded     bool
}

var (
	idt       vectorTable
	tableLock sync.Spinlock

	loadIDTFn          = cpu.LoadIDT
	codeSelectorFn     = gdt.KernelCodeSelector
	interruptStackFn   = gdt.InterruptStackTop
	gateEntryAddressFn = gateEntryAddress

	errAlreadyBound       = &kernel.Error{Module: "gate", Message: "interrupt vector already bound"}
	errTableLoaded        = &kernel.Error{Module: "gate", Message: "interrupt table already loaded"}
	errNilHandler         = &kernel.Error{Module: "gate", Message: "nil interrupt handler"}
	errInvalidISTOffset   = &kernel.Error{Module: "gate", Message: "interrupt stack table offset out of range"}
	errUnpopulatedISTSlot = &kernel.Error{Module: "gate", Message: "interrupt stack table slot not populated"}
)

// HandleInterrupt ensures that the provided handler will be invoked when a
// particular interrupt number occurs. The value of the istOffset argument
// specifies the offset in the interrupt stack table (if 0 then IST is not
// used); a non-zero offset must reference a slot that is populated by the
// time Init is called.
//
// Each vector can be bound exactly once and only before Init loads the
// table. Vectors that are never bound keep a non-present gate so the CPU
// applies its default fault behavior.
func HandleInterrupt(intNumber InterruptNumber, istOffset uint8, handler Handler) *kernel.Error {
	if handler == nil {
		return errNilHandler
	}

	if istOffset > maxISTOffset {
		return errInvalidISTOffset
	}

	tableLock.Acquire()
	defer tableLock.Release()

	switch {
	case idt.loaded:
		return errTableLoaded
	case idt.handlers[intNumber] != nil:
		return errAlreadyBound
	}

	idt.handlers[intNumber] = handler
	idt.istOffsets[intNumber] = istOffset
	return nil
}

// isBound returns true if a handler is bound to the specified vector.
func isBound(intNumber InterruptNumber) bool {
	return idt.handlers[intNumber] != nil
}

// Init encodes a gate for every bound vector and loads the table into the
// CPU. It must be called after gdt.Init so that the kernel code selector and
// any referenced interrupt stacks exist. Calling Init after the table has
// been loaded is a no-op.
func Init() *kernel.Error {
	tableLock.Acquire()
	defer tableLock.Release()

	if idt.loaded {
		return nil
	}

	cs, err := codeSelectorFn()
	if err != nil {
		return err
	}

	for vec := 0; vec < NumVectors; vec++ {
		if idt.handlers[vec] == nil {
			continue
		}

		ist := idt.istOffsets[vec]
		if ist != 0 {
			top, err := interruptStackFn(int(ist - 1))
			if err != nil {
				return err
			}
			if top == 0 {
				return errUnpopulatedISTSlot
			}
		}

		idt.gates[vec].setInterrupt(cs, uint64(gateEntryAddressFn(InterruptNumber(vec))), 0, ist)
	}

	loadIDTFn(uintptr(unsafe.Pointer(&idt.gates[0])), uint16(unsafe.Sizeof(idt.gates)-1))
	idt.loaded = true
	return nil
}

// dispatchInterrupt is invoked by the interrupt gate entrypoints to route
// an incoming interrupt to the bound handler. Unbound vectors never reach
// this function because their gates are not present.
//
//go:nosplit
func dispatchInterrupt(regs *Registers) {
	if handler := idt.handlers[uint8(regs.Vector)]; handler != nil {
		handler(regs)
	}
}

// gateEntryAddress returns the address of the assembly entrypoint for the
// specified vector.
func gateEntryAddress(intNumber InterruptNumber) uintptr {
	return *(*uintptr)(unsafe.Pointer(gateEntryTable() + uintptr(intNumber)*unsafe.Sizeof(uintptr(0))))
}

// gateEntryTable returns the address of the generated table that contains
// the entrypoint address for each vector.
func gateEntryTable() uintptr
