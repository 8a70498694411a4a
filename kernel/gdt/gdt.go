// Package gdt builds the segment descriptor table and the task-state record
// that provides the emergency interrupt stack.
//
// The table contains exactly two descriptors after the mandatory null entry:
// a long-mode kernel code segment and a 16-byte TSS descriptor. Slot 0 of
// the TSS interrupt stack table points to a statically reserved stack that
// the double fault gate switches to.
//
// The emergency stack has no guard page: a stack overflow while handling a
// double fault silently corrupts the memory that precedes it.
package gdt

import (
	"gopherboot/kernel"
	"gopherboot/kernel/cpu"
	"gopherboot/kernel/sync"
	"unsafe"
)

const (
	// EmergencyStackSize is the size of the statically reserved stack
	// used by the double fault handler.
	EmergencyStackSize = 5 * 4096

	// DoubleFaultISTIndex is the interrupt stack table slot (0-based)
	// that holds the emergency stack.
	DoubleFaultISTIndex = 0

	// DoubleFaultISTOffset is the value that must be placed in the IST
	// field of an interrupt gate to make it use the emergency stack. The
	// CPU numbers IST slots starting at 1; 0 means "no stack switch".
	DoubleFaultISTOffset = DoubleFaultISTIndex + 1

	// maxDescriptors is the capacity of the descriptor table: null, code
	// and the two halves of the TSS descriptor.
	maxDescriptors = 4

	descriptorSize = 8
)

// descriptorTable is an append-only descriptor table with a fixed capacity.
type descriptorTable struct {
	entries [maxDescriptors]SegmentDescriptor
	count   int
}

// add appends a user segment descriptor and returns its selector.
func (t *descriptorTable) add(d SegmentDescriptor) Selector {
	sel := Selector(t.count * descriptorSize)
	t.entries[t.count] = d
	t.count++
	return sel
}

// addTSS appends a 16-byte TSS descriptor that points to ts and returns its
// selector.
func (t *descriptorTable) addTSS(ts *TaskState) Selector {
	sel := Selector(t.count * descriptorSize)
	setTSS(&t.entries[t.count], &t.entries[t.count+1], ts.address(), taskStateSize-1)
	t.count += 2
	return sel
}

// base returns the linear address of the first table entry.
func (t *descriptorTable) base() uintptr {
	return uintptr(unsafe.Pointer(&t.entries[0]))
}

// limit returns the table size in bytes minus one.
func (t *descriptorTable) limit() uint16 {
	return uint16(t.count*descriptorSize - 1)
}

var (
	loadGDTFn          = cpu.LoadGDT
	reloadCSFn         = cpu.ReloadCS
	loadTaskRegisterFn = cpu.LoadTaskRegister

	emergencyStack [EmergencyStackSize]byte

	taskState    TaskState
	descriptors  descriptorTable
	codeSelector Selector
	tssSelector  Selector
	initOnce     sync.Once

	errNotInitialized = &kernel.Error{Module: "gdt", Message: "descriptor table not initialized"}
)

// emergencyStackTop returns the initial stack pointer for the emergency
// stack. Stacks grow downwards so this is the end of the reserved buffer,
// aligned down to 16 bytes.
func emergencyStackTop() uintptr {
	return (uintptr(unsafe.Pointer(&emergencyStack[0])) + EmergencyStackSize) &^ 15
}

// build populates the task-state record and the descriptor table.
func build() {
	taskState = TaskState{ioMapBase: taskStateSize}
	taskState.setInterruptStack(DoubleFaultISTIndex, emergencyStackTop())

	var code SegmentDescriptor
	code.setCode64(0)

	descriptors = descriptorTable{}
	descriptors.add(SegmentDescriptor{})
	codeSelector = descriptors.add(code)
	tssSelector = descriptors.addTSS(&taskState)
}

// Init builds the descriptor table, loads it into the CPU, reloads the code
// segment register and loads the task register. Only the first call has any
// effect; the switch is irreversible for the lifetime of the kernel.
//
// Init must run before any interrupt whose gate references the kernel code
// selector or the emergency stack is raised.
func Init() {
	initOnce.Do(func() {
		build()
		loadGDTFn(descriptors.base(), descriptors.limit())
		reloadCSFn(uint16(codeSelector))
		loadTaskRegisterFn(uint16(tssSelector))
	})
}

// KernelCodeSelector returns the selector of the kernel code segment or an
// error if Init has not been called yet.
func KernelCodeSelector() (Selector, *kernel.Error) {
	if !initOnce.Done() {
		return 0, errNotInitialized
	}
	return codeSelector, nil
}

// TSSSelector returns the selector of the TSS descriptor or an error if Init
// has not been called yet.
func TSSSelector() (Selector, *kernel.Error) {
	if !initOnce.Done() {
		return 0, errNotInitialized
	}
	return tssSelector, nil
}

// InterruptStackTop returns the stack top stored in interrupt stack table
// slot index (0-based). A zero address means the slot is unpopulated.
func InterruptStackTop(index int) (uintptr, *kernel.Error) {
	if !initOnce.Done() {
		return 0, errNotInitialized
	}
	return taskState.interruptStack(index), nil
}
