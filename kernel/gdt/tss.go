package gdt

import "unsafe"

const (
	// NumInterruptStacks is the number of interrupt stack table slots.
	NumInterruptStacks = 7

	// NumPrivilegeStacks is the number of privilege stack table slots.
	NumPrivilegeStacks = 3

	// taskStateSize is the size of the hardware TSS layout.
	taskStateSize = 104
)

// TaskState is the 64-bit task-state segment. In long mode it only holds
// the privilege stack table (RSP0-2), the interrupt stack table (IST1-7) and
// the I/O map base. All 64-bit fields are split into 32-bit halves because
// the hardware layout places them at 4-byte aligned offsets.
type TaskState struct {
	_              uint32
	rsp0Lo, rsp0Hi uint32
	rsp1Lo, rsp1Hi uint32
	rsp2Lo, rsp2Hi uint32
	_              [2]uint32
	ist1Lo, ist1Hi uint32
	ist2Lo, ist2Hi uint32
	ist3Lo, ist3Hi uint32
	ist4Lo, ist4Hi uint32
	ist5Lo, ist5Hi uint32
	ist6Lo, ist6Hi uint32
	ist7Lo, ist7Hi uint32
	_              [2]uint32
	_              uint16
	ioMapBase      uint16
}

// istWords returns the lo/hi pair for interrupt stack table slot index
// (0-based; slot 0 is reported to the CPU as IST1).
func (ts *TaskState) istWords(index int) (*uint32, *uint32) {
	switch index {
	case 0:
		return &ts.ist1Lo, &ts.ist1Hi
	case 1:
		return &ts.ist2Lo, &ts.ist2Hi
	case 2:
		return &ts.ist3Lo, &ts.ist3Hi
	case 3:
		return &ts.ist4Lo, &ts.ist4Hi
	case 4:
		return &ts.ist5Lo, &ts.ist5Hi
	case 5:
		return &ts.ist6Lo, &ts.ist6Hi
	case 6:
		return &ts.ist7Lo, &ts.ist7Hi
	}
	return nil, nil
}

func (ts *TaskState) rspWords(level int) (*uint32, *uint32) {
	switch level {
	case 0:
		return &ts.rsp0Lo, &ts.rsp0Hi
	case 1:
		return &ts.rsp1Lo, &ts.rsp1Hi
	case 2:
		return &ts.rsp2Lo, &ts.rsp2Hi
	}
	return nil, nil
}

// setInterruptStack stores the stack top for interrupt stack table slot
// index. It returns false if index is out of range.
func (ts *TaskState) setInterruptStack(index int, top uintptr) bool {
	lo, hi := ts.istWords(index)
	if lo == nil {
		return false
	}

	*lo, *hi = uint32(top), uint32(uint64(top)>>32)
	return true
}

// interruptStack returns the stack top stored in interrupt stack table slot
// index or 0 if the slot is empty or out of range.
func (ts *TaskState) interruptStack(index int) uintptr {
	lo, hi := ts.istWords(index)
	if lo == nil {
		return 0
	}

	return uintptr(uint64(*hi)<<32 | uint64(*lo))
}

// setPrivilegeStack stores the stack top used when switching to privilege
// level. It returns false if level is out of range.
func (ts *TaskState) setPrivilegeStack(level int, top uintptr) bool {
	lo, hi := ts.rspWords(level)
	if lo == nil {
		return false
	}

	*lo, *hi = uint32(top), uint32(uint64(top)>>32)
	return true
}

// privilegeStack returns the stack top for privilege level or 0 if the slot
// is empty or out of range.
func (ts *TaskState) privilegeStack(level int) uintptr {
	lo, hi := ts.rspWords(level)
	if lo == nil {
		return 0
	}

	return uintptr(uint64(*hi)<<32 | uint64(*lo))
}

// address returns the linear address of the task-state record.
func (ts *TaskState) address() uint64 {
	return uint64(uintptr(unsafe.Pointer(ts)))
}
