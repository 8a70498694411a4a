package gdt

import (
	"gopherboot/kernel/cpu"
	"gopherboot/kernel/sync"
	"testing"
	"unsafe"
)

func resetGDT() {
	initOnce = sync.Once{}
	loadGDTFn = cpu.LoadGDT
	reloadCSFn = cpu.ReloadCS
	loadTaskRegisterFn = cpu.LoadTaskRegister
}

func TestTaskStateLayout(t *testing.T) {
	if got := unsafe.Sizeof(TaskState{}); got != taskStateSize {
		t.Fatalf("expected TaskState to be %d bytes; got %d", taskStateSize, got)
	}

	specs := []struct {
		name   string
		offset uintptr
		exp    uintptr
	}{
		{"rsp0", unsafe.Offsetof(TaskState{}.rsp0Lo), 4},
		{"ist1", unsafe.Offsetof(TaskState{}.ist1Lo), 36},
		{"ist7", unsafe.Offsetof(TaskState{}.ist7Lo), 84},
		{"iomap", unsafe.Offsetof(TaskState{}.ioMapBase), 102},
	}

	for _, spec := range specs {
		if spec.offset != spec.exp {
			t.Errorf("expected %s to be at offset %d; got %d", spec.name, spec.exp, spec.offset)
		}
	}
}

func TestTaskStateStacks(t *testing.T) {
	var ts TaskState

	for i := 0; i < NumInterruptStacks; i++ {
		top := uintptr(0xffff800000001000) + uintptr(i)*0x1000
		if !ts.setInterruptStack(i, top) {
			t.Fatalf("expected setInterruptStack(%d) to succeed", i)
		}
		if got := ts.interruptStack(i); got != top {
			t.Errorf("expected IST slot %d to be 0x%x; got 0x%x", i, top, got)
		}
	}

	for i := 0; i < NumPrivilegeStacks; i++ {
		top := uintptr(0x200000) + uintptr(i)
		if !ts.setPrivilegeStack(i, top) {
			t.Fatalf("expected setPrivilegeStack(%d) to succeed", i)
		}
		if got := ts.privilegeStack(i); got != top {
			t.Errorf("expected privilege stack %d to be 0x%x; got 0x%x", i, top, got)
		}
	}

	if ts.setInterruptStack(NumInterruptStacks, 1) || ts.setInterruptStack(-1, 1) {
		t.Error("expected out of range IST slots to be rejected")
	}

	if ts.setPrivilegeStack(NumPrivilegeStacks, 1) {
		t.Error("expected out of range privilege stack slot to be rejected")
	}

	if ts.interruptStack(NumInterruptStacks) != 0 || ts.privilegeStack(NumPrivilegeStacks) != 0 {
		t.Error("expected out of range slots to read as 0")
	}
}

func TestKernelCodeDescriptor(t *testing.T) {
	var d SegmentDescriptor
	d.setCode64(0)

	if exp, got := uint64(0x00af9b000000ffff), d.Uint64(); got != exp {
		t.Fatalf("expected kernel code descriptor 0x%016x; got 0x%016x", exp, got)
	}

	if d.DPL() != 0 {
		t.Errorf("expected DPL 0; got %d", d.DPL())
	}

	if d.Base() != 0 || d.Limit() != 0xffffffff {
		t.Errorf("expected flat segment; got base 0x%x limit 0x%x", d.Base(), d.Limit())
	}

	expFlags := SegmentDescriptorLong | SegmentDescriptorExecute | SegmentDescriptorSystem | SegmentDescriptorPresent
	if d.Flags()&expFlags != expFlags {
		t.Errorf("expected flags 0x%x to include 0x%x", d.Flags(), expFlags)
	}
}

func TestTSSDescriptor(t *testing.T) {
	var lo, hi SegmentDescriptor
	base := uint64(0xffff8000_12345678)
	setTSS(&lo, &hi, base, taskStateSize-1)

	if got := lo.Base(); got != uint32(base) {
		t.Errorf("expected low base 0x%x; got 0x%x", uint32(base), got)
	}

	if got := lo.Limit(); got != taskStateSize-1 {
		t.Errorf("expected limit %d; got %d", taskStateSize-1, got)
	}

	if got := (lo.bits[1] >> 8) & 0xf; got != 0x9 {
		t.Errorf("expected available 64-bit TSS type 0x9; got 0x%x", got)
	}

	if lo.Flags()&SegmentDescriptorPresent == 0 || lo.Flags()&SegmentDescriptorSystem != 0 {
		t.Errorf("expected a present system descriptor; got flags 0x%x", lo.Flags())
	}

	if hi.bits[0] != uint32(base>>32) || hi.bits[1] != 0 {
		t.Errorf("expected high descriptor to hold base bits 32-63; got 0x%x 0x%x", hi.bits[0], hi.bits[1])
	}
}

func TestInit(t *testing.T) {
	defer resetGDT()
	resetGDT()

	if _, err := KernelCodeSelector(); err != errNotInitialized {
		t.Fatalf("expected KernelCodeSelector to fail before Init; got %v", err)
	}
	if _, err := TSSSelector(); err != errNotInitialized {
		t.Fatalf("expected TSSSelector to fail before Init; got %v", err)
	}
	if _, err := InterruptStackTop(DoubleFaultISTIndex); err != errNotInitialized {
		t.Fatalf("expected InterruptStackTop to fail before Init; got %v", err)
	}

	var (
		loadCalls             int
		gotBase               uintptr
		gotLimit              uint16
		gotCS, gotTR          uint16
		csBeforeLoad, trOrder bool
	)

	loadGDTFn = func(base uintptr, limit uint16) {
		loadCalls++
		gotBase, gotLimit = base, limit
	}
	reloadCSFn = func(sel uint16) {
		csBeforeLoad = loadCalls == 0
		gotCS = sel
	}
	loadTaskRegisterFn = func(sel uint16) {
		trOrder = loadCalls == 1 && gotCS != 0
		gotTR = sel
	}

	Init()
	Init()

	if loadCalls != 1 {
		t.Fatalf("expected the table to be loaded exactly once; loaded %d times", loadCalls)
	}

	if csBeforeLoad || !trOrder {
		t.Fatal("expected the table to be loaded before CS and TR are reloaded")
	}

	if gotBase != uintptr(unsafe.Pointer(&descriptors.entries[0])) {
		t.Errorf("expected table base 0x%x; got 0x%x", uintptr(unsafe.Pointer(&descriptors.entries[0])), gotBase)
	}

	if exp := uint16(4*descriptorSize - 1); gotLimit != exp {
		t.Errorf("expected table limit %d; got %d", exp, gotLimit)
	}

	if gotCS != 0x08 || gotTR != 0x10 {
		t.Errorf("expected selectors CS=0x08 TR=0x10; got CS=0x%x TR=0x%x", gotCS, gotTR)
	}

	if sel, err := KernelCodeSelector(); err != nil || sel != 0x08 {
		t.Errorf("expected KernelCodeSelector to return 0x08; got 0x%x, %v", sel, err)
	}

	if sel, err := TSSSelector(); err != nil || sel != 0x10 {
		t.Errorf("expected TSSSelector to return 0x10; got 0x%x, %v", sel, err)
	}

	if descriptors.entries[0].Uint64() != 0 {
		t.Error("expected the first descriptor to be the null descriptor")
	}

	tssLo := descriptors.entries[2]
	tssAddr := uint64(uintptr(unsafe.Pointer(&taskState)))
	if tssLo.Base() != uint32(tssAddr) || descriptors.entries[3].bits[0] != uint32(tssAddr>>32) {
		t.Error("expected the TSS descriptor to reference the task-state record")
	}

	top, err := InterruptStackTop(DoubleFaultISTIndex)
	if err != nil {
		t.Fatal(err)
	}

	stackStart := uintptr(unsafe.Pointer(&emergencyStack[0]))
	stackEnd := stackStart + EmergencyStackSize
	if top <= stackStart || top > stackEnd || stackEnd-top >= 16 {
		t.Errorf("expected IST slot %d to point at the end of the emergency stack [0x%x, 0x%x); got 0x%x", DoubleFaultISTIndex, stackStart, stackEnd, top)
	}

	if top%16 != 0 {
		t.Errorf("expected emergency stack top to be 16-byte aligned; got 0x%x", top)
	}

	if EmergencyStackSize < 4096 {
		t.Errorf("expected emergency stack to be at least one page; got %d bytes", EmergencyStackSize)
	}

	for i := 1; i < NumInterruptStacks; i++ {
		if top, _ := InterruptStackTop(i); top != 0 {
			t.Errorf("expected IST slot %d to be unpopulated; got 0x%x", i, top)
		}
	}
}
