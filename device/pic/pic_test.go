package pic

import (
	"bytes"
	"gopherboot/device"
	"gopherboot/kernel"
	"gopherboot/kernel/cpu"
	"testing"
)

type portWrite struct {
	port uint16
	val  uint8
}

// mockPorts records port writes and serves reads from a fixed mask table.
func mockPorts(t *testing.T, masks map[uint16]uint8) *[]portWrite {
	var writes []portWrite
	portWriteByteFn = func(port uint16, val uint8) {
		writes = append(writes, portWrite{port, val})
	}
	portReadByteFn = func(port uint16) uint8 {
		val, ok := masks[port]
		if !ok {
			t.Errorf("unexpected read from port 0x%x", port)
		}
		return val
	}
	return &writes
}

func resetPorts() {
	portWriteByteFn = cpu.PortWriteByte
	portReadByteFn = cpu.PortReadByte
}

func TestNewChained(t *testing.T) {
	specs := []struct {
		primary, secondary uint8
		expErr             *kernel.Error
	}{
		{32, 40, nil},
		{40, 32, nil},
		{48, 112, nil},
		{0, 40, errOffsetOverlapsExceptions},
		{32, 8, errOffsetOverlapsExceptions},
		{28, 40, errOffsetOverlapsExceptions},
		{32, 32, errOffsetsOverlap},
		{32, 36, errOffsetsOverlap},
		{36, 32, errOffsetsOverlap},
		{32, 250, errOffsetOutOfRange},
	}

	for specIndex, spec := range specs {
		c, err := NewChained(spec.primary, spec.secondary)
		if err != spec.expErr {
			t.Errorf("[spec %d] expected error %v; got %v", specIndex, spec.expErr, err)
			continue
		}

		if err != nil {
			continue
		}

		if p, s := c.Offsets(); p != spec.primary || s != spec.secondary {
			t.Errorf("[spec %d] expected offsets (%d, %d); got (%d, %d)", specIndex, spec.primary, spec.secondary, p, s)
		}
	}
}

func TestInitRemapSequence(t *testing.T) {
	defer resetPorts()
	writes := mockPorts(t, map[uint16]uint8{0x21: 0xb8, 0xa1: 0x8e})

	c, err := NewChained(32, 40)
	if err != nil {
		t.Fatal(err)
	}
	c.Init()

	exp := []portWrite{
		{0x20, 0x11}, {0x80, 0},
		{0xa0, 0x11}, {0x80, 0},
		{0x21, 32}, {0x80, 0},
		{0xa1, 40}, {0x80, 0},
		{0x21, 4}, {0x80, 0},
		{0xa1, 2}, {0x80, 0},
		{0x21, 0x01}, {0x80, 0},
		{0xa1, 0x01}, {0x80, 0},
		// saved masks are restored
		{0x21, 0xb8},
		{0xa1, 0x8e},
	}

	if len(*writes) != len(exp) {
		t.Fatalf("expected %d port writes; got %d: %v", len(exp), len(*writes), *writes)
	}

	for i, w := range *writes {
		if w != exp[i] {
			t.Errorf("[write %d] expected out(0x%x, 0x%x); got out(0x%x, 0x%x)", i, exp[i].port, exp[i].val, w.port, w.val)
		}
	}
}

func TestNotifyEndOfInterrupt(t *testing.T) {
	defer resetPorts()

	c, err := NewChained(32, 40)
	if err != nil {
		t.Fatal(err)
	}

	specs := []struct {
		vector uint8
		exp    []portWrite
	}{
		// primary: only the primary gets an EOI
		{32, []portWrite{{0x20, 0x20}}},
		{33, []portWrite{{0x20, 0x20}}},
		{39, []portWrite{{0x20, 0x20}}},
		// secondary: secondary first, then primary
		{40, []portWrite{{0xa0, 0x20}, {0x20, 0x20}}},
		{47, []portWrite{{0xa0, 0x20}, {0x20, 0x20}}},
		// not owned by either controller
		{3, nil},
		{48, nil},
	}

	for specIndex, spec := range specs {
		writes := mockPorts(t, nil)
		c.NotifyEndOfInterrupt(spec.vector)

		if len(*writes) != len(spec.exp) {
			t.Errorf("[spec %d] expected %d writes; got %v", specIndex, len(spec.exp), *writes)
			continue
		}

		for i, w := range *writes {
			if w != spec.exp[i] {
				t.Errorf("[spec %d] write %d: expected %v; got %v", specIndex, i, spec.exp[i], w)
			}
		}
	}
}

func TestHandlesInterrupt(t *testing.T) {
	c, err := NewChained(32, 40)
	if err != nil {
		t.Fatal(err)
	}

	for vec := 0; vec < 256; vec++ {
		exp := vec >= 32 && vec < 48
		if got := c.HandlesInterrupt(uint8(vec)); got != exp {
			t.Errorf("expected HandlesInterrupt(%d) to return %t", vec, exp)
		}
	}
}

func TestMasks(t *testing.T) {
	defer resetPorts()
	writes := mockPorts(t, map[uint16]uint8{0x21: 0xfd, 0xa1: 0xff})

	c, err := NewChained(32, 40)
	if err != nil {
		t.Fatal(err)
	}

	if p, s := c.Masks(); p != 0xfd || s != 0xff {
		t.Fatalf("expected masks (0xfd, 0xff); got (0x%x, 0x%x)", p, s)
	}

	c.SetMasks(0xfc, 0xfe)
	exp := []portWrite{{0x21, 0xfc}, {0xa1, 0xfe}}
	if len(*writes) != 2 || (*writes)[0] != exp[0] || (*writes)[1] != exp[1] {
		t.Fatalf("expected writes %v; got %v", exp, *writes)
	}
}

func TestLockHeldDuringInit(t *testing.T) {
	defer resetPorts()

	c, err := NewChained(32, 40)
	if err != nil {
		t.Fatal(err)
	}

	var checked bool
	portReadByteFn = func(uint16) uint8 { return 0 }
	portWriteByteFn = func(uint16, uint8) {
		if !checked {
			checked = true
			if c.lock.TryToAcquire() {
				t.Error("expected controller lock to be held while programming the controllers")
			}
		}
	}

	c.Init()
	if !c.lock.TryToAcquire() {
		t.Fatal("expected controller lock to be released after Init")
	}
	c.lock.Release()
}

func TestSystemController(t *testing.T) {
	defer func() {
		resetPorts()
		initialized = false
		pair = Chained{}
	}()

	writes := mockPorts(t, map[uint16]uint8{0x21: 0, 0xa1: 0})

	if err := NotifyEndOfInterrupt(32); err != errNotInitialized {
		t.Fatalf("expected errNotInitialized; got %v", err)
	}
	if len(*writes) != 0 {
		t.Fatal("expected no port writes before the controllers are initialized")
	}

	var (
		drv device.Driver = SystemDriver{}
		buf bytes.Buffer
	)

	if err := drv.DriverInit(&buf); err != nil {
		t.Fatal(err)
	}

	if exp := "remapped IRQs to vectors 32 and 40\n"; buf.String() != exp {
		t.Fatalf("expected driver output %q; got %q", exp, buf.String())
	}

	*writes = (*writes)[:0]
	if err := NotifyEndOfInterrupt(41); err != nil {
		t.Fatal(err)
	}
	if len(*writes) != 2 {
		t.Fatalf("expected 2 EOI writes; got %v", *writes)
	}

	if p, s := Offsets(); p != 32 || s != 40 {
		t.Fatalf("expected offsets (32, 40); got (%d, %d)", p, s)
	}
}
