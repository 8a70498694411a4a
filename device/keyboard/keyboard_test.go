package keyboard

import (
	"gopherboot/kernel/cpu"
	"testing"
)

func TestDecode(t *testing.T) {
	specs := []struct {
		scancodes []uint8
		exp       string
	}{
		// h, i
		{[]uint8{0x23, 0x17}, "hi"},
		// releases are ignored
		{[]uint8{0x23, 0xa3, 0x17, 0x97}, "hi"},
		// digits, space and enter
		{[]uint8{0x02, 0x0b, 0x39, 0x1c}, "10 \n"},
		// shift + a, release shift, a
		{[]uint8{0x2a, 0x1e, 0xaa, 0x1e}, "Aa"},
		// right shift + 1
		{[]uint8{0x36, 0x02, 0xb6}, "!"},
		// escape and ctrl have no character
		{[]uint8{0x01, 0x1d, 0x9d}, ""},
		// f is not i
		{[]uint8{0x21, 0xa1}, "f"},
		// codes beyond the table
		{[]uint8{0x58, 0x7f}, ""},
	}

	for specIndex, spec := range specs {
		var (
			d   Decoder
			got []byte
		)

		for _, sc := range spec.scancodes {
			if ch, ok := d.Decode(sc); ok {
				got = append(got, ch)
			}
		}

		if string(got) != spec.exp {
			t.Errorf("[spec %d] expected %q; got %q", specIndex, spec.exp, string(got))
		}
	}
}

func TestReadScancode(t *testing.T) {
	defer func() { portReadByteFn = cpu.PortReadByte }()

	portReadByteFn = func(port uint16) uint8 {
		if port != DataPort {
			t.Errorf("expected read from port 0x%x; got 0x%x", DataPort, port)
		}
		return 0x1e
	}

	if got := ReadScancode(); got != 0x1e {
		t.Fatalf("expected scancode 0x1e; got 0x%x", got)
	}
}
