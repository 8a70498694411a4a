// Package keyboard decodes PS/2 scancode set 1 input for a US QWERTY layout.
package keyboard

import "gopherboot/kernel/cpu"

// DataPort is the PS/2 controller port that holds the last scancode.
const DataPort = 0x60

const (
	releaseBit = 0x80

	scanLeftShift  = 0x2a
	scanRightShift = 0x36
)

var (
	portReadByteFn = cpu.PortReadByte

	// scancode set 1 make codes to ASCII; 0 marks keys without a
	// printable representation.
	layout = [128]byte{
		0, 0, '1', '2', '3', '4', '5', '6', '7', '8', '9', '0', '-', '=', '\b',
		'\t', 'q', 'w', 'e', 'r', 't', 'y', 'u', 'i', 'o', 'p', '[', ']', '\n',
		0, 'a', 's', 'd', 'f', 'g', 'h', 'j', 'k', 'l', ';', '\'', '`',
		0, '\\', 'z', 'x', 'c', 'v', 'b', 'n', 'm', ',', '.', '/', 0,
		'*', 0, ' ',
	}

	layoutShift = [128]byte{
		0, 0, '!', '@', '#', '$', '%', '^', '&', '*', '(', ')', '_', '+', '\b',
		'\t', 'Q', 'W', 'E', 'R', 'T', 'Y', 'U', 'I', 'O', 'P', '{', '}', '\n',
		0, 'A', 'S', 'D', 'F', 'G', 'H', 'J', 'K', 'L', ':', '"', '~',
		0, '|', 'Z', 'X', 'C', 'V', 'B', 'N', 'M', '<', '>', '?', 0,
		'*', 0, ' ',
	}
)

// Decoder tracks modifier state across scancodes.
type Decoder struct {
	shift bool
}

// Decode translates a scancode into a character. It returns false for
// key releases, modifier keys and keys that have no character mapping.
func (d *Decoder) Decode(scancode uint8) (byte, bool) {
	switch scancode {
	case scanLeftShift, scanRightShift:
		d.shift = true
		return 0, false
	case scanLeftShift | releaseBit, scanRightShift | releaseBit:
		d.shift = false
		return 0, false
	}

	if scancode&releaseBit != 0 {
		return 0, false
	}

	ch := layout[scancode]
	if d.shift {
		ch = layoutShift[scancode]
	}

	return ch, ch != 0
}

// ReadScancode returns the pending scancode from the PS/2 data port.
func ReadScancode() uint8 {
	return portReadByteFn(DataPort)
}
