package console

import (
	"gopherboot/device"
	"gopherboot/kernel"
	"gopherboot/kernel/kfmt"
	"gopherboot/kernel/mmio"
	"io"
)

const (
	// DefaultWidth and DefaultHeight are the dimensions of VGA text mode 3.
	DefaultWidth  = 80
	DefaultHeight = 25

	// DefaultFramebufferAddr is the physical address of the VGA text
	// frame buffer.
	DefaultFramebufferAddr = 0xb8000

	cellSize  = 2
	clearChar = ' '
)

var errInvalidGeometry = &kernel.Error{Module: "vga_text", Message: "invalid frame buffer geometry"}

// VgaText implements an EGA-compatible text console using VGA mode 0x3.
//
// Each cell in the frame buffer is represented using two bytes, a byte for
// the character code and an attribute byte that encodes the foreground and
// background colors (4 bits for each). All frame buffer accesses go through
// an mmio.Region so they are never elided or reordered.
//
// The default settings for the console are:
//  - light gray text (color 7) on black background (color 0).
//  - space as the clear character
type VgaText struct {
	width  uint32
	height uint32

	fbPhysAddr uintptr
	fb         mmio.Region

	defaultColor ColorCode
}

// NewVgaText creates a new vga text console with its frame buffer located at
// fbPhysAddr.
func NewVgaText(columns, rows uint32, fbPhysAddr uintptr) *VgaText {
	cons := new(VgaText)
	cons.init(columns, rows, fbPhysAddr)
	return cons
}

func (cons *VgaText) init(columns, rows uint32, fbPhysAddr uintptr) {
	*cons = VgaText{
		width:      columns,
		height:     rows,
		fbPhysAddr: fbPhysAddr,
		defaultColor: NewColorCode(LightGray, Black),
	}
}

// Dimensions returns the console width and height in characters.
func (cons *VgaText) Dimensions() (uint32, uint32) {
	return cons.width, cons.height
}

// DefaultColor returns the attribute used for cleared cells.
func (cons *VgaText) DefaultColor() ColorCode {
	return cons.defaultColor
}

// WriteCell stores ch with the supplied attribute at (x, y).
func (cons *VgaText) WriteCell(x, y uint32, ch byte, attr ColorCode) {
	if x >= cons.width || y >= cons.height {
		return
	}

	cons.fb.Write16(cons.offset(x, y), uint16(attr)<<8|uint16(ch))
}

// ReadCell returns the character and attribute stored at (x, y).
func (cons *VgaText) ReadCell(x, y uint32) (byte, ColorCode) {
	if x >= cons.width || y >= cons.height {
		return 0, 0
	}

	cell := cons.fb.Read16(cons.offset(x, y))
	return byte(cell), ColorCode(cell >> 8)
}

// ClearRow fills row y with the clear character using attr.
func (cons *VgaText) ClearRow(y uint32, attr ColorCode) {
	if y >= cons.height {
		return
	}

	clr := uint16(attr)<<8 | clearChar
	for x, offset := uint32(0), cons.offset(0, y); x < cons.width; x, offset = x+1, offset+cellSize {
		cons.fb.Write16(offset, clr)
	}
}

func (cons *VgaText) offset(x, y uint32) uintptr {
	return uintptr(y*cons.width+x) * cellSize
}

// DriverName returns the name of this driver.
func (cons *VgaText) DriverName() string {
	return "vga_text"
}

// DriverVersion returns the version of this driver.
func (cons *VgaText) DriverVersion() (uint16, uint16, uint16) {
	return 0, 0, 1
}

// DriverInit initializes this driver. The frame buffer is identity mapped
// so no page table setup is required.
func (cons *VgaText) DriverInit(w io.Writer) *kernel.Error {
	if cons.width == 0 || cons.height == 0 || cons.fbPhysAddr == 0 {
		return errInvalidGeometry
	}

	cons.fb = mmio.NewRegion(cons.fbPhysAddr, uintptr(cons.width*cons.height*cellSize))
	kfmt.Fprintf(w, "%dx%d text mode, frame buffer at 0x%x\n", cons.width, cons.height, cons.fb.Base())

	return nil
}

var _ device.Driver = (*VgaText)(nil)
