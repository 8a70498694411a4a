// Package tty implements the kernel console writer: a cursor that streams
// bytes into the cells of a console device, wrapping at the right edge and
// scrolling once the last row is full.
//
// Every public Writer method holds the writer lock for its whole duration.
// An interrupt handler that prints while the interrupted code is inside a
// Writer method spins forever, so handlers should only print from contexts
// where the foreground code is known not to be writing.
package tty

import (
	"gopherboot/device"
	"gopherboot/device/video/console"
	"gopherboot/kernel"
	"gopherboot/kernel/sync"
	"io"
)

// FallbackGlyph replaces bytes that the console cannot display. It renders
// as a small square in code page 437.
const FallbackGlyph = 0xfe

// Writer writes text to a console device. Only printable ASCII (0x20-0x7e)
// and newline are written verbatim by the string writers; anything else,
// including each byte of a multi-byte UTF-8 sequence, is replaced by
// FallbackGlyph.
type Writer struct {
	lock sync.Spinlock
	cons console.Device

	width  uint32
	height uint32

	row   uint32
	col   uint32
	color console.ColorCode
}

// AttachTo connects the writer to a console and moves the cursor to the
// top-left cell. The active color is reset to the console default.
func (w *Writer) AttachTo(cons console.Device) {
	if cons == nil {
		return
	}

	w.lock.Acquire()
	defer w.lock.Release()

	w.cons = cons
	w.width, w.height = cons.Dimensions()
	w.color = cons.DefaultColor()
	w.row, w.col = 0, 0
}

// WriteByte implements io.ByteWriter. The byte is stored as-is; a newline
// advances the cursor to the next line.
func (w *Writer) WriteByte(b byte) error {
	w.lock.Acquire()
	defer w.lock.Release()

	if w.cons == nil {
		return io.ErrClosedPipe
	}

	w.writeByte(b)
	return nil
}

// WriteString implements io.StringWriter.
func (w *Writer) WriteString(s string) (int, error) {
	w.lock.Acquire()
	defer w.lock.Release()

	if w.cons == nil {
		return 0, io.ErrClosedPipe
	}

	for i := 0; i < len(s); i++ {
		w.writeByte(displayable(s[i]))
	}

	return len(s), nil
}

// Write implements io.Writer.
func (w *Writer) Write(data []byte) (int, error) {
	w.lock.Acquire()
	defer w.lock.Release()

	if w.cons == nil {
		return 0, io.ErrClosedPipe
	}

	for _, b := range data {
		w.writeByte(displayable(b))
	}

	return len(data), nil
}

// SetColor sets the attribute used for subsequent writes and for rows
// cleared by scrolling.
func (w *Writer) SetColor(color console.ColorCode) {
	w.lock.Acquire()
	w.color = color
	w.lock.Release()
}

// Color returns the active attribute.
func (w *Writer) Color() console.ColorCode {
	w.lock.Acquire()
	defer w.lock.Release()

	return w.color
}

// CursorPosition returns the 0-based row and column of the cell that the
// next byte will be written to.
func (w *Writer) CursorPosition() (row, col uint32) {
	w.lock.Acquire()
	defer w.lock.Release()

	return w.row, w.col
}

// Clear blanks every row using the active color and moves the cursor to the
// top-left cell.
func (w *Writer) Clear() {
	w.lock.Acquire()
	defer w.lock.Release()

	if w.cons == nil {
		return
	}

	for y := uint32(0); y < w.height; y++ {
		w.cons.ClearRow(y, w.color)
	}
	w.row, w.col = 0, 0
}

func (w *Writer) writeByte(b byte) {
	if b == '\n' {
		w.newLine()
		return
	}

	if w.col >= w.width {
		w.newLine()
	}

	w.cons.WriteCell(w.col, w.row, b, w.color)
	w.col++
}

// newLine moves the cursor to the start of the next row, scrolling the
// console contents up by one row when the cursor is already on the last row.
func (w *Writer) newLine() {
	w.col = 0

	if w.row+1 < w.height {
		w.row++
		return
	}

	for y := uint32(1); y < w.height; y++ {
		for x := uint32(0); x < w.width; x++ {
			ch, attr := w.cons.ReadCell(x, y)
			w.cons.WriteCell(x, y-1, ch, attr)
		}
	}
	w.cons.ClearRow(w.height-1, w.color)
}

// displayable maps b to itself if the console can show it and to
// FallbackGlyph otherwise.
func displayable(b byte) byte {
	if (b >= 0x20 && b <= 0x7e) || b == '\n' {
		return b
	}

	return FallbackGlyph
}

// DriverName returns the name of this driver.
func (w *Writer) DriverName() string {
	return "tty"
}

// DriverVersion returns the version of this driver.
func (w *Writer) DriverVersion() (uint16, uint16, uint16) {
	return 0, 0, 1
}

// DriverInit initializes this driver.
func (w *Writer) DriverInit(_ io.Writer) *kernel.Error { return nil }

var _ device.Driver = (*Writer)(nil)
