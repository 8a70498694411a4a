package console

// Color is one of the 16 EGA text-mode colors.
type Color uint8

// The EGA text-mode color set.
const (
	Black Color = iota
	Blue
	Green
	Cyan
	Red
	Magenta
	Brown
	LightGray
	DarkGray
	LightBlue
	LightGreen
	LightCyan
	LightRed
	Pink
	Yellow
	White
)

// ColorCode is a cell attribute byte: the background color occupies the high
// nibble and the foreground color the low nibble.
type ColorCode uint8

// NewColorCode combines a foreground and a background color into a cell
// attribute.
func NewColorCode(fg, bg Color) ColorCode {
	return ColorCode(bg&0xf)<<4 | ColorCode(fg&0xf)
}

// Foreground returns the foreground color of the attribute.
func (c ColorCode) Foreground() Color {
	return Color(c & 0xf)
}

// Background returns the background color of the attribute.
func (c ColorCode) Background() Color {
	return Color(c >> 4)
}

// The Device interface is implemented by objects that can function as system
// consoles. Cell coordinates are 0-based with (0,0) being the top-left cell.
type Device interface {
	// Dimensions returns the console width and height in characters.
	Dimensions() (width, height uint32)

	// DefaultColor returns the attribute used for cleared cells.
	DefaultColor() ColorCode

	// WriteCell stores a character and its attribute at the specified
	// location. Writes outside the console are ignored.
	WriteCell(x, y uint32, ch byte, attr ColorCode)

	// ReadCell returns the character and attribute at the specified
	// location.
	ReadCell(x, y uint32) (byte, ColorCode)

	// ClearRow fills row y with spaces using the supplied attribute.
	ClearRow(y uint32, attr ColorCode)
}
