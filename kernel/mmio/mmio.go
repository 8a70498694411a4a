// Package mmio provides ordered access to memory-mapped hardware regions.
//
// Loads and stores go through assembly routines so the compiler can neither
// elide nor reorder them; the destination is observed by hardware and not by
// program logic. Memory inside a Region must not be accessed through plain Go
// pointers or slices anywhere else.
package mmio

// Region describes a contiguous block of memory-mapped device memory.
type Region struct {
	base uintptr
	size uintptr
}

// NewRegion returns a Region covering size bytes starting at base.
func NewRegion(base, size uintptr) Region {
	return Region{base: base, size: size}
}

// Base returns the start address of the region.
func (r Region) Base() uintptr {
	return r.base
}

// Size returns the region size in bytes.
func (r Region) Size() uintptr {
	return r.size
}

// InRange returns true if a width-byte access at offset lies entirely within
// the region and is naturally aligned.
func (r Region) InRange(offset, width uintptr) bool {
	return r.base != 0 && offset%width == 0 && offset < r.size && width <= r.size-offset
}

// Read16 performs a volatile 16-bit load at the specified byte offset.
// Out-of-range or misaligned reads return 0.
func (r Region) Read16(offset uintptr) uint16 {
	if !r.InRange(offset, 2) {
		return 0
	}

	return load16(r.base + offset)
}

// Write16 performs a volatile 16-bit store at the specified byte offset.
// Out-of-range or misaligned writes are dropped.
func (r Region) Write16(offset uintptr, val uint16) {
	if !r.InRange(offset, 2) {
		return
	}

	store16(r.base+offset, val)
}

// load16 reads the 16-bit value stored at addr.
func load16(addr uintptr) uint16

// store16 writes val to addr.
func store16(addr uintptr, val uint16)
