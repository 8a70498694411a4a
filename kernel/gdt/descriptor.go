package gdt

// Selector is an index into the descriptor table combined with the table
// indicator and requested privilege level bits.
type Selector uint16

// SegmentDescriptorFlags are typed flags within a descriptor.
type SegmentDescriptorFlags uint32

// The segment descriptor flags. Bits 8-11 double as the descriptor type for
// system descriptors.
const (
	SegmentDescriptorAccess     SegmentDescriptorFlags = 1 << 8  // Access bit (always set).
	SegmentDescriptorWrite      SegmentDescriptorFlags = 1 << 9  // Write (data) or read (code) permission.
	SegmentDescriptorExpandDown SegmentDescriptorFlags = 1 << 10 // Grows down, not used.
	SegmentDescriptorExecute    SegmentDescriptorFlags = 1 << 11 // Execute permission.
	SegmentDescriptorSystem     SegmentDescriptorFlags = 1 << 12 // Zero => system, 1 => user code/data.
	SegmentDescriptorPresent    SegmentDescriptorFlags = 1 << 15 // Present.
	SegmentDescriptorAVL        SegmentDescriptorFlags = 1 << 20 // Available.
	SegmentDescriptorLong       SegmentDescriptorFlags = 1 << 21 // Long mode.
	SegmentDescriptorDB         SegmentDescriptorFlags = 1 << 22 // 16 or 32-bit.
	SegmentDescriptorG          SegmentDescriptorFlags = 1 << 23 // Granularity: page or byte.

	// descriptorTypeTSS64 is the system descriptor type for an available
	// (not busy) 64-bit TSS. Loading a busy TSS raises #GP.
	descriptorTypeTSS64 = SegmentDescriptorAccess | SegmentDescriptorExecute
)

// SegmentDescriptor is an 8-byte descriptor table entry. System descriptors
// (TSS) occupy two consecutive entries.
type SegmentDescriptor struct {
	bits [2]uint32
}

// Base returns the low 32 bits of the segment base address.
func (d *SegmentDescriptor) Base() uint32 {
	return d.bits[1]&0xFF000000 | (d.bits[1]&0x000000FF)<<16 | d.bits[0]>>16
}

// Limit returns the segment limit, scaled by the granularity flag.
func (d *SegmentDescriptor) Limit() uint32 {
	l := d.bits[0]&0xFFFF | d.bits[1]&0xF0000
	if d.bits[1]&uint32(SegmentDescriptorG) != 0 {
		l <<= 12
		l |= 0xFFF
	}
	return l
}

// Flags returns the descriptor flags.
func (d *SegmentDescriptor) Flags() SegmentDescriptorFlags {
	return SegmentDescriptorFlags(d.bits[1] & 0x00F09F00)
}

// DPL returns the descriptor privilege level.
func (d *SegmentDescriptor) DPL() int {
	return int((d.bits[1] >> 13) & 3)
}

// Uint64 returns the descriptor in the format consumed by the CPU.
func (d *SegmentDescriptor) Uint64() uint64 {
	return uint64(d.bits[1])<<32 | uint64(d.bits[0])
}

func (d *SegmentDescriptor) set(base, limit uint32, dpl int, flags SegmentDescriptorFlags) {
	flags |= SegmentDescriptorPresent
	if limit>>12 != 0 {
		limit >>= 12
		flags |= SegmentDescriptorG
	}
	d.bits[0] = base<<16 | limit&0xFFFF
	d.bits[1] = base&0xFF000000 | (base>>16)&0xFF | limit&0x000F0000 | uint32(flags) | uint32(dpl)<<13
}

// setCode64 configures a long-mode code segment spanning the full address
// space.
func (d *SegmentDescriptor) setCode64(dpl int) {
	d.set(0, 0xFFFFFFFF, dpl,
		SegmentDescriptorAccess|
			SegmentDescriptorWrite|
			SegmentDescriptorLong|
			SegmentDescriptorExecute|
			SegmentDescriptorSystem)
}

// setHi stores the upper 32 bits of a system descriptor base address in the
// second half of a 16-byte system descriptor.
func (d *SegmentDescriptor) setHi(base uint32) {
	d.bits[0] = base
	d.bits[1] = 0
}

// setTSS configures lo and hi as a 16-byte available 64-bit TSS descriptor.
func setTSS(lo, hi *SegmentDescriptor, base uint64, limit uint32) {
	lo.set(uint32(base), limit, 0, descriptorTypeTSS64)
	hi.setHi(uint32(base >> 32))
}
