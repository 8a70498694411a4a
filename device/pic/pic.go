// Package pic drives the legacy pair of chained 8259 programmable interrupt
// controllers.
//
// At power-on both controllers deliver their lines on vectors 0-15, which
// collide with CPU exceptions. Init remaps the primary controller to
// [primary, primary+8) and the secondary to [secondary, secondary+8). Every
// interrupt raised by a controller must be acknowledged with an end of
// interrupt command or the controller stops delivering interrupts of equal
// or lower priority.
package pic

import (
	"gopherboot/kernel"
	"gopherboot/kernel/cpu"
	"gopherboot/kernel/sync"
)

const (
	primaryCommandPort   = 0x20
	primaryDataPort      = 0x21
	secondaryCommandPort = 0xa0
	secondaryDataPort    = 0xa1

	// waitPort is an unused port; writing to it takes long enough for
	// the controllers to process the previous command.
	waitPort = 0x80

	// icw1Init starts the initialization sequence and announces that
	// ICW4 will follow.
	icw1Init = 0x11

	// icw4Mode8086 selects 8086/88 mode.
	icw4Mode8086 = 0x01

	// cmdEndOfInterrupt is the non-specific EOI command.
	cmdEndOfInterrupt = 0x20

	// secondaryCascadeLine is the primary input the secondary is wired to.
	secondaryCascadeLine = 2

	// linesPerController is the number of interrupt lines (and thus
	// vectors) served by each controller.
	linesPerController = 8

	// numExceptionVectors is the number of vectors reserved by the CPU.
	numExceptionVectors = 32
)

const (
	// DefaultPrimaryOffset is the first vector used by the primary
	// controller after remapping.
	DefaultPrimaryOffset = 32

	// DefaultSecondaryOffset is the first vector used by the secondary
	// controller after remapping.
	DefaultSecondaryOffset = DefaultPrimaryOffset + linesPerController
)

var (
	portWriteByteFn = cpu.PortWriteByte
	portReadByteFn  = cpu.PortReadByte

	errOffsetOverlapsExceptions = &kernel.Error{Module: "pic", Message: "vector offset overlaps the CPU exception range"}
	errOffsetsOverlap           = &kernel.Error{Module: "pic", Message: "primary and secondary vector ranges overlap"}
	errOffsetOutOfRange         = &kernel.Error{Module: "pic", Message: "vector range exceeds the vector table"}
)

// controller describes one 8259 chip.
type controller struct {
	offset      uint8
	commandPort uint16
	dataPort    uint16
}

// handlesInterrupt returns true if vector falls in the controller window.
func (c *controller) handlesInterrupt(vector uint8) bool {
	return vector >= c.offset && uint16(vector) < uint16(c.offset)+linesPerController
}

func (c *controller) endOfInterrupt() {
	portWriteByteFn(c.commandPort, cmdEndOfInterrupt)
}

func (c *controller) readMask() uint8 {
	return portReadByteFn(c.dataPort)
}

func (c *controller) writeMask(mask uint8) {
	portWriteByteFn(c.dataPort, mask)
}

// Chained is the primary/secondary controller pair. All register accesses
// are serialized by a spinlock.
type Chained struct {
	lock      sync.Spinlock
	primary   controller
	secondary controller
}

// NewChained returns a controller pair that will be remapped to the
// supplied vector offsets. Both 8-vector windows must lie above the CPU
// exception range, fit in the vector table and not overlap each other.
func NewChained(primaryOffset, secondaryOffset uint8) (*Chained, *kernel.Error) {
	c := new(Chained)
	if err := c.configure(primaryOffset, secondaryOffset); err != nil {
		return nil, err
	}

	return c, nil
}

// configure validates the offsets and assigns the controller ports.
func (c *Chained) configure(primaryOffset, secondaryOffset uint8) *kernel.Error {
	if primaryOffset < numExceptionVectors || secondaryOffset < numExceptionVectors {
		return errOffsetOverlapsExceptions
	}

	if int(primaryOffset)+linesPerController > 256 || int(secondaryOffset)+linesPerController > 256 {
		return errOffsetOutOfRange
	}

	if primaryOffset < secondaryOffset+linesPerController && secondaryOffset < primaryOffset+linesPerController {
		return errOffsetsOverlap
	}

	c.primary = controller{offset: primaryOffset, commandPort: primaryCommandPort, dataPort: primaryDataPort}
	c.secondary = controller{offset: secondaryOffset, commandPort: secondaryCommandPort, dataPort: secondaryDataPort}
	return nil
}

// Init remaps both controllers to their configured offsets. The interrupt
// masks in effect before the call are preserved.
func (c *Chained) Init() {
	c.lock.Acquire()
	defer c.lock.Release()

	primaryMask, secondaryMask := c.primary.readMask(), c.secondary.readMask()

	writeAndWait(c.primary.commandPort, icw1Init)
	writeAndWait(c.secondary.commandPort, icw1Init)

	writeAndWait(c.primary.dataPort, c.primary.offset)
	writeAndWait(c.secondary.dataPort, c.secondary.offset)

	writeAndWait(c.primary.dataPort, 1<<secondaryCascadeLine)
	writeAndWait(c.secondary.dataPort, secondaryCascadeLine)

	writeAndWait(c.primary.dataPort, icw4Mode8086)
	writeAndWait(c.secondary.dataPort, icw4Mode8086)

	c.primary.writeMask(primaryMask)
	c.secondary.writeMask(secondaryMask)
}

// HandlesInterrupt returns true if vector was raised by either controller.
func (c *Chained) HandlesInterrupt(vector uint8) bool {
	return c.primary.handlesInterrupt(vector) || c.secondary.handlesInterrupt(vector)
}

// NotifyEndOfInterrupt acknowledges vector. Interrupts raised by the
// secondary controller are routed through the primary so both chips need
// an EOI in that case. Vectors that neither controller owns are ignored.
func (c *Chained) NotifyEndOfInterrupt(vector uint8) {
	if !c.HandlesInterrupt(vector) {
		return
	}

	c.lock.Acquire()
	defer c.lock.Release()

	if c.secondary.handlesInterrupt(vector) {
		c.secondary.endOfInterrupt()
	}
	c.primary.endOfInterrupt()
}

// Offsets returns the first vector of the primary and secondary controller.
func (c *Chained) Offsets() (primary, secondary uint8) {
	return c.primary.offset, c.secondary.offset
}

// Masks returns the interrupt masks of both controllers. A set bit
// disables the corresponding line.
func (c *Chained) Masks() (primary, secondary uint8) {
	c.lock.Acquire()
	defer c.lock.Release()

	return c.primary.readMask(), c.secondary.readMask()
}

// SetMasks updates the interrupt masks of both controllers.
func (c *Chained) SetMasks(primary, secondary uint8) {
	c.lock.Acquire()
	defer c.lock.Release()

	c.primary.writeMask(primary)
	c.secondary.writeMask(secondary)
}

// writeAndWait writes val to port and gives the controller time to settle.
func writeAndWait(port uint16, val uint8) {
	portWriteByteFn(port, val)
	portWriteByteFn(waitPort, 0)
}
