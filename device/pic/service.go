package pic

import (
	"gopherboot/kernel"
	"gopherboot/kernel/kfmt"
	"io"
)

var (
	// pair is the statically allocated system controller pair. It becomes
	// usable after a successful call to Init.
	pair        Chained
	initialized bool

	errNotInitialized = &kernel.Error{Module: "pic", Message: "controllers not initialized"}
)

// Init remaps the system controller pair to the default vector offsets.
func Init() *kernel.Error {
	if err := pair.configure(DefaultPrimaryOffset, DefaultSecondaryOffset); err != nil {
		return err
	}

	pair.Init()
	initialized = true
	return nil
}

// NotifyEndOfInterrupt acknowledges vector on the system controller pair.
func NotifyEndOfInterrupt(vector uint8) *kernel.Error {
	if !initialized {
		return errNotInitialized
	}

	pair.NotifyEndOfInterrupt(vector)
	return nil
}

// Offsets returns the vector offsets that the system controller pair uses
// once initialized.
func Offsets() (primary, secondary uint8) {
	return DefaultPrimaryOffset, DefaultSecondaryOffset
}

// SystemDriver exposes the system controller pair through the device.Driver
// interface so the hal package can initialize and log it like any other
// device.
type SystemDriver struct{}

// DriverName returns the name of this driver.
func (SystemDriver) DriverName() string {
	return "pic8259"
}

// DriverVersion returns the version of this driver.
func (SystemDriver) DriverVersion() (uint16, uint16, uint16) {
	return 0, 0, 1
}

// DriverInit remaps the system controller pair.
func (SystemDriver) DriverInit(w io.Writer) *kernel.Error {
	if err := Init(); err != nil {
		return err
	}

	kfmt.Fprintf(w, "remapped IRQs to vectors %d and %d\n", pair.primary.offset, pair.secondary.offset)
	return nil
}
