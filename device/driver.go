package device

import (
	"gopherboot/kernel"
	"io"
)

// Driver is an interface implemented by all drivers.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverVersion returns the driver version.
	DriverVersion() (major uint16, minor uint16, patch uint16)

	// DriverInit initializes the device driver. If the driver init code
	// needs to log some output, it can use the supplied io.Writer in
	// conjunction with a call to kfmt.Fprint.
	DriverInit(io.Writer) *kernel.Error
}

// ProbeFn is a function that scans for the presence of a particular
// piece of hardware and returns a driver for it.
type ProbeFn func() Driver

// DetectOrder specifies when each driver's probe function will be invoked
// by the hal package.
type DetectOrder int8

const (
	// DetectOrderEarly specifies that the driver's probe function should
	// be executed at the beginning of the HW detection phase.
	DetectOrderEarly DetectOrder = -128

	// DetectOrderConsole is used by drivers that provide the frame buffer
	// for the system console.
	DetectOrderConsole DetectOrder = -64

	// DetectOrderTerminal is used by drivers that write to a console and
	// therefore need to be probed after it.
	DetectOrderTerminal DetectOrder = -32

	// DetectOrderLast specifies that the driver's probe function should
	// be executed at the end of the HW detection phase.
	DetectOrderLast DetectOrder = 127
)

// DriverInfo is a driver-defined struct that is passed to calls to RegisterDriver.
type DriverInfo struct {
	// Order specifies at which stage of the HW detection step should
	// the probe function be invoked.
	Order DetectOrder

	// Probe is a function that checks for the presence of a particular
	// piece of hardware and returns back a driver for it.
	Probe ProbeFn
}

// DriverInfoList is a list of registered drivers that implements sort.Interface.
type DriverInfoList []*DriverInfo

// Len returns the length of the driver info list.
func (l DriverInfoList) Len() int { return len(l) }

// Swap exchanges 2 elements in the driver info list.
func (l DriverInfoList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }

// Less compares 2 elements of the driver info list.
func (l DriverInfoList) Less(i, j int) bool { return l[i].Order < l[j].Order }

// Sort orders the list by detection order using an in-place insertion sort.
// Drivers with the same order keep their registration order. Unlike
// sort.Sort, it does not need to box the list into an interface value.
func (l DriverInfoList) Sort() {
	for i := 1; i < len(l); i++ {
		for j := i; j > 0 && l.Less(j, j-1); j-- {
			l.Swap(j, j-1)
		}
	}
}

// maxDrivers is the capacity of the driver registry.
const maxDrivers = 16

var (
	registeredDrivers [maxDrivers]*DriverInfo
	driverCount       int

	errRegistryFull = &kernel.Error{Module: "device", Message: "driver registry is full"}
)

// RegisterDriver adds the supplied driver info object to the list of registered
// drivers. The list can be retrieved by calling DriverList.
func RegisterDriver(info *DriverInfo) *kernel.Error {
	if driverCount == maxDrivers {
		return errRegistryFull
	}

	registeredDrivers[driverCount] = info
	driverCount++
	return nil
}

// DriverList returns the list of registered drivers. The returned slice
// aliases the registry storage.
func DriverList() DriverInfoList {
	return registeredDrivers[:driverCount]
}
