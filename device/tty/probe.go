package tty

import (
	"gopherboot/device"
	"gopherboot/kernel"
)

var (
	// systemWriter is the writer handed out by the probe.
	systemWriter Writer

	driverInfo = device.DriverInfo{
		Order: device.DetectOrderTerminal,
		Probe: probeForWriter,
	}
)

// RegisterDrivers adds the terminal drivers to the device registry.
func RegisterDrivers() *kernel.Error {
	return device.RegisterDriver(&driverInfo)
}

func probeForWriter() device.Driver {
	return &systemWriter
}
