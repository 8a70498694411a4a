package console

import (
	"gopherboot/device"
	"gopherboot/kernel"
	"gopherboot/kernel/hal/multiboot"
)

var (
	getFramebufferInfoFn = multiboot.GetFramebufferInfo

	// vgaText backs the console returned by the probe so that detecting
	// the hardware does not require an allocator.
	vgaText VgaText

	driverInfo = device.DriverInfo{
		Order: device.DetectOrderConsole,
		Probe: probeForVgaText,
	}
)

// RegisterDrivers adds the console drivers to the device registry.
func RegisterDrivers() *kernel.Error {
	return device.RegisterDriver(&driverInfo)
}

// probeForVgaText checks for the presence of a vga text console. If the boot
// loader did not report a frame buffer, the standard 80x25 mode 3 frame
// buffer is assumed.
func probeForVgaText() device.Driver {
	fbInfo := getFramebufferInfoFn()
	switch {
	case fbInfo == nil:
		vgaText.init(DefaultWidth, DefaultHeight, DefaultFramebufferAddr)
	case fbInfo.Type == multiboot.FramebufferTypeEGA:
		vgaText.init(fbInfo.Width, fbInfo.Height, uintptr(fbInfo.PhysAddr))
	default:
		return nil
	}

	return &vgaText
}
