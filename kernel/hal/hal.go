// Package hal probes the registered device drivers and connects the console
// writer to the kernel output surface.
package hal

import (
	"gopherboot/device"
	"gopherboot/device/tty"
	"gopherboot/device/video/console"
	"gopherboot/kernel"
	"gopherboot/kernel/cpu"
	"gopherboot/kernel/hal/multiboot"
	"gopherboot/kernel/kfmt"
)

// maxActiveDrivers is the number of initialized drivers the HAL tracks.
const maxActiveDrivers = 16

// managedDevices contains the devices discovered by the HAL.
type managedDevices struct {
	activeConsole console.Device
	activeTTY     *tty.Writer

	// activeDrivers tracks all initialized device drivers.
	activeDrivers     [maxActiveDrivers]device.Driver
	activeDriverCount int
}

var (
	devices managedDevices

	// prefix and driverLog render the per-driver log output.
	prefix    prefixBuffer
	driverLog kfmt.PrefixWriter

	getBootLoaderNameFn = multiboot.GetBootLoaderName
	cpuVendorFn         = cpu.Vendor
	driverListFn        = device.DriverList
	setOutputSinkFn     = kfmt.SetOutputSink

	errTooManyDrivers = &kernel.Error{Module: "hal", Message: "too many active drivers"}
)

// ActiveTTY returns the currently active console writer.
func ActiveTTY() *tty.Writer {
	return devices.activeTTY
}

// ActiveConsole returns the currently active console device.
func ActiveConsole() console.Device {
	return devices.activeConsole
}

// ActiveDrivers returns the initialized drivers in initialization order.
func ActiveDrivers() []device.Driver {
	return devices.activeDrivers[:devices.activeDriverCount]
}

// DetectHardware probes for hardware devices and initializes the appropriate
// drivers.
func DetectHardware() {
	if name := getBootLoaderNameFn(); name != "" {
		kfmt.Printfln("[hal] booted by %s", name)
	}
	kfmt.Printfln("[hal] cpu vendor: %s", cpuVendorFn())

	// Get driver list and sort by detection priority
	drivers := driverListFn()
	drivers.Sort()

	probe(drivers)
}

// probe executes the probe function for each driver and initializes each
// driver that reports the presence of its hardware.
func probe(driverInfoList device.DriverInfoList) {
	for _, info := range driverInfoList {
		drv := info.Probe()
		if drv == nil {
			continue
		}

		InitDriver(drv)
	}
}

// InitDriver initializes drv, logging its progress with a per-driver prefix.
// Drivers that initialize successfully are tracked by the HAL; consoles and
// console writers are linked together as soon as both are available.
func InitDriver(drv device.Driver) *kernel.Error {
	prefix.Reset()
	major, minor, patch := drv.DriverVersion()
	kfmt.Fprintf(&prefix, "[hal] %s(%d.%d.%d): ", drv.DriverName(), major, minor, patch)

	w := &driverLog
	*w = kfmt.PrefixWriter{Sink: kfmt.Output(), Prefix: prefix.Bytes()}

	if devices.activeDriverCount == maxActiveDrivers {
		kfmt.Fprintf(w, "init failed: %s\n", errTooManyDrivers.Message)
		return errTooManyDrivers
	}

	if err := drv.DriverInit(w); err != nil {
		kfmt.Fprintf(w, "init failed: %s\n", err.Message)
		return err
	}

	kfmt.Fprintf(w, "initialized\n")
	devices.activeDrivers[devices.activeDriverCount] = drv
	devices.activeDriverCount++
	onDriverInit(drv)
	return nil
}

// onDriverInit is invoked by InitDriver whenever a piece of hardware is
// successfully initialized.
func onDriverInit(drv device.Driver) {
	switch drvImpl := drv.(type) {
	case console.Device:
		if devices.activeConsole != nil {
			return
		}

		devices.activeConsole = drvImpl
		if devices.activeTTY != nil {
			linkTTYToConsole()
		}
	case *tty.Writer:
		if devices.activeTTY != nil {
			return
		}

		devices.activeTTY = drvImpl
		if devices.activeConsole != nil {
			linkTTYToConsole()
		}
	}
}

// linkTTYToConsole connects the active console writer to the active console
// device and makes it the kfmt output sink. Any output buffered so far is
// replayed to the console.
func linkTTYToConsole() {
	devices.activeTTY.AttachTo(devices.activeConsole)
	setOutputSinkFn(devices.activeTTY)
}

// prefixBuffer is a fixed-capacity io.Writer used to render driver log
// prefixes without allocating. Writes beyond its capacity are truncated.
type prefixBuffer struct {
	data [64]byte
	len  int
}

func (b *prefixBuffer) Write(p []byte) (int, error) {
	b.len += copy(b.data[b.len:], p)
	return len(p), nil
}

func (b *prefixBuffer) Bytes() []byte {
	return b.data[:b.len]
}

func (b *prefixBuffer) Reset() {
	b.len = 0
}
