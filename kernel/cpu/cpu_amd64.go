package cpu

var (
	cpuidFn = ID

	// vendorBuf holds the 12-byte CPUID vendor string. It is a package
	// level array so that Vendor does not need to allocate.
	vendorBuf [12]byte
)

// EnableInterrupts enables interrupt handling.
func EnableInterrupts()

// DisableInterrupts disables interrupt handling.
func DisableInterrupts()

// Halt disables interrupts and stops instruction execution. Calls to Halt
// never return.
func Halt()

// WaitForInterrupt stops instruction execution until the next interrupt
// arrives and then returns.
func WaitForInterrupt()

// Breakpoint raises a breakpoint exception (int3) on the current CPU.
func Breakpoint()

// LoadGDT loads the global descriptor table register with the table that
// starts at base. The limit argument is the table size in bytes minus one.
func LoadGDT(base uintptr, limit uint16)

// LoadIDT loads the interrupt descriptor table register with the table that
// starts at base. The limit argument is the table size in bytes minus one.
func LoadIDT(base uintptr, limit uint16)

// ReloadCS switches the code segment register to the specified selector by
// performing a far return to the caller.
func ReloadCS(selector uint16)

// LoadTaskRegister loads the task register with the specified TSS selector.
func LoadTaskRegister(selector uint16)

// ReadCR2 returns the value stored in the CR2 register. After a page fault
// it holds the address that caused the fault.
func ReadCR2() uint64

// ID returns information about the CPU and its features. It
// is implemented as a CPUID instruction with EAX=leaf and
// returns the values in EAX, EBX, ECX and EDX.
func ID(leaf uint32) (uint32, uint32, uint32, uint32)

// Vendor returns the CPU vendor string as reported by CPUID leaf 0. The
// returned slice is backed by a package buffer and is overwritten by
// subsequent calls.
func Vendor() []byte {
	_, ebx, ecx, edx := cpuidFn(0)
	for i, reg := range [3]uint32{ebx, edx, ecx} {
		vendorBuf[i*4+0] = byte(reg)
		vendorBuf[i*4+1] = byte(reg >> 8)
		vendorBuf[i*4+2] = byte(reg >> 16)
		vendorBuf[i*4+3] = byte(reg >> 24)
	}

	return vendorBuf[:]
}

// PortWriteByte writes a uint8 value to the requested port.
func PortWriteByte(port uint16, val uint8)

// PortReadByte reads a uint8 value from the requested port.
func PortReadByte(port uint16) uint8
