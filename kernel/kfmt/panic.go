package kfmt

import (
	"gopherboot/kernel"
	"gopherboot/kernel/cpu"
)

var (
	// cpuHaltFn is mocked by tests and is automatically inlined by the compiler.
	cpuHaltFn = cpu.Halt

	errRuntimePanic = &kernel.Error{Module: "rt", Message: "unknown cause"}
)

// Panic outputs the supplied error (if not nil) to the console and halts the
// CPU. Calls to Panic never return. Panic also works as a redirection target
// for calls to panic() (resolved via runtime.gopanic).
//
// Panic writes to the output sink without acquiring the output lock; it may
// run inside a fault handler that interrupted a Printf call.
//
//go:redirect-from runtime.gopanic
func Panic(e interface{}) {
	var err *kernel.Error

	switch t := e.(type) {
	case *kernel.Error:
		err = t
	case string:
		panicString(t)
		return
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	Fprintf(outputSink, "\n-----------------------------------\n")
	if err != nil {
		Fprintf(outputSink, "[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	Fprintf(outputSink, "*** kernel panic: system halted ***")
	Fprintf(outputSink, "\n-----------------------------------\n")

	cpuHaltFn()
}

// panicString serves as a redirect target for runtime.throw.
//
//go:redirect-from runtime.throw
func panicString(msg string) {
	errRuntimePanic.Message = msg
	Panic(errRuntimePanic)
}
