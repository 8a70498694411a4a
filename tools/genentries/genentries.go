package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
)

const numVectors = 256

// Vectors for which the CPU pushes an error code before invoking the gate.
var errorCodeVectors = map[int]bool{
	8: true, 10: true, 11: true, 12: true, 13: true,
	14: true, 17: true, 21: true, 29: true, 30: true,
}

// Size of the scratch area reserved by the common stub: the argument slot,
// a 512-byte FXSAVE area aligned to 16 bytes and the saved stack pointer.
const (
	frameSize   = 552
	fxsaveOff   = 16
	savedSPOff  = 528
	ptrSize     = 8
	header      = "// Code generated by genentries. DO NOT EDIT.\n\n#include \"textflag.h\"\n"
	commonLabel = "gateCommon<>(SB)"
)

var pushOrder = []string{"R15", "R14", "R13", "R12", "R11", "R10", "R9", "R8", "BP", "DI", "SI", "DX", "CX", "BX", "AX"}

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[genentries] error: %s\n", err.Error())
	os.Exit(1)
}

func genEntryStubs(w io.Writer) {
	for vec := 0; vec < numVectors; vec++ {
		fmt.Fprintf(w, "\nTEXT entry%d<>(SB),NOSPLIT|NOFRAME,$0\n", vec)
		if !errorCodeVectors[vec] {
			fmt.Fprint(w, "\tPUSHQ $0\n")
		}
		fmt.Fprintf(w, "\tPUSHQ $%d\n", vec)
		fmt.Fprintf(w, "\tJMP %s\n", commonLabel)
	}
}

func genCommonStub(w io.Writer) {
	fmt.Fprint(w, "\n// gateCommon saves the register state of the interrupted code so that it\n")
	fmt.Fprint(w, "// forms a Registers value on the stack, stores the FPU/SSE state and then\n")
	fmt.Fprint(w, "// invokes dispatchInterrupt with a pointer to the saved registers.\n")
	fmt.Fprintf(w, "TEXT %s,NOSPLIT|NOFRAME,$0\n", commonLabel)
	for _, reg := range pushOrder {
		fmt.Fprintf(w, "\tPUSHQ %s\n", reg)
	}
	fmt.Fprint(w, "\tMOVQ SP, BX\n")
	fmt.Fprintf(w, "\tSUBQ $%d, SP\n", frameSize)
	fmt.Fprint(w, "\tANDQ $~15, SP\n")
	fmt.Fprintf(w, "\tMOVQ BX, %d(SP)\n", savedSPOff)
	fmt.Fprintf(w, "\tFXSAVE64 %d(SP)\n", fxsaveOff)
	fmt.Fprint(w, "\tCLD\n")
	fmt.Fprint(w, "\tMOVQ BX, 0(SP)\n")
	fmt.Fprint(w, "\tCALL ·dispatchInterrupt(SB)\n")
	fmt.Fprintf(w, "\tFXRSTOR64 %d(SP)\n", fxsaveOff)
	fmt.Fprintf(w, "\tMOVQ %d(SP), SP\n", savedSPOff)
	for i := len(pushOrder) - 1; i >= 0; i-- {
		fmt.Fprintf(w, "\tPOPQ %s\n", pushOrder[i])
	}
	fmt.Fprint(w, "\tADDQ $16, SP // vector and error code\n")
	fmt.Fprint(w, "\tIRETQ\n")
}

func genEntryTable(w io.Writer) {
	fmt.Fprint(w, "\n")
	for vec := 0; vec < numVectors; vec++ {
		fmt.Fprintf(w, "DATA entryTable<>+%d(SB)/8, $entry%d<>(SB)\n", vec*ptrSize, vec)
	}
	fmt.Fprintf(w, "GLOBL entryTable<>(SB), RODATA, $%d\n", numVectors*ptrSize)
	fmt.Fprint(w, "\nTEXT ·gateEntryTable(SB),NOSPLIT,$0-8\n")
	fmt.Fprint(w, "\tLEAQ entryTable<>(SB), AX\n")
	fmt.Fprint(w, "\tMOVQ AX, ret+0(FP)\n")
	fmt.Fprint(w, "\tRET\n")
}

func genEntriesFile() []byte {
	var buf bytes.Buffer

	buf.WriteString(header)
	genEntryStubs(&buf)
	genCommonStub(&buf)
	genEntryTable(&buf)

	return buf.Bytes()
}

func runTool() error {
	output := flag.String("out", "-", "a file to write the generated assembly or - to output to STDOUT")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, "genentries: generate the interrupt gate entrypoints for the kernel/gate package\n\n")
		fmt.Fprint(os.Stderr, "Usage: genentries [options]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	data := genEntriesFile()

	switch *output {
	case "-":
		_, err := os.Stdout.Write(data)
		return err
	default:
		return os.WriteFile(*output, data, 0644)
	}
}

func main() {
	if err := runTool(); err != nil {
		exit(err)
	}
}
