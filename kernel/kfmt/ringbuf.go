package kfmt

import "io"

// earlyOutputSize is the capacity of the buffer that holds output produced
// before a console is attached. A full 80x25 text screen holds 2000
// characters; the size is rounded up to a power of 2 so that indices can
// wrap with a mask.
const earlyOutputSize = 2048

// ringBuffer keeps the most recent earlyOutputSize-1 bytes written to it.
// When older output is overwritten, the first Read skips what is left of
// the partially overwritten line so the replayed log starts at a line
// boundary.
type ringBuffer struct {
	buffer         [earlyOutputSize]byte
	rIndex, wIndex int

	// partialLine is set when the oldest byte still buffered is not the
	// first byte of a line.
	partialLine bool
}

// Write appends p to the buffer, overwriting the oldest output if the
// buffer is full. It never fails.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[rb.wIndex] = b
		rb.wIndex = (rb.wIndex + 1) & (earlyOutputSize - 1)
		if rb.wIndex != rb.rIndex {
			continue
		}

		// Full; drop the oldest byte
		rb.partialLine = rb.buffer[rb.rIndex] != '\n'
		rb.rIndex = (rb.rIndex + 1) & (earlyOutputSize - 1)
	}

	return len(p), nil
}

// Read copies buffered output into p. It returns io.EOF once the buffer is
// drained.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	if rb.partialLine {
		rb.skipPartialLine()
	}

	if rb.rIndex == rb.wIndex {
		return 0, io.EOF
	}

	// Copy the contiguous run that starts at rIndex; a wrapped buffer is
	// drained by a second call.
	end := rb.wIndex
	if end < rb.rIndex {
		end = earlyOutputSize
	}

	n := copy(p, rb.buffer[rb.rIndex:end])
	rb.rIndex = (rb.rIndex + n) & (earlyOutputSize - 1)
	return n, nil
}

// skipPartialLine advances the read index past the next line feed. If no
// line feed is buffered the contents are left untouched.
func (rb *ringBuffer) skipPartialLine() {
	rb.partialLine = false
	for i := rb.rIndex; i != rb.wIndex; i = (i + 1) & (earlyOutputSize - 1) {
		if rb.buffer[i] == '\n' {
			rb.rIndex = (i + 1) & (earlyOutputSize - 1)
			return
		}
	}
}

// Reset discards any buffered output.
func (rb *ringBuffer) Reset() {
	rb.rIndex, rb.wIndex, rb.partialLine = 0, 0, false
}
