package kfmt

import (
	"bytes"
	"io"
)

// PrefixWriter is an io.Writer that tags every line written through it with
// a fixed prefix. The HAL uses it to label driver output, e.g.
// "[hal] vga_text(0.0.1): ".
type PrefixWriter struct {
	// Sink receives the prefixed output.
	Sink io.Writer

	// Prefix is emitted before the first byte of each line.
	Prefix []byte

	// midLine is set while the sink is positioned after the start of a
	// line that already carries the prefix.
	midLine bool
}

// Write forwards p to the sink one line at a time, emitting the prefix when
// a new line starts. A prefix is only emitted once a line has content, so a
// write that ends with a line feed does not leave a dangling prefix behind.
// The returned count excludes prefix bytes.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written int

	for len(p) != 0 {
		if !w.midLine {
			w.Sink.Write(w.Prefix)
			w.midLine = true
		}

		end := len(p)
		if i := bytes.IndexByte(p, '\n'); i != -1 {
			end = i + 1
			w.midLine = false
		}

		n, err := w.Sink.Write(p[:end])
		written += n
		if err != nil {
			return written, err
		}

		p = p[end:]
	}

	return written, nil
}
