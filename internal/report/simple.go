package report

import "io"

// SimpleWriter outputs the report as plain text, one line per report line.
// This is the canonical format: it is byte-stable for identical input and
// meant to be diffed across repeated simulations.
type SimpleWriter struct {
	baseWriter
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer) *SimpleWriter {
	return &SimpleWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report lines.
func (w *SimpleWriter) Write(report *Report) (int, error) {
	return io.WriteString(w.output, report.Text())
}
