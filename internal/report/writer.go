package report

import "io"

// Writer defines the interface for report output.
// Implementations write a rendered Report in various formats.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *Report) (int, error)
}

// MultiWriter writes to multiple Writers in turn.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// sections splits the report lines into the install section, the connection
// section and the dangling plug section. Candidate lines stay with the
// connection or dangling plug they follow.
func sections(report *Report) (installs, connections, dangling []Line) {
	current := &installs
	for _, l := range report.Lines {
		switch l.Kind {
		case LineInstall, LineBadInterfaces:
			current = &installs
		case LineConnection:
			current = &connections
		case LineDangling:
			current = &dangling
		}
		*current = append(*current, l)
	}
	return installs, connections, dangling
}
