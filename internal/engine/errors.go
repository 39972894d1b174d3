package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEngineNotFound is returned when no engine executable can be located.
var ErrEngineNotFound = errors.New("ifacetool-engine not found")

// ExitError is returned when the engine exits with a non-zero status.
type ExitError struct {
	// Op is the engine operation that failed.
	Op string

	// Code is the exit status.
	Code int

	// Stderr is what the engine wrote to stderr.
	Stderr string

	// Err is the underlying exec error.
	Err error
}

// Error implements error.
func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("engine %s exited with status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("engine %s exited with status %d: %s", e.Op, e.Code, msg)
}

// Unwrap returns the underlying exec error.
func (e *ExitError) Unwrap() error {
	return e.Err
}
