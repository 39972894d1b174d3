package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and can be matched with
// errors.Is().
var (
	// ErrNoTarget is returned when auto-connections is run without a target snap.
	ErrNoTarget = errors.New("no target snap specified")

	// ErrInvalidModel is returned when the model is not of the form <brand>/<model>.
	ErrInvalidModel = errors.New("invalid model: expected <brand>/<model>")

	// ErrInvalidTimeout is returned when the store request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the fetch concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidStoreURL is returned when the store base URL is empty.
	ErrInvalidStoreURL = errors.New("invalid store URL: must not be empty")
)
