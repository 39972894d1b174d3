package model

import "errors"

// Model errors.
// These are sentinel errors so callers can use errors.Is() on wrapped values.
var (
	// ErrMalformedResult is returned when a SimulationResult breaks its contract,
	// e.g. a connection without on-target sides or a missing install entry.
	// It signals a bug in the engine, not a recoverable runtime condition.
	ErrMalformedResult = errors.New("malformed simulation result")

	// ErrInvalidOnTarget is returned when an on-target side is neither "plug" nor "slot".
	ErrInvalidOnTarget = errors.New("invalid on-target side: must be \"plug\" or \"slot\"")

	// ErrEmptySnapName is returned when a snap token has no name.
	ErrEmptySnapName = errors.New("snap name must not be empty")

	// ErrInvalidRevision is returned when a snap@rev token carries a revision
	// that is not a positive integer.
	ErrInvalidRevision = errors.New("invalid revision: must be a positive integer")
)
