package fetch

import "errors"

var (
	// ErrNoSnapName is returned when a local snap.yaml has no name field.
	ErrNoSnapName = errors.New("snap.yaml has no name")

	// ErrUnsupportedFile is returned for local files that are neither a
	// .snap archive nor a snap.yaml.
	ErrUnsupportedFile = errors.New("unsupported local snap file: expected .snap or .yaml")
)
