package cache

import "errors"

// ErrNotFound is returned by Get when no identity is cached for the name.
var ErrNotFound = errors.New("snap identity not cached")
