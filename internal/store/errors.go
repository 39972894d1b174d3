package store

import (
	"errors"
	"fmt"
	"net/http"
)

// Store client errors.
var (
	// ErrInvalidCredentials is returned when SNAPCRAFT_STORE_CREDENTIALS
	// cannot be decoded into a root and discharge macaroon.
	ErrInvalidCredentials = errors.New("invalid store credentials")

	// ErrLocalRevision is returned when store metadata is requested for a
	// local file revision.
	ErrLocalRevision = errors.New("local revisions are not in the store")

	// ErrIncompleteResponse is returned when the store answers 2xx but
	// leaves out a field the client needs.
	ErrIncompleteResponse = errors.New("incomplete store response")
)

// APIError is returned for a non-2xx store response.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// URL is the request URL.
	URL string

	// Body is the start of the response body, which usually carries the
	// store's error list.
	Body string
}

// Error implements error.
func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("store request %s failed: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("store request %s failed: status %d: %s", e.URL, e.StatusCode, e.Body)
}

// NotFound reports whether the store does not know the requested snap or
// revision.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}
