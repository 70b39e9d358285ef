package backend

import (
	"errors"
	"fmt"
)

// ErrNotConfigured marks a call that was rejected before any network
// I/O because the backend base URL is empty.
var ErrNotConfigured = errors.New("backend base URL is not configured")

// APIError is the one failure shape every backend implementation
// raises. StatusCode 0 means no HTTP response was obtained (the call
// never left the process or died in transport); any other value is the
// status the server answered with.
type APIError struct {
	StatusCode int
	Message    string
	Payload    any
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}
