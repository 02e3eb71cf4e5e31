package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRequestFailed wraps transport-level failures.
	ErrRequestFailed = errors.New("backend: request failed")

	// ErrInvalidResponse is returned when a body cannot be decoded.
	ErrInvalidResponse = errors.New("backend: invalid response")

	// ErrNoToken is returned by authentication calls whose response carries no token.
	ErrNoToken = errors.New("backend: response has no token")
)

// APIError is a non-2xx response or an envelope with success=false.
type APIError struct {
	Status  int
	Message string
	Method  string
	Path    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("backend: %s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

// IsUnauthorized reports whether the backend rejected the credential.
func (e *APIError) IsUnauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// IsUnauthorized reports whether err carries an authorization rejection.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsUnauthorized()
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Message returns the user-facing message carried by err, or fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
