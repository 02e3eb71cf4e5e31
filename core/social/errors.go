package social

import "errors"

var (
	// ErrEmptyText is returned when a comment, reply or edit has no text.
	ErrEmptyText = errors.New("social: text is empty")

	// ErrUnknownKey is returned by Refetch for keys it cannot resolve.
	ErrUnknownKey = errors.New("social: unknown refetch key")
)

// ErrPending is returned when an operation targets a placeholder the server
// has not confirmed yet.
var ErrPending = errors.New("social: entity is not confirmed yet")
