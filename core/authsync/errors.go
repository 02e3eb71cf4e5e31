package authsync

import "errors"

var (
	// ErrMalformedCallback is returned when the OAuth callback lacks the
	// success flag or the token.
	ErrMalformedCallback = errors.New("authsync: malformed oauth callback")

	// ErrCallbackTimeout is returned when the callback did not settle in time.
	ErrCallbackTimeout = errors.New("authsync: oauth callback timed out")

	// ErrSessionRejected is returned when the backend refuses the stored token.
	ErrSessionRejected = errors.New("authsync: session rejected by backend")

	// ErrPanic wraps a panic recovered by Guard.
	ErrPanic = errors.New("authsync: unexpected failure")
)
