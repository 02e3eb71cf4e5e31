package relay

import "errors"

var (
	// ErrInvalidState is returned when the state blob cannot be decoded.
	ErrInvalidState = errors.New("relay: invalid oauth state")

	// ErrStateMismatch is returned when the returning state does not match
	// the one issued to this browser.
	ErrStateMismatch = errors.New("relay: oauth state mismatch")

	// ErrStateExpired is returned when the state is older than its TTL.
	ErrStateExpired = errors.New("relay: oauth state expired")

	// ErrNoSecret is returned when the cookie manager cannot sign the state cookie.
	ErrNoSecret = errors.New("relay: state cookie needs a signing secret")
)
