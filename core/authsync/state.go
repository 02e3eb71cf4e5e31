package authsync

import (
	"time"

	"github.com/dmitrymomot/socialsync/core/credential"
)

// Status is a state of the synchronizer's state machine.
type Status string

const (
	// StatusUnknown is the state before the first page-load check.
	StatusUnknown Status = "unknown"
	// StatusAuthenticated means a token is present. It is set optimistically
	// on load, before the backend confirms the token.
	StatusAuthenticated Status = "authenticated"
	// StatusUnauthenticated means no usable token is present.
	StatusUnauthenticated Status = "unauthenticated"
	// StatusFailed means the last login attempt failed.
	StatusFailed Status = "failed"
	// StatusReset is terminal: everything was wiped after an unexpected
	// failure. Only an explicit login leaves it.
	StatusReset Status = "reset"
)

// State is what views render from.
type State struct {
	Status Status
	User   credential.User
	// Error is the user-facing message of the last failure.
	Error string
}

// IsAuthenticated reports whether the state carries a session.
func (s State) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated
}

// ErrorRecord is the failure left in session storage for the next view.
type ErrorRecord struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Context   string    `json:"context"`
}
