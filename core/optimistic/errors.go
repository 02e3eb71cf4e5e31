package optimistic

import "errors"

var (
	// ErrUnauthenticated is returned before any local change when no session is present.
	ErrUnauthenticated = errors.New("optimistic: unauthenticated")

	// ErrNotFound is returned when the entity to mutate is not in local state.
	ErrNotFound = errors.New("optimistic: entity not found")

	// ErrScopeClosed is returned when a mutation starts in a closed scope.
	ErrScopeClosed = errors.New("optimistic: scope closed")

	// ErrSuperseded marks a response that arrived after a newer mutation of
	// the same entity was issued; its values were not applied.
	ErrSuperseded = errors.New("optimistic: superseded by a newer mutation")
)
