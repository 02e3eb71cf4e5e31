package credential

import "errors"

var (
	// ErrUnauthenticated is returned by Store.Get when no location holds a token.
	ErrUnauthenticated = errors.New("credential: unauthenticated")

	// ErrEmpty is returned by a Location that holds no token.
	ErrEmpty = errors.New("credential: location empty")

	// ErrInvalidSession is returned by Set for a session without a token.
	ErrInvalidSession = errors.New("credential: session has no token")
)
