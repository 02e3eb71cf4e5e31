package credential

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the denormalized profile snapshot kept next to the token.
type User struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// IsZero reports whether no profile data is present.
func (u User) IsZero() bool {
	return u == User{}
}

// Session is the authenticated identity of the current client context.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// IsAuthenticated reports whether a token is present.
func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}

// Expired reports whether the token is a JWT whose exp claim is in the past.
// The signature is not checked: this is a local hint to skip a token the
// backend would reject anyway. Opaque tokens never expire locally.
func (s Session) Expired(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	tok, _, err := jwt.NewParser().ParseUnverified(s.Token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := tok.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
