package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/socialsync/core/credential"
)

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up request body.
type Registration struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Gender      string `json:"gender,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

type authData struct {
	Token string          `json:"token"`
	User  credential.User `json:"user"`
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, creds Credentials) (credential.Session, error) {
	return c.authenticate(ctx, "/api/auth/login", creds)
}

// Register creates an account and returns its session.
func (c *Client) Register(ctx context.Context, in Registration) (credential.Session, error) {
	return c.authenticate(ctx, "/api/auth/register", in)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (credential.Session, error) {
	var data authData
	if err := c.do(ctx, http.MethodPost, path, body, &data); err != nil {
		return credential.Session{}, err
	}
	if data.Token == "" {
		return credential.Session{}, fmt.Errorf("%w: POST %s", ErrNoToken, path)
	}
	return credential.Session{Token: data.Token, User: data.User}, nil
}

// Logout ends the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// Me returns the current user. The backend answers with either the user
// itself or {user: ...} as data.
func (c *Client) Me(ctx context.Context) (credential.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &raw); err != nil {
		return credential.User{}, err
	}

	var wrapped struct {
		User *credential.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return *wrapped.User, nil
	}
	var u credential.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return credential.User{}, fmt.Errorf("%w: GET /api/users/me: %w", ErrInvalidResponse, err)
	}
	return u, nil
}
