package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmitrymomot/socialsync/core/cookie"
	"github.com/dmitrymomot/socialsync/core/state"
	"github.com/dmitrymomot/socialsync/pkg/kv"
)

// Location is one place the session is persisted.
type Location interface {
	Name() string
	// Load returns ErrEmpty when the location holds no token.
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

// Memory keeps the session in a reactive value that views subscribe to.
// It is the fastest location and the first one lost on restart.
type Memory struct {
	value *state.Value[Session]
}

// NewMemory creates an empty in-memory location.
func NewMemory() *Memory {
	return &Memory{value: state.NewValue(Session{})}
}

// Value exposes the reactive value for subscriptions.
func (m *Memory) Value() *state.Value[Session] { return m.value }

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Load(context.Context) (Session, error) {
	s := m.value.Get()
	if s.Token == "" {
		return Session{}, ErrEmpty
	}
	return s, nil
}

func (m *Memory) Save(_ context.Context, s Session) error {
	m.value.Set(s)
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.value.Set(Session{})
	return nil
}

// Default durable storage keys.
const (
	DefaultTokenKey = "authToken"
	DefaultUserKey  = "user"
)

// Durable persists the session under two keys of a kv.Store: the raw token
// and the serialized user.
type Durable struct {
	store    kv.Store
	tokenKey string
	userKey  string
}

// NewDurable creates a durable location using the default keys.
func NewDurable(store kv.Store) *Durable {
	return &Durable{store: store, tokenKey: DefaultTokenKey, userKey: DefaultUserKey}
}

func (d *Durable) Name() string { return "durable" }

// Load tolerates a missing or unreadable user record: the token alone is a
// usable session and the profile is refreshed on validation.
func (d *Durable) Load(ctx context.Context) (Session, error) {
	token, found, err := d.store.Get(ctx, d.tokenKey)
	if err != nil {
		return Session{}, err
	}
	if !found || len(token) == 0 {
		return Session{}, ErrEmpty
	}

	s := Session{Token: string(token)}
	if raw, found, err := d.store.Get(ctx, d.userKey); err == nil && found {
		var u User
		if json.Unmarshal(raw, &u) == nil {
			s.User = u
		}
	}
	return s, nil
}

func (d *Durable) Save(ctx context.Context, s Session) error {
	if err := d.store.Set(ctx, d.tokenKey, []byte(s.Token), 0); err != nil {
		return err
	}
	if s.User.IsZero() {
		return d.store.Delete(ctx, d.userKey)
	}
	raw, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return d.store.Set(ctx, d.userKey, raw, 0)
}

func (d *Durable) Clear(ctx context.Context) error {
	return errors.Join(
		d.store.Delete(ctx, d.tokenKey),
		d.store.Delete(ctx, d.userKey),
	)
}

// DefaultCookieName is the token cookie shared with the backend.
const DefaultCookieName = "token"

// Cookie keeps the token in a cookie jar scoped to the backend origin, the
// same jar the HTTP client sends requests with.
type Cookie struct {
	jar      http.CookieJar
	origin   *url.URL
	manager  *cookie.Manager
	name     string
	topology cookie.Topology
}

// NewCookie creates a cookie location. manager supplies the cookie defaults
// (path, max age); Secure follows origin's scheme and SameSite follows topology.
func NewCookie(jar http.CookieJar, origin *url.URL, manager *cookie.Manager, topology cookie.Topology) *Cookie {
	return &Cookie{
		jar:      jar,
		origin:   origin,
		manager:  manager,
		name:     DefaultCookieName,
		topology: topology,
	}
}

func (c *Cookie) Name() string { return "cookie" }

func (c *Cookie) Load(context.Context) (Session, error) {
	for _, ck := range c.jar.Cookies(c.origin) {
		if ck.Name == c.name && ck.Value != "" {
			return Session{Token: ck.Value}, nil
		}
	}
	return Session{}, ErrEmpty
}

func (c *Cookie) Save(_ context.Context, s Session) error {
	ck, err := c.manager.Build(c.name, s.Token,
		cookie.WithTopology(c.topology, c.origin.Scheme == "https"),
	)
	if err != nil {
		return err
	}
	c.jar.SetCookies(c.origin, []*http.Cookie{ck})
	return nil
}

func (c *Cookie) Clear(context.Context) error {
	c.jar.SetCookies(c.origin, []*http.Cookie{c.manager.Expired(c.name)})
	return nil
}
