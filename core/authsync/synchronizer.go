package authsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/socialsync/core/credential"
	"github.com/dmitrymomot/socialsync/core/guard"
	"github.com/dmitrymomot/socialsync/core/logger"
	"github.com/dmitrymomot/socialsync/core/state"
	"github.com/dmitrymomot/socialsync/integration/backend"
	"github.com/dmitrymomot/socialsync/pkg/async"
	"github.com/dmitrymomot/socialsync/pkg/kv"
)

// Session storage keys.
const (
	RedirectKey = "loginRedirectUrl"
	ErrorKey    = "authError"
)

const (
	// DefaultCallbackTimeout bounds HandleCallback.
	DefaultCallbackTimeout = 10 * time.Second
	// DefaultSettleDelay is the wait between storing a fresh session and
	// re-checking it.
	DefaultSettleDelay = 500 * time.Millisecond
	// DefaultOAuthPath is where the browser starts the OAuth hop.
	DefaultOAuthPath = "/api/auth/google"

	redirectTTL = 30 * time.Minute
	errorTTL    = 10 * time.Minute
)

// Store is the credential store the synchronizer keeps in step.
type Store interface {
	Get(ctx context.Context) (credential.Session, error)
	Set(ctx context.Context, s credential.Session) error
	Clear(ctx context.Context) error
}

// Backend is the part of the REST API the synchronizer needs.
type Backend interface {
	Me(ctx context.Context) (credential.User, error)
	Login(ctx context.Context, creds backend.Credentials) (credential.Session, error)
	Register(ctx context.Context, in backend.Registration) (credential.Session, error)
	Logout(ctx context.Context) error
}

// Synchronizer reconciles the credential store with the backend at page
// load, at OAuth callback arrival and after an explicit login.
type Synchronizer struct {
	store   Store
	api     Backend
	session kv.Store
	state   *state.Value[State]
	rules   guard.Rules
	logger  *slog.Logger
	now     func() time.Time

	callbackTimeout time.Duration
	settleDelay     time.Duration
	oauthPath       string
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRules sets the navigation rules used to build redirects.
func WithRules(r guard.Rules) Option {
	return func(s *Synchronizer) { s.rules = r }
}

// WithCallbackTimeout bounds HandleCallback.
func WithCallbackTimeout(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.callbackTimeout = d
		}
	}
}

// WithSettleDelay sets the wait before re-checking a fresh session.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d >= 0 {
			s.settleDelay = d
		}
	}
}

// WithOAuthPath sets the OAuth initiation path returned by BeginOAuth.
func WithOAuthPath(p string) Option {
	return func(s *Synchronizer) {
		if p != "" {
			s.oauthPath = p
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a synchronizer. session is the per-tab scratch storage that
// survives the OAuth redirect.
func New(store Store, api Backend, session kv.Store, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:           store,
		api:             api,
		session:         session,
		state:           state.NewValue(State{Status: StatusUnknown}),
		rules:           guard.DefaultRules(),
		logger:          logger.Discard(),
		now:             time.Now,
		callbackTimeout: DefaultCallbackTimeout,
		settleDelay:     DefaultSettleDelay,
		oauthPath:       DefaultOAuthPath,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("authsync"))
	return s
}

// State returns the current state.
func (s *Synchronizer) State() State {
	return s.state.Get()
}

// Value exposes the reactive state for subscribers.
func (s *Synchronizer) Value() *state.Value[State] {
	return s.state
}

// Load is the page-load trigger. With a stored token the state becomes
// authenticated at once and the returned future validates the token against
// the backend. A rejected token clears the store; any other failure keeps
// the session and is only logged.
func (s *Synchronizer) Load(ctx context.Context) *async.ExecFuture {
	if s.State().Status == StatusReset {
		return async.Completed(nil)
	}

	sess, err := s.store.Get(ctx)
	if err != nil {
		if !errors.Is(err, credential.ErrUnauthenticated) {
			s.logger.WarnContext(ctx, "credential read failed", logger.Error(err))
		}
		s.transition(StatusUnauthenticated, credential.User{}, "")
		return async.Completed(nil)
	}

	s.transition(StatusAuthenticated, sess.User, "")
	return async.Exec(ctx, sess, s.validate)
}

func (s *Synchronizer) validate(ctx context.Context, sess credential.Session) error {
	user, err := s.api.Me(ctx)
	if err != nil {
		if backend.IsUnauthorized(err) {
			s.logger.InfoContext(ctx, "stored session rejected", logger.Error(err))
			if cerr := s.store.Clear(ctx); cerr != nil {
				s.logger.WarnContext(ctx, "failed to clear rejected session", logger.Error(cerr))
			}
			s.transition(StatusUnauthenticated, credential.User{}, "")
			return fmt.Errorf("%w: %w", ErrSessionRejected, err)
		}
		s.logger.WarnContext(ctx, "session validation failed, keeping session", logger.Error(err))
		return fmt.Errorf("validate session: %w", err)
	}

	if !user.IsZero() && user != sess.User {
		if err := s.store.Set(ctx, credential.Session{Token: sess.Token, User: user}); err != nil {
			s.logger.WarnContext(ctx, "failed to refresh user snapshot", logger.Error(err))
		}
	}
	if user.IsZero() {
		user = sess.User
	}
	s.transition(StatusAuthenticated, user, "")
	return nil
}

// Logout clears the session locally. The backend call is best effort.
func (s *Synchronizer) Logout(ctx context.Context) error {
	if err := s.api.Logout(ctx); err != nil {
		s.logger.WarnContext(ctx, "backend logout failed", logger.Error(err))
	}
	err := s.store.Clear(ctx)
	if derr := s.session.Delete(ctx, RedirectKey); derr != nil {
		err = errors.Join(err, derr)
	}
	s.state.Set(State{Status: StatusUnauthenticated})
	s.logger.InfoContext(ctx, "logged out", logger.Event("logout"))
	return err
}

// Reset is the terminal transition after an unexpected failure: every
// credential location and the session storage are wiped. It returns the
// login path to navigate to.
func (s *Synchronizer) Reset(ctx context.Context) string {
	if err := s.store.Clear(ctx); err != nil {
		s.logger.ErrorContext(ctx, "reset: clearing credentials failed", logger.Error(err))
	}
	for _, key := range []string{RedirectKey, ErrorKey} {
		if err := s.session.Delete(ctx, key); err != nil {
			s.logger.ErrorContext(ctx, "reset: clearing session storage failed", logger.Key("session_key", key), logger.Error(err))
		}
	}
	s.state.Set(State{Status: StatusReset})
	s.logger.WarnContext(ctx, "state reset", logger.Event("reset"))
	return s.rules.LoginPath
}

// Guard runs fn and turns a panic into Reset. The returned redirect is
// empty when fn completed normally.
func (s *Synchronizer) Guard(ctx context.Context, fn func(ctx context.Context) error) (redirect string, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "recovered from panic", logger.Key("panic", r))
			redirect = s.Reset(ctx)
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return "", fn(ctx)
}

// BeginOAuth remembers where to return after the OAuth hop and returns the
// path that starts it.
func (s *Synchronizer) BeginOAuth(ctx context.Context, returnTo string) (string, error) {
	dest := guard.SafeCallback(returnTo, s.rules.RootPath)
	if err := s.session.Set(ctx, RedirectKey, []byte(dest), redirectTTL); err != nil {
		return "", fmt.Errorf("store login redirect: %w", err)
	}
	return s.oauthPath, nil
}

// TakeError returns and removes the failure left by the last attempt.
func (s *Synchronizer) TakeError(ctx context.Context) (ErrorRecord, bool) {
	raw, ok, err := s.session.Get(ctx, ErrorKey)
	if err != nil || !ok {
		return ErrorRecord{}, false
	}
	if err := s.session.Delete(ctx, ErrorKey); err != nil {
		s.logger.WarnContext(ctx, "failed to consume error record", logger.Error(err))
	}

	var rec ErrorRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return ErrorRecord{}, false
	}
	return rec, true
}

// fail logs err, leaves an ErrorRecord for the next view and returns the
// login redirect. It never fails itself.
func (s *Synchronizer) fail(ctx context.Context, where, message string, err error) string {
	s.logger.ErrorContext(ctx, "authentication failed",
		logger.Action(where),
		logger.Result("failure"),
		logger.Error(err),
	)

	rec := ErrorRecord{Message: message, Timestamp: s.now(), Context: where}
	if raw, merr := json.Marshal(rec); merr == nil {
		if serr := s.session.Set(context.WithoutCancel(ctx), ErrorKey, raw, errorTTL); serr != nil {
			s.logger.WarnContext(ctx, "failed to store error record", logger.Error(serr))
		}
	}

	s.state.Set(State{Status: StatusFailed, Error: message})
	return s.rules.LoginErrorRedirect(message)
}

// takeRedirect consumes the stored post-login destination.
func (s *Synchronizer) takeRedirect(ctx context.Context) string {
	raw, ok, err := s.session.Get(ctx, RedirectKey)
	if err != nil || !ok {
		return s.rules.RootPath
	}
	if err := s.session.Delete(ctx, RedirectKey); err != nil {
		s.logger.WarnContext(ctx, "failed to consume login redirect", logger.Error(err))
	}
	return guard.SafeCallback(string(raw), s.rules.RootPath)
}

// transition moves to next unless the machine sits in the terminal reset
// state, which only an explicit login leaves.
func (s *Synchronizer) transition(next Status, user credential.User, msg string) {
	s.state.Update(func(cur State) State {
		if cur.Status == StatusReset {
			return cur
		}
		return State{Status: next, User: user, Error: msg}
	})
}
