package authsync

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/dmitrymomot/socialsync/core/credential"
	"github.com/dmitrymomot/socialsync/core/logger"
	"github.com/dmitrymomot/socialsync/integration/backend"
	"github.com/dmitrymomot/socialsync/pkg/async"
)

// failure carries the message shown to the user next to the error logged.
type failure struct {
	message string
	err     error
}

func (f *failure) Error() string { return f.err.Error() }
func (f *failure) Unwrap() error { return f.err }

// callbackGate settles one callback exactly once: either the confirmation
// commits the session or the caller abandons it on timeout.
type callbackGate struct {
	mu        sync.Mutex
	abandoned bool
	committed bool
	dest      string
}

// commit runs fn unless the callback was abandoned.
func (g *callbackGate) commit(fn func() string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.abandoned {
		return "", false
	}
	g.dest, g.committed = fn(), true
	return g.dest, true
}

// abandon stops any later commit. It reports the destination when the
// confirmation won the race.
func (g *callbackGate) abandon() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.committed {
		g.abandoned = true
	}
	return g.dest, g.committed
}

// HandleCallback is the OAuth callback trigger. query is the callback URL's
// query: success, token, userId, username, email, profilePicture, or error.
//
// It always returns a redirect within the callback timeout: the stored
// post-login destination (or root) with the success marker, or the login
// view carrying the error message. A confirmation still running when the
// timeout fires can no longer authenticate: its session is discarded.
func (s *Synchronizer) HandleCallback(ctx context.Context, query url.Values) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callbackTimeout)
	defer cancel()

	gate := &callbackGate{}
	confirm := func(ctx context.Context, q url.Values) (string, error) {
		return s.confirmCallback(ctx, q, gate)
	}
	dest, err := async.Async(ctx, query, confirm).AwaitContext(ctx)
	if err == nil {
		s.logger.InfoContext(ctx, "oauth callback completed", logger.Redirect(dest))
		return dest, nil
	}
	if ctx.Err() != nil {
		if dest, ok := gate.abandon(); ok {
			s.logger.InfoContext(ctx, "oauth callback completed", logger.Redirect(dest))
			return dest, nil
		}
		if cerr := s.store.Clear(context.WithoutCancel(ctx)); cerr != nil {
			s.logger.WarnContext(ctx, "failed to clear abandoned session", logger.Error(cerr))
		}
	}

	msg := "Authentication failed. Please try again."
	var f *failure
	switch {
	case errors.As(err, &f):
		msg = f.message
	case errors.Is(err, context.DeadlineExceeded):
		msg = "Authentication timed out. Please try again."
		err = fmt.Errorf("%w: %w", ErrCallbackTimeout, err)
	}
	return s.fail(ctx, "oauth_callback", msg, err), err
}

func (s *Synchronizer) confirmCallback(ctx context.Context, q url.Values, gate *callbackGate) (string, error) {
	token := strings.TrimSpace(q.Get("token"))
	if q.Get("success") != "true" || token == "" {
		msg := firstNonEmpty(q.Get("error"), q.Get("message"), "Authentication failed: no token received.")
		return "", &failure{message: msg, err: fmt.Errorf("%w: %s", ErrMalformedCallback, msg)}
	}

	sess := credential.Session{
		Token: token,
		User: credential.User{
			ID:             q.Get("userId"),
			Username:       q.Get("username"),
			Email:          q.Get("email"),
			ProfilePicture: q.Get("profilePicture"),
		},
	}
	if err := s.store.Set(ctx, sess); err != nil {
		s.logger.WarnContext(ctx, "credential write incomplete", logger.Error(err))
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		if cerr := s.store.Clear(context.WithoutCancel(ctx)); cerr != nil {
			s.logger.WarnContext(ctx, "failed to clear unconfirmed session", logger.Error(cerr))
		}
		return "", &failure{
			message: backend.Message(err, "Could not verify your session. Please sign in again."),
			err:     fmt.Errorf("confirm session: %w", err),
		}
	}
	if !user.IsZero() {
		sess.User = user
	}

	// The caller may have given up while Me was in flight.
	settle := context.WithoutCancel(ctx)
	dest, committed := gate.commit(func() string {
		if err := s.store.Set(settle, sess); err != nil {
			s.logger.WarnContext(ctx, "failed to refresh user snapshot", logger.Error(err))
		}
		s.state.Set(State{Status: StatusAuthenticated, User: sess.User})
		return s.rules.SuccessRedirect(s.takeRedirect(settle))
	})
	if !committed {
		if err := s.store.Clear(settle); err != nil {
			s.logger.WarnContext(ctx, "failed to clear abandoned session", logger.Error(err))
		}
		return "", fmt.Errorf("%w: confirmation finished after timeout", ErrCallbackTimeout)
	}
	return dest, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
