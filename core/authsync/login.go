package authsync

import (
	"context"
	"time"

	"github.com/dmitrymomot/socialsync/core/credential"
	"github.com/dmitrymomot/socialsync/core/guard"
	"github.com/dmitrymomot/socialsync/core/logger"
	"github.com/dmitrymomot/socialsync/integration/backend"
)

// Login is the explicit login trigger. It returns where to navigate: the
// sanitized returnTo, the destination stored before an OAuth attempt, or
// root. On failure it returns the login redirect carrying the message.
func (s *Synchronizer) Login(ctx context.Context, creds backend.Credentials, returnTo string) (string, error) {
	sess, err := s.api.Login(ctx, creds)
	if err != nil {
		return s.fail(ctx, "login", backend.Message(err, "Login failed. Please try again."), err), err
	}
	return s.establish(ctx, "login", sess, returnTo), nil
}

// Register is the explicit registration trigger. It behaves like Login.
func (s *Synchronizer) Register(ctx context.Context, in backend.Registration, returnTo string) (string, error) {
	sess, err := s.api.Register(ctx, in)
	if err != nil {
		return s.fail(ctx, "register", backend.Message(err, "Registration failed. Please try again."), err), err
	}
	return s.establish(ctx, "register", sess, returnTo), nil
}

// establish stores sess, waits the settle delay and re-checks the store.
// Navigation proceeds even when the re-check fails.
func (s *Synchronizer) establish(ctx context.Context, action string, sess credential.Session, returnTo string) string {
	if err := s.store.Set(ctx, sess); err != nil {
		s.logger.WarnContext(ctx, "credential write incomplete", logger.Action(action), logger.Error(err))
	}
	s.state.Set(State{Status: StatusAuthenticated, User: sess.User})

	if s.settleDelay > 0 {
		t := time.NewTimer(s.settleDelay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}
	if _, err := s.store.Get(context.WithoutCancel(ctx)); err != nil {
		s.logger.WarnContext(ctx, "session not visible after settle delay, navigating anyway",
			logger.Action(action), logger.Error(err))
	}

	dest := guard.SafeCallback(returnTo, "")
	if dest == "" {
		dest = s.takeRedirect(ctx)
	}
	s.logger.InfoContext(ctx, "signed in", logger.Action(action), logger.UserID(sess.User.ID), logger.Redirect(dest))
	return dest
}
