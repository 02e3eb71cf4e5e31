package authsync_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/socialsync/core/authsync"
	"github.com/dmitrymomot/socialsync/core/credential"
	"github.com/dmitrymomot/socialsync/core/logger"
	"github.com/dmitrymomot/socialsync/integration/backend"
	"github.com/dmitrymomot/socialsync/pkg/kv"
)

type fakeAPI struct {
	me       func(ctx context.Context) (credential.User, error)
	login    func(ctx context.Context, c backend.Credentials) (credential.Session, error)
	register func(ctx context.Context, r backend.Registration) (credential.Session, error)
	logouts  int
}

func (f *fakeAPI) Me(ctx context.Context) (credential.User, error) {
	if f.me == nil {
		return credential.User{}, nil
	}
	return f.me(ctx)
}

func (f *fakeAPI) Login(ctx context.Context, c backend.Credentials) (credential.Session, error) {
	return f.login(ctx, c)
}

func (f *fakeAPI) Register(ctx context.Context, r backend.Registration) (credential.Session, error) {
	return f.register(ctx, r)
}

func (f *fakeAPI) Logout(context.Context) error {
	f.logouts++
	return errors.New("offline")
}

type fixture struct {
	api     *fakeAPI
	memory  *credential.Memory
	durable kv.Store
	session *kv.Memory
	store   *credential.Store
	sync    *authsync.Synchronizer
}

func newFixture(t *testing.T, opts ...authsync.Option) *fixture {
	t.Helper()
	f := &fixture{
		api:     &fakeAPI{},
		memory:  credential.NewMemory(),
		durable: kv.NewMemory(),
		session: kv.NewMemory(),
	}
	f.store = credential.NewStore([]credential.Location{f.memory, credential.NewDurable(f.durable)})
	opts = append([]authsync.Option{authsync.WithSettleDelay(0)}, opts...)
	f.sync = authsync.New(f.store, f.api, f.session, opts...)
	return f
}

var bob = credential.Session{
	Token: "tok-bob",
	User:  credential.User{ID: "u2", Username: "bob", Email: "bob@example.com"},
}

var unauthorized = &backend.APIError{Status: http.StatusUnauthorized, Message: "Invalid token"}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("no token", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		require.NoError(t, f.sync.Load(context.Background()).Await())
		assert.Equal(t, authsync.StatusUnauthenticated, f.sync.State().Status)
	})

	t.Run("valid token refreshes user", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		require.NoError(t, f.store.Set(ctx, bob))

		release := make(chan struct{})
		f.api.me = func(context.Context) (credential.User, error) {
			<-release
			return credential.User{ID: "u2", Username: "bobby", Email: "bob@example.com"}, nil
		}

		fut := f.sync.Load(ctx)
		assert.Equal(t, authsync.StatusAuthenticated, f.sync.State().Status, "optimistic before validation")
		close(release)
		require.NoError(t, fut.Await())

		assert.Equal(t, "bobby", f.sync.State().User.Username)
		got, err := f.store.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "bobby", got.User.Username)
	})

	t.Run("rejected token clears store", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		require.NoError(t, f.store.Set(ctx, bob))
		f.api.me = func(context.Context) (credential.User, error) { return credential.User{}, unauthorized }

		err := f.sync.Load(ctx).Await()
		require.ErrorIs(t, err, authsync.ErrSessionRejected)
		assert.Equal(t, authsync.StatusUnauthenticated, f.sync.State().Status)
		_, err = f.store.Get(ctx)
		assert.ErrorIs(t, err, credential.ErrUnauthenticated)
	})

	t.Run("network failure keeps session", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		require.NoError(t, f.store.Set(ctx, bob))
		f.api.me = func(context.Context) (credential.User, error) {
			return credential.User{}, backend.ErrRequestFailed
		}

		require.Error(t, f.sync.Load(ctx).Await())
		assert.Equal(t, authsync.StatusAuthenticated, f.sync.State().Status)
		got, err := f.store.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, bob.Token, got.Token)
	})
}

func callbackQuery() url.Values {
	return url.Values{
		"success":  {"true"},
		"token":    {"tok-oauth"},
		"userId":   {"u3"},
		"username": {"carol"},
		"email":    {"carol@example.com"},
	}
}

func TestHandleCallback(t *testing.T) {
	t.Parallel()

	t.Run("success returns to stored destination", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		f.api.me = func(context.Context) (credential.User, error) {
			return credential.User{ID: "u3", Username: "carol", Email: "carol@example.com"}, nil
		}

		start, err := f.sync.BeginOAuth(ctx, "/friends-list")
		require.NoError(t, err)
		assert.Equal(t, authsync.DefaultOAuthPath, start)

		dest, err := f.sync.HandleCallback(ctx, callbackQuery())
		require.NoError(t, err)
		assert.Equal(t, "/friends-list?auth=success", dest)
		assert.Equal(t, authsync.StatusAuthenticated, f.sync.State().Status)

		got, err := f.store.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tok-oauth", got.Token)
		assert.Equal(t, "u3", got.User.ID)

		_, ok, _ := f.session.Get(ctx, authsync.RedirectKey)
		assert.False(t, ok, "destination is consumed")
	})

	t.Run("defaults to root", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		dest, err := f.sync.HandleCallback(context.Background(), callbackQuery())
		require.NoError(t, err)
		assert.Equal(t, "/?auth=success", dest)
	})

	t.Run("missing success flag", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		q := callbackQuery()
		q.Del("success")
		q.Set("error", "Access denied")

		start := time.Now()
		dest, err := f.sync.HandleCallback(ctx, q)
		require.ErrorIs(t, err, authsync.ErrMalformedCallback)
		assert.Less(t, time.Since(start), authsync.DefaultCallbackTimeout)

		u, perr := url.Parse(dest)
		require.NoError(t, perr)
		assert.Equal(t, "/user-login", u.Path)
		assert.Equal(t, "Access denied", u.Query().Get("error"))

		st := f.sync.State()
		assert.Equal(t, authsync.StatusFailed, st.Status)
		assert.Equal(t, "Access denied", st.Error)

		_, err = f.store.Get(ctx)
		assert.ErrorIs(t, err, credential.ErrUnauthenticated)

		rec, ok := f.sync.TakeError(ctx)
		require.True(t, ok)
		assert.Equal(t, "Access denied", rec.Message)
		assert.Equal(t, "oauth_callback", rec.Context)
		assert.False(t, rec.Timestamp.IsZero())

		_, ok = f.sync.TakeError(ctx)
		assert.False(t, ok)
	})

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		q := callbackQuery()
		q.Del("token")
		dest, err := f.sync.HandleCallback(context.Background(), q)
		require.ErrorIs(t, err, authsync.ErrMalformedCallback)
		assert.Contains(t, dest, "/user-login?error=")
	})

	t.Run("backend rejects", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		f.api.me = func(context.Context) (credential.User, error) { return credential.User{}, unauthorized }

		dest, err := f.sync.HandleCallback(ctx, callbackQuery())
		require.Error(t, err)
		assert.Contains(t, dest, "error=Invalid+token")
		_, err = f.store.Get(ctx)
		assert.ErrorIs(t, err, credential.ErrUnauthenticated, "unconfirmed token is not kept")
	})

	t.Run("bounded by timeout", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, authsync.WithCallbackTimeout(30*time.Millisecond))
		block := make(chan struct{})
		t.Cleanup(func() { close(block) })
		f.api.me = func(context.Context) (credential.User, error) {
			<-block
			return credential.User{}, nil
		}

		done := make(chan struct{})
		var (
			dest string
			err  error
		)
		go func() {
			defer close(done)
			dest, err = f.sync.HandleCallback(context.Background(), callbackQuery())
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("callback hung")
		}
		require.ErrorIs(t, err, authsync.ErrCallbackTimeout)
		assert.Contains(t, dest, "/user-login?error=")
		assert.Equal(t, authsync.StatusFailed, f.sync.State().Status)
	})
	t.Run("late confirmation does not authenticate", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, authsync.WithCallbackTimeout(20*time.Millisecond))
		ctx := context.Background()
		var returned atomic.Bool
		f.api.me = func(context.Context) (credential.User, error) {
			time.Sleep(60 * time.Millisecond)
			returned.Store(true)
			return credential.User{ID: "u3", Username: "carol"}, nil
		}

		_, err := f.sync.BeginOAuth(ctx, "/friends-list")
		require.NoError(t, err)

		dest, err := f.sync.HandleCallback(ctx, callbackQuery())
		require.ErrorIs(t, err, authsync.ErrCallbackTimeout)
		assert.Contains(t, dest, "/user-login?error=Authentication+timed+out")

		require.Eventually(t, returned.Load, time.Second, 5*time.Millisecond)
		assert.Never(t, func() bool {
			return f.sync.State().Status != authsync.StatusFailed
		}, 100*time.Millisecond, 10*time.Millisecond)

		_, err = f.store.Get(ctx)
		assert.ErrorIs(t, err, credential.ErrUnauthenticated)
		_, ok, _ := f.session.Get(ctx, authsync.RedirectKey)
		assert.True(t, ok, "destination is kept for the next attempt")
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("returns sanitized destination", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ctx := context.Background()
		f.api.login = func(_ context.Context, c backend.Credentials) (credential.Session, error) {
			assert.Equal(t, "bob@example.com", c.Email)
			return bob, nil
		}

		dest, err := f.sync.Login(ctx, backend.Credentials{Email: "bob@example.com", Password: "pw"}, "/posts/1")
		require.NoError(t, err)
		assert.Equal(t, "/posts/1", dest)
		assert.True(t, f.sync.State().IsAuthenticated())

		dest, err = f.sync.Login(ctx, backend.Credentials{Email: "bob@example.com"}, "https://evil.example")
		require.NoError(t, err)
		assert.Equal(t, "/", dest)

		got, err := f.store.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, bob.Token, got.Token)
	})

	t.Run("waits for settle delay", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, authsync.WithSettleDelay(40*time.Millisecond))
		f.api.register = func(context.Context, backend.Registration) (credential.Session, error) { return bob, nil }

		start := time.Now()
		_, err := f.sync.Register(context.Background(), backend.Registration{Username: "bob"}, "")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	})

	t.Run("failure", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.api.login = func(context.Context, backend.Credentials) (credential.Session, error) {
			return credential.Session{}, &backend.APIError{Status: http.StatusUnauthorized, Message: "Invalid credentials"}
		}

		dest, err := f.sync.Login(context.Background(), backend.Credentials{}, "")
		require.Error(t, err)
		assert.Equal(t, "/user-login?error=Invalid+credentials", dest)
		assert.Equal(t, authsync.StatusFailed, f.sync.State().Status)
	})
}

func TestReset(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, bob))
	_, err := f.sync.BeginOAuth(ctx, "/x")
	require.NoError(t, err)

	redirect, err := f.sync.Guard(ctx, func(context.Context) error {
		panic("render exploded")
	})
	require.ErrorIs(t, err, authsync.ErrPanic)
	assert.Equal(t, "/user-login", redirect)
	assert.Equal(t, authsync.StatusReset, f.sync.State().Status)

	_, err = f.store.Get(ctx)
	assert.ErrorIs(t, err, credential.ErrUnauthenticated)
	_, ok, _ := f.durable.Get(ctx, "authToken")
	assert.False(t, ok)
	_, ok, _ = f.session.Get(ctx, authsync.RedirectKey)
	assert.False(t, ok)

	// reset is terminal until an explicit login
	require.NoError(t, f.store.Set(ctx, bob))
	require.NoError(t, f.sync.Load(ctx).Await())
	assert.Equal(t, authsync.StatusReset, f.sync.State().Status)

	f.api.login = func(context.Context, backend.Credentials) (credential.Session, error) { return bob, nil }
	_, err = f.sync.Login(ctx, backend.Credentials{}, "")
	require.NoError(t, err)
	assert.Equal(t, authsync.StatusAuthenticated, f.sync.State().Status)
}

func TestGuard_PassesThrough(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	boom := errors.New("boom")
	redirect, err := f.sync.Guard(context.Background(), func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, redirect)
}

func TestBeginOAuth_RejectsForeignDestination(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	_, err := f.sync.BeginOAuth(ctx, "//evil.example/x")
	require.NoError(t, err)

	raw, ok, err := f.session.Get(ctx, authsync.RedirectKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/", string(raw))
}

func TestLogout(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, bob))

	require.NoError(t, f.sync.Logout(ctx))
	assert.Equal(t, 1, f.api.logouts)
	assert.Equal(t, authsync.StatusUnauthenticated, f.sync.State().Status)
	_, err := f.store.Get(ctx)
	assert.ErrorIs(t, err, credential.ErrUnauthenticated)
}

type stuckSession struct {
	*kv.Memory
}

func (stuckSession) Delete(context.Context, string) error {
	return errors.New("storage locked")
}

func TestTakeError_LogsFailedDelete(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	session := stuckSession{kv.NewMemory()}
	store := credential.NewStore([]credential.Location{credential.NewMemory()})
	as := authsync.New(store, &fakeAPI{}, session,
		authsync.WithLogger(logger.New(logger.WithOutput(&buf), logger.WithJSONFormatter())))
	ctx := context.Background()

	q := callbackQuery()
	q.Del("success")
	_, err := as.HandleCallback(ctx, q)
	require.Error(t, err)

	rec, ok := as.TakeError(ctx)
	require.True(t, ok)
	assert.NotEmpty(t, rec.Message)
	assert.Contains(t, buf.String(), "failed to consume error record")
	assert.Contains(t, buf.String(), "storage locked")
}
