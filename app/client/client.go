package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/publicsuffix"

	"github.com/dmitrymomot/socialsync/core/authsync"
	"github.com/dmitrymomot/socialsync/core/cookie"
	"github.com/dmitrymomot/socialsync/core/credential"
	"github.com/dmitrymomot/socialsync/core/logger"
	"github.com/dmitrymomot/socialsync/core/optimistic"
	"github.com/dmitrymomot/socialsync/core/social"
	"github.com/dmitrymomot/socialsync/integration/backend"
	"github.com/dmitrymomot/socialsync/integration/database/redis"
	"github.com/dmitrymomot/socialsync/pkg/kv"
)

// App is one client context: the credential store, the auth synchronizer
// and the social service all share one cookie jar and one backend client.
type App struct {
	Credentials *credential.Store
	Memory      *credential.Memory
	Auth        *authsync.Synchronizer
	Backend     *backend.Client
	Social      *social.Service
	Jar         http.CookieJar

	origin  *url.URL
	logger  *slog.Logger
	closers []func() error
}

type options struct {
	logger    *slog.Logger
	durable   kv.Store
	session   kv.Store
	notifier  optimistic.Notifier
	transport http.RoundTripper
	observer  func(credential.Event)
}

// Option configures an App.
type Option func(*options)

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDurable sets the store behind the durable credential location.
func WithDurable(s kv.Store) Option {
	return func(o *options) { o.durable = s }
}

// WithSession sets the per-context scratch storage used across the OAuth
// redirect.
func WithSession(s kv.Store) Option {
	return func(o *options) { o.session = s }
}

// WithNotifier sets where failed mutations are reported.
func WithNotifier(n optimistic.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithTransport replaces the HTTP transport, mostly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithCredentialObserver receives every credential store mutation.
func WithCredentialObserver(fn func(credential.Event)) Option {
	return func(o *options) { o.observer = fn }
}

// New wires a client context. Durable and session storage default to
// in-memory stores; Open picks persistent ones from cfg.
func New(cfg Config, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	log := logger.OrDiscard(o.logger)
	if o.durable == nil {
		o.durable = kv.NewMemory()
	}
	if o.session == nil {
		o.session = kv.NewMemory()
	}
	if o.transport == nil {
		o.transport = otelhttp.NewTransport(http.DefaultTransport)
	}

	origin, err := url.Parse(backend.NormalizeBaseURL(cfg.Backend.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("client: backend url: %w", err)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	cookies, err := cookie.NewFromConfig(cfg.Cookie)
	if err != nil {
		return nil, fmt.Errorf("client: cookie policy: %w", err)
	}

	memory := credential.NewMemory()
	storeOpts := []credential.Option{credential.WithLogger(log)}
	if o.observer != nil {
		storeOpts = append(storeOpts, credential.WithObserver(o.observer))
	}
	store := credential.NewStore([]credential.Location{
		memory,
		credential.NewDurable(o.durable),
		credential.NewCookie(jar, origin, cookies, cookie.ParseTopology(cfg.Cookie.Topology)),
	}, storeOpts...)

	api := backend.NewFromConfig(cfg.Backend,
		backend.WithHTTPClient(&http.Client{Jar: jar, Timeout: cfg.Backend.Timeout, Transport: o.transport}),
		backend.WithTokenSource(store),
		backend.WithLogger(log),
	)

	auth := authsync.New(store, api, o.session,
		authsync.WithLogger(log),
		authsync.WithSettleDelay(cfg.SettleDelay),
		authsync.WithCallbackTimeout(cfg.CallbackTimeout),
	)

	a := &App{
		Credentials: store,
		Memory:      memory,
		Auth:        auth,
		Backend:     api,
		Jar:         jar,
		origin:      origin,
		logger:      log,
	}

	socialOpts := []social.Option{
		social.WithLogger(log),
		social.WithRefetchDelay(cfg.RefetchDelay),
		social.WithViewer(a.viewer),
	}
	if o.notifier != nil {
		socialOpts = append(socialOpts, social.WithNotifier(o.notifier))
	}
	a.Social = social.NewService(api, social.NewFeed(), store, socialOpts...)
	return a, nil
}

// Open is New with persistent storage: redis when REDIS_URL is set,
// otherwise two JSON files under cfg.StateDir.
func Open(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	var closers []func() error

	if cfg.Redis.Enabled() {
		rc, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		prefix := cfg.Redis.KeyPrefix + "client:"
		opts = append([]Option{
			WithDurable(redis.NewStore(rc, prefix+"durable:")),
			WithSession(redis.NewStore(rc, prefix+"session:")),
		}, opts...)
		closers = append(closers, rc.Close)
	} else {
		dir, err := stateDir(cfg.StateDir)
		if err != nil {
			return nil, err
		}
		opts = append([]Option{
			WithDurable(kv.NewFile(filepath.Join(dir, "durable.json"))),
			WithSession(kv.NewFile(filepath.Join(dir, "session.json"))),
		}, opts...)
	}

	a, err := New(cfg, opts...)
	if err != nil {
		for _, c := range closers {
			_ = c()
		}
		return nil, err
	}
	a.closers = closers
	return a, nil
}

func stateDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("client: state dir: %w", err)
	}
	return filepath.Join(base, "socialsync"), nil
}

// Start runs the page-load trigger and waits for the token validation.
func (a *App) Start(ctx context.Context) error {
	return a.Auth.Load(ctx).AwaitContext(ctx)
}

// Origin returns the backend origin the jar is bound to.
func (a *App) Origin() *url.URL {
	return a.origin
}

// Close stops background re-fetches and releases storage connections.
func (a *App) Close() error {
	a.Social.Close()
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func (a *App) viewer(ctx context.Context) social.Author {
	sess, err := a.Credentials.Get(ctx)
	if err != nil {
		return social.Author{}
	}
	return social.Author{
		ID:             sess.User.ID,
		Username:       sess.User.Username,
		ProfilePicture: sess.User.ProfilePicture,
	}
}
