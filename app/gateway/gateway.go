package gateway

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/socialsync/core/cookie"
	"github.com/dmitrymomot/socialsync/core/guard"
	"github.com/dmitrymomot/socialsync/core/health"
	"github.com/dmitrymomot/socialsync/core/logger"
	"github.com/dmitrymomot/socialsync/core/relay"
	"github.com/dmitrymomot/socialsync/core/static"
	"github.com/dmitrymomot/socialsync/middleware"
	"github.com/dmitrymomot/socialsync/pkg/telemetry"
)

// statePurpose separates the OAuth state signing key from other uses of
// COOKIE_SECRETS.
const statePurpose = "oauth-state"

//go:embed web
var placeholder embed.FS

// Gateway serves the front-end bundle behind the route guard, the OAuth
// relay legs and the API proxy on one origin.
type Gateway struct {
	cfg      Config
	log      *slog.Logger
	rules    guard.Rules
	registry *prometheus.Registry
	states   relay.StateStore
	bundle   fs.FS
	tel      *telemetry.Provider
	client   *http.Client
	checks   []health.Check

	metrics   *relay.Metrics
	decisions *prometheus.CounterVec
	relay     *relay.Relay
	proxy     *httputil.ReverseProxy
	spa       http.Handler
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.log = l
		}
	}
}

// WithRules replaces the navigation rules.
func WithRules(rules guard.Rules) Option {
	return func(g *Gateway) { g.rules = rules }
}

// WithRegistry sets the registry exposed at /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(g *Gateway) { g.registry = reg }
}

// WithStateStore shares OAuth state between replicas.
func WithStateStore(s relay.StateStore) Option {
	return func(g *Gateway) { g.states = s }
}

// WithBundle serves fsys instead of STATIC_DIR.
func WithBundle(fsys fs.FS) Option {
	return func(g *Gateway) { g.bundle = fsys }
}

// WithTelemetry sets the tracing provider.
func WithTelemetry(p *telemetry.Provider) Option {
	return func(g *Gateway) { g.tel = p }
}

// WithReadinessCheck adds a dependency probe to /readyz.
func WithReadinessCheck(name string, check health.Check) Option {
	return func(g *Gateway) {
		if check != nil {
			g.checks = append(g.checks, health.Named(name, check))
		}
	}
}

// New wires the gateway from cfg.
func New(cfg Config, opts ...Option) (*Gateway, error) {
	g := &Gateway{
		cfg:   cfg,
		log:   logger.Discard(),
		rules: guard.DefaultRules(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.registry == nil {
		g.registry = prometheus.NewRegistry()
		g.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	g.metrics = relay.NewMetrics(g.registry)
	g.decisions = promauto.With(g.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "socialsync",
		Subsystem: "guard",
		Name:      "decisions_total",
		Help:      "Route guard decisions, by reason.",
	}, []string{"reason"})

	if g.tel == nil {
		tel, err := telemetry.Init(context.Background(), telemetry.Config{ServiceName: "socialsync-gateway"})
		if err != nil {
			return nil, err
		}
		g.tel = tel
	}
	g.client = &http.Client{Transport: g.tel.Transport(nil)}

	stateCookies, err := g.stateCookies()
	if err != nil {
		return nil, err
	}

	relayOpts := append(cfg.Relay.Options(),
		relay.WithStateStore(g.states),
		relay.WithHTTPClient(g.client),
		relay.WithRules(g.rules),
		relay.WithMetrics(g.metrics),
		relay.WithLogger(g.log),
	)
	if g.relay, err = relay.New(cfg.Relay.BackendURL, stateCookies, relayOpts...); err != nil {
		return nil, fmt.Errorf("gateway: relay: %w", err)
	}

	if g.proxy, err = relay.NewProxy(cfg.Relay.BackendURL, g.metrics, g.log); err != nil {
		return nil, fmt.Errorf("gateway: proxy: %w", err)
	}
	g.proxy.Transport = g.tel.Transport(nil)

	if g.spa, err = g.bundleHandler(); err != nil {
		return nil, err
	}

	if cfg.HealthPath != "" {
		g.checks = append(g.checks, health.Named("backend",
			health.Reachable(g.client, g.relay.Backend()+cfg.HealthPath)))
	}
	return g, nil
}

func (g *Gateway) stateCookies() (*cookie.Manager, error) {
	secrets := g.cfg.Cookie.SecretList()
	if len(secrets) == 0 {
		if g.cfg.Relay.VerifyState {
			return nil, ErrNoStateSecret
		}
		return nil, nil
	}
	derived, err := cookie.DeriveSecrets(secrets, statePurpose)
	if err != nil {
		return nil, err
	}
	secure := g.cfg.Cookie.Secure || strings.HasPrefix(g.cfg.Relay.FrontendURL, "https://")
	return cookie.New(derived, cookie.WithSecure(secure))
}

func (g *Gateway) bundleHandler() (http.Handler, error) {
	bundle := g.bundle
	if bundle == nil && g.cfg.StaticDir != "" {
		bundle = os.DirFS(g.cfg.StaticDir)
	}
	if bundle == nil {
		sub, err := fs.Sub(placeholder, "web")
		if err != nil {
			return nil, err
		}
		bundle = sub
	}
	h, err := static.SPA(bundle)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBundle, err)
	}
	return h, nil
}

// Handler returns the gateway's router.
func (g *Gateway) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{UseExisting: true}))
	r.Use(chimw.RealIP)
	r.Use(g.tel.Middleware)
	r.Use(middleware.LoggingWithConfig(middleware.LoggingConfig{
		Logger: g.log,
		Skip:   isProbe,
	}))
	r.Use(middleware.ResetOnPanic(g.rules, g.log))
	if len(g.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   g.cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           int((10 * time.Minute).Seconds()),
		}))
	}

	r.Get("/healthz", health.Liveness)
	r.Get("/readyz", health.Readiness(g.log, g.checks...))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(g.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		if g.cfg.AuthRateLimit > 0 {
			r.Use(httprate.LimitByIP(g.cfg.AuthRateLimit, time.Minute))
		}
		g.relay.Register(r)
	})
	r.Handle("/api/*", g.proxy)

	security := middleware.GatewaySecurity
	if g.cfg.Logger.Debug {
		security = middleware.DevelopmentSecurity
	}
	r.Group(func(r chi.Router) {
		r.Use(middleware.SecurityHeadersWithConfig(security))
		r.Use(middleware.GuardWithConfig(middleware.GuardConfig{
			Rules:  &g.rules,
			Logger: g.log,
			OnDecision: func(_ *http.Request, d guard.Decision) {
				g.decisions.WithLabelValues(string(d.Reason)).Inc()
			},
		}))
		r.Handle("/*", g.spa)
	})

	return r
}

// Backend returns the normalized backend origin.
func (g *Gateway) Backend() string {
	return g.relay.Backend()
}

func isProbe(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/readyz", "/metrics":
		return true
	}
	return false
}
