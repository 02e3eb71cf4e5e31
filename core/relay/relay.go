package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/socialsync/core/cookie"
	"github.com/dmitrymomot/socialsync/core/guard"
	"github.com/dmitrymomot/socialsync/core/logger"
	"github.com/dmitrymomot/socialsync/integration/backend"
)

const (
	// DefaultSource tags redirects issued by this relay.
	DefaultSource = "frontend-proxy"
	// DefaultTimeout bounds the upstream callback request.
	DefaultTimeout = 15 * time.Second
	// DefaultStateTTL is how long an issued state stays valid.
	DefaultStateTTL = 10 * time.Minute
	// StateCookie holds the signed nonce of the flow in progress.
	StateCookie = "__oauth_state"

	initiatePath = "/api/auth/google"
	callbackPath = "/api/auth/google/callback"
)

// forwarded are the request headers passed to the backend callback.
var forwarded = []string{"Cookie", "X-Forwarded-For", "X-Real-IP", "User-Agent", "Origin", "Referer"}

// Relay implements both legs of the OAuth redirect hop on the serving origin.
type Relay struct {
	backend string
	origin  string
	source  string
	timeout time.Duration
	ttl     time.Duration
	verify  bool

	client  *http.Client
	cookies *cookie.Manager
	states  StateStore
	rules   guard.Rules
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Relay.
type Option func(*Relay)

// WithOrigin sets the frontend origin written into the state blob. By
// default it is derived from the request.
func WithOrigin(origin string) Option {
	return func(r *Relay) { r.origin = origin }
}

// WithSource sets the tag appended to relayed redirects.
func WithSource(source string) Option {
	return func(r *Relay) {
		if source != "" {
			r.source = source
		}
	}
}

// WithTimeout bounds the upstream callback request.
func WithTimeout(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithStateTTL sets how long an issued state stays valid.
func WithStateTTL(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.ttl = d
		}
	}
}

// WithStateVerification toggles the callback state check.
func WithStateVerification(on bool) Option {
	return func(r *Relay) { r.verify = on }
}

// WithStateStore sets where issued nonces are kept.
func WithStateStore(s StateStore) Option {
	return func(r *Relay) {
		if s != nil {
			r.states = s
		}
	}
}

// WithHTTPClient sets the client used for the upstream callback. Its
// redirect policy is replaced: the relay never follows redirects.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Relay) {
		if c != nil {
			r.client = c
		}
	}
}

// WithRules sets the navigation rules used for the login redirect.
func WithRules(rules guard.Rules) Option {
	return func(r *Relay) { r.rules = rules }
}

// WithMetrics sets the counters.
func WithMetrics(m *Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates a relay for backendURL. A blank URL falls back to
// backend.DefaultBaseURL. cookies signs the state cookie and must carry a
// secret when verification is on.
func New(backendURL string, cookies *cookie.Manager, opts ...Option) (*Relay, error) {
	r := &Relay{
		backend: backend.NormalizeBaseURL(backendURL),
		source:  DefaultSource,
		timeout: DefaultTimeout,
		ttl:     DefaultStateTTL,
		verify:  true,
		client:  &http.Client{},
		cookies: cookies,
		rules:   guard.DefaultRules(),
		logger:  logger.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.states == nil {
		r.states = NewMemoryStateStore()
	}
	if r.verify {
		if cookies == nil {
			return nil, ErrNoSecret
		}
		if _, err := cookies.Sign("probe"); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoSecret, err)
		}
	}

	client := *r.client
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	r.client = &client
	r.logger = r.logger.With(logger.Component("relay"))
	return r, nil
}

// Backend returns the normalized backend origin.
func (rl *Relay) Backend() string {
	return rl.backend
}

// Register mounts both legs on mux.
func (rl *Relay) Register(mux interface {
	Handle(pattern string, h http.Handler)
}) {
	mux.Handle(initiatePath, http.HandlerFunc(rl.Initiate))
	mux.Handle(callbackPath, http.HandlerFunc(rl.Callback))
}

// Initiate starts the OAuth hop: it issues a state and redirects the
// browser to the backend's initiation endpoint.
func (rl *Relay) Initiate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := State{
		Origin:    rl.originOf(r),
		Timestamp: rl.now().UnixMilli(),
		Source:    rl.source,
		Referrer:  r.Referer(),
		Nonce:     uuid.NewString(),
	}
	blob, err := st.Encode()
	if err != nil {
		rl.toLogin(w, r, "Could not start sign-in.", err)
		return
	}

	if rl.verify {
		if err := rl.states.Put(ctx, st.Nonce, rl.ttl); err != nil {
			rl.toLogin(w, r, "Could not start sign-in.", err)
			return
		}
		err := rl.cookies.SetSigned(w, StateCookie, st.Nonce,
			cookie.WithPath("/"),
			cookie.WithMaxAge(int(rl.ttl.Seconds())),
			cookie.WithHTTPOnly(true),
			cookie.WithSameSite(http.SameSiteLaxMode),
		)
		if err != nil {
			rl.toLogin(w, r, "Could not start sign-in.", err)
			return
		}
	}

	rl.metrics.initiated()
	rl.logger.InfoContext(ctx, "oauth initiated", logger.ClientIP(r.RemoteAddr))
	http.Redirect(w, r, rl.backend+initiatePath+"?state="+url.QueryEscape(blob), http.StatusFound)
}

// Callback forwards the provider's return to the backend and relays the
// backend's answer. Redirects are re-issued with source and ts appended.
// Failures of any kind end on the login view with an error message.
func (rl *Relay) Callback(w http.ResponseWriter, r *http.Request) {
	if rl.verify {
		rl.cookies.Delete(w, StateCookie)
		if err := rl.checkState(r); err != nil {
			rl.metrics.callback(ResultInvalidState)
			rl.toLogin(w, r, "Sign-in could not be verified. Please try again.", err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), rl.timeout)
	defer cancel()

	target := rl.backend + callbackPath
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		rl.metrics.callback(ResultError)
		rl.toLogin(w, r, "Authentication failed.", err)
		return
	}
	for _, h := range forwarded {
		if v := r.Header.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}

	resp, err := rl.client.Do(req)
	if err != nil {
		msg, result := "Authentication failed. Please try again.", ResultError
		if errors.Is(err, context.DeadlineExceeded) {
			msg, result = "Authentication timed out. Please try again.", ResultTimeout
		}
		rl.metrics.callback(result)
		rl.toLogin(w, r, msg, err)
		return
	}
	defer resp.Body.Close()

	rl.metrics.cookies(cookie.RewriteSetCookies(resp.Header))
	for _, c := range resp.Header.Values("Set-Cookie") {
		w.Header().Add("Set-Cookie", c)
	}

	if loc := resp.Header.Get("Location"); loc != "" && isRedirect(resp.StatusCode) {
		dest, err := rl.tag(loc)
		if err != nil {
			rl.metrics.callback(ResultError)
			rl.toLogin(w, r, "Authentication failed.", err)
			return
		}
		rl.metrics.callback(ResultRedirect)
		rl.logger.InfoContext(ctx, "oauth callback relayed", logger.StatusCode(resp.StatusCode))
		http.Redirect(w, r, dest, resp.StatusCode)
		return
	}

	rl.metrics.callback(ResultRelayed)
	for _, h := range []string{"Content-Type", "Cache-Control"} {
		if v := resp.Header.Get(h); v != "" {
			w.Header().Set(h, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		rl.logger.WarnContext(ctx, "relaying callback body failed", logger.Error(err))
	}
}

func (rl *Relay) checkState(r *http.Request) error {
	st, err := DecodeState(r.URL.Query().Get("state"))
	if err != nil {
		return err
	}
	nonce, err := rl.cookies.GetSigned(r, StateCookie)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStateMismatch, err)
	}
	if nonce != st.Nonce {
		return ErrStateMismatch
	}
	if rl.now().Sub(st.Issued()) > rl.ttl {
		return ErrStateExpired
	}
	ok, err := rl.states.Take(r.Context(), st.Nonce)
	if err != nil {
		return fmt.Errorf("take oauth state: %w", err)
	}
	if !ok {
		return ErrStateMismatch
	}
	return nil
}

// tag resolves loc against the backend and appends source and ts.
func (rl *Relay) tag(loc string) (string, error) {
	base, err := url.Parse(rl.backend + "/")
	if err != nil {
		return "", err
	}
	u, err := base.Parse(loc)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("source", rl.source)
	q.Set("ts", strconv.FormatInt(rl.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (rl *Relay) originOf(r *http.Request) string {
	if rl.origin != "" {
		return rl.origin
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + r.Host
}

func (rl *Relay) toLogin(w http.ResponseWriter, r *http.Request, msg string, err error) {
	rl.logger.ErrorContext(r.Context(), "oauth relay failed", logger.Path(r.URL.Path), logger.Error(err))
	http.Redirect(w, r, rl.rules.LoginErrorRedirect(msg), http.StatusFound)
}

func isRedirect(status int) bool {
	return status >= 300 && status < 400
}
