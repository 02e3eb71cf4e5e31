package middleware

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/socialsync/core/guard"
	"github.com/dmitrymomot/socialsync/core/logger"
)

// CredentialCookies are the cookies whose presence marks a visitor as
// signed in.
var CredentialCookies = []string{"token", "auth_token", "is_authenticated"}

// GuardConfig configures the route guard middleware.
type GuardConfig struct {
	// Rules decide each navigation (default: guard.DefaultRules())
	Rules *guard.Rules
	// CookieNames are checked for a non-empty value (default: CredentialCookies)
	CookieNames []string
	// Logger receives one debug record per redirect
	Logger *slog.Logger
	// OnDecision observes every decision, e.g. for metrics
	OnDecision func(r *http.Request, d guard.Decision)
}

// Guard applies rules to every request. Credential presence is any of the
// named cookies being non-empty; with no names CredentialCookies are used.
func Guard(rules guard.Rules, cookieNames ...string) func(http.Handler) http.Handler {
	return GuardWithConfig(GuardConfig{Rules: &rules, CookieNames: cookieNames})
}

// GuardWithConfig is Guard with a full configuration.
func GuardWithConfig(cfg GuardConfig) func(http.Handler) http.Handler {
	rules := guard.DefaultRules()
	if cfg.Rules != nil {
		rules = *cfg.Rules
	}
	if len(cfg.CookieNames) == 0 {
		cfg.CookieNames = CredentialCookies
	}
	log := logger.OrDiscard(cfg.Logger).With(logger.Component("guard"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := rules.Decide(r.URL.Path, r.URL.Query(), HasCredential(r, cfg.CookieNames...))
			if cfg.OnDecision != nil {
				cfg.OnDecision(r, d)
			}
			if d.Allow {
				next.ServeHTTP(w, r)
				return
			}
			log.DebugContext(r.Context(), "navigation redirected",
				logger.Path(r.URL.Path),
				logger.Redirect(d.Redirect),
				logger.Result(string(d.Reason)),
			)
			http.Redirect(w, r, d.Redirect, http.StatusFound)
		})
	}
}

// HasCredential reports whether any of the named cookies is present and
// non-empty.
func HasCredential(r *http.Request, names ...string) bool {
	for _, name := range names {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return true
		}
	}
	return false
}
