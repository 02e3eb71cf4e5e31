package guard

import (
	"net/url"
	"path"
	"slices"
	"strings"
)

// Rules describe which paths need a credential and where to send the
// visitor otherwise. The zero value is not usable; start from DefaultRules.
type Rules struct {
	// LoginPath receives unauthenticated visitors of protected paths.
	LoginPath string
	// RootPath receives authenticated visitors of public paths.
	RootPath string
	// Public paths are for guests: login, registration, password reset.
	Public []string
	// Skip paths are never guarded (OAuth callback, API, static assets).
	Skip []string
	// SkipAssets also skips any path with a file extension.
	SkipAssets bool
	// CallbackParam carries the requested path to the login view.
	CallbackParam string
	// BypassParam set to "true" lets an authenticated visitor stay on a public path.
	BypassParam string
	// SuccessParam/SuccessValue mark the first navigation after a completed
	// login; it is allowed through once even before the credential is visible.
	SuccessParam string
	SuccessValue string
}

// DefaultRules returns the application's routing rules.
func DefaultRules() Rules {
	return Rules{
		LoginPath:     "/user-login",
		RootPath:      "/",
		Public:        []string{"/user-login", "/user-register", "/forgot-password", "/reset-password"},
		Skip:          []string{"/auth/callback", "/api", "/static", "/assets", "/health", "/metrics"},
		SkipAssets:    true,
		CallbackParam: "callbackUrl",
		BypassParam:   "bypass",
		SuccessParam:  "auth",
		SuccessValue:  "success",
	}
}

// Reason explains a Decision.
type Reason string

const (
	ReasonSkipped        Reason = "skipped"
	ReasonPublic         Reason = "public"
	ReasonBypass         Reason = "bypass"
	ReasonAuthenticated  Reason = "authenticated"
	ReasonLoginSucceeded Reason = "login_succeeded"
	ReasonGuestOnly      Reason = "guest_only"
	ReasonLoginRequired  Reason = "login_required"
)

// Decision is the outcome for one navigation.
type Decision struct {
	Allow    bool
	Redirect string
	Reason   Reason
}

// Decide is a pure function of the requested path, its query and whether
// any credential marker is present.
func (r Rules) Decide(requestPath string, query url.Values, hasCredential bool) Decision {
	p := normalize(requestPath)

	if r.skipped(p) {
		return Decision{Allow: true, Reason: ReasonSkipped}
	}

	if matchAny(p, r.Public) {
		switch {
		case !hasCredential:
			return Decision{Allow: true, Reason: ReasonPublic}
		case r.BypassParam != "" && query.Get(r.BypassParam) == "true":
			return Decision{Allow: true, Reason: ReasonBypass}
		default:
			return Decision{Redirect: r.RootPath, Reason: ReasonGuestOnly}
		}
	}

	if hasCredential {
		return Decision{Allow: true, Reason: ReasonAuthenticated}
	}
	if r.SuccessParam != "" && query.Get(r.SuccessParam) == r.SuccessValue {
		return Decision{Allow: true, Reason: ReasonLoginSucceeded}
	}
	return Decision{Redirect: r.LoginRedirect(p), Reason: ReasonLoginRequired}
}

// LoginRedirect builds the login URL carrying target as the callback
// parameter. Slashes stay literal so the value reads as a path.
func (r Rules) LoginRedirect(target string) string {
	if target == "" || target == r.RootPath {
		return r.LoginPath
	}
	v := strings.ReplaceAll(url.QueryEscape(target), "%2F", "/")
	return r.LoginPath + "?" + r.CallbackParam + "=" + v
}

// SuccessRedirect appends the success marker to target so the first
// protected navigation after a completed login is let through.
func (r Rules) SuccessRedirect(target string) string {
	if r.SuccessParam == "" {
		return target
	}
	return appendQuery(target, r.SuccessParam, r.SuccessValue)
}

// LoginErrorRedirect builds the login URL carrying msg as the error parameter.
func (r Rules) LoginErrorRedirect(msg string) string {
	if msg == "" {
		return r.LoginPath
	}
	return appendQuery(r.LoginPath, "error", msg)
}

func appendQuery(target, key, value string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

// SafeCallback returns target if it is a same-origin absolute path, and
// fallback otherwise. Use it before navigating to a callbackUrl taken from
// the query string.
func SafeCallback(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return target
}

func (r Rules) skipped(p string) bool {
	if matchAny(p, r.Skip) {
		return true
	}
	return r.SkipAssets && path.Ext(p) != ""
}

func normalize(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}

// matchAny reports whether p equals a pattern or lies beneath it.
func matchAny(p string, patterns []string) bool {
	return slices.ContainsFunc(patterns, func(pattern string) bool {
		return p == pattern || strings.HasPrefix(p, strings.TrimRight(pattern, "/")+"/")
	})
}
