// Package guard decides, before a view is served, whether the visitor may
// see it or must be redirected.
//
// Decide is pure: it looks only at the path, the query and whether a
// credential marker is present, and never performs I/O.
//
//	rules := guard.DefaultRules()
//	d := rules.Decide("/friends-list", nil, false)
//	// d.Redirect == "/user-login?callbackUrl=/friends-list"
//
// Rules, in order:
//
//   - Skip paths (the OAuth callback, /api, static assets) are always allowed,
//     so the callback can finish establishing the session.
//   - Public paths admit guests; an authenticated visitor is sent to the root
//     unless the query carries bypass=true.
//   - Other paths need a credential; without one the visitor is sent to the
//     login view with the requested path as callbackUrl. The one-shot
//     auth=success marker appended after login lets the first navigation
//     through while the credential settles.
//
// middleware.Guard adapts the rules to net/http.
package guard
