// Package relay implements the same-origin legs of the OAuth redirect hop
// and the API reverse proxy of the gateway.
//
// The initiation leg (GET /api/auth/google) builds a state blob (origin,
// timestamp, source tag, referrer and a nonce), base64url-encodes it and
// redirects the browser to the backend's initiation endpoint. The nonce is
// remembered in a StateStore and in a signed __oauth_state cookie.
//
// The callback leg (GET /api/auth/google/callback) checks the returning
// state against both, then calls the backend's callback with a hard timeout
// and the browser's Cookie, X-Forwarded-For, X-Real-IP, User-Agent, Origin
// and Referer headers. It never follows redirects: an upstream redirect is
// re-issued to the browser with source and ts query parameters appended.
// Errors, timeouts and state mismatches redirect to the login view with an
// error message.
//
// Backend cookies relayed by either leg or by the proxy lose their Domain
// attribute so they bind to the serving origin.
//
//	rl, err := relay.New(cfg.BackendURL, stateCookies,
//		relay.WithStateStore(relay.NewStateStore(redisStore)),
//		relay.WithMetrics(relay.NewMetrics(prometheus.DefaultRegisterer)),
//	)
//	rl.Register(router)
package relay
