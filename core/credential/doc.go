// Package credential holds the session token and user snapshot redundantly
// in three locations and presents them as one value.
//
// Locations, in read-priority order:
//
//   - Memory: a reactive state.Value views subscribe to; lost on restart.
//   - Durable: two keys (token, serialized user) in a kv.Store.
//   - Cookie: the token cookie in the cookie jar the backend client uses.
//
// Store.Get returns the first non-empty token and back-fills the other
// locations with it, so a session found only in the cookie ends up in all
// three. A location that cannot be read counts as empty. Tokens that decode
// as JWTs with a past exp claim are treated as absent and cleared.
//
// Store.Set writes every location; Store.Clear clears every location even
// when one of them fails. Both return the joined per-location errors.
//
//	store := credential.NewStore([]credential.Location{
//		credential.NewMemory(),
//		credential.NewDurable(kv.NewFile(path)),
//		credential.NewCookie(jar, backendURL, cookies, cookie.SameOrigin),
//	}, credential.WithLogger(log))
//
//	sess, err := store.Get(ctx)
//	if errors.Is(err, credential.ErrUnauthenticated) {
//		// send to login
//	}
//
// Every operation is logged at debug level, failures at warn. An optional
// observer receives the same events; a panicking observer is recovered.
package credential
