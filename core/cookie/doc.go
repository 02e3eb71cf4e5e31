// Package cookie builds, writes and reads HTTP cookies with shared defaults,
// HMAC signing, and the helpers a same-origin relay needs for cookies issued
// by another origin.
//
// # Basic Usage
//
//	manager, err := cookie.New(nil, cookie.WithMaxAge(3600))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	err = manager.Set(w, "token", token)
//	value, err := manager.Get(r, "token")
//	if errors.Is(err, cookie.ErrCookieNotFound) {
//		// not set
//	}
//	manager.Delete(w, "token")
//
// Build returns the *http.Cookie without writing it, for callers that store
// cookies in an http.CookieJar instead of a response.
//
// # Signed Cookies
//
// A manager created with secrets can sign values to detect tampering. The
// first secret signs; every secret verifies, which allows rotation.
//
//	manager, _ := cookie.New([]string{secret})
//	_ = manager.SetSigned(w, "__oauth_state", nonce)
//	nonce, err := manager.GetSigned(r, "__oauth_state")
//
// DeriveSecrets expands the configured master secrets into purpose-bound keys
// with HKDF so different cookies never share a signing key.
//
// # Deployment Topology
//
// Policy picks SameSite and Secure for credential cookies: SameSite=None with
// Secure for cross-site deployments served over https, Lax otherwise. Secure
// always follows the transport.
//
//	manager.Build("token", token, cookie.WithTopology(cookie.CrossSite, true))
//
// # Relayed Cookies
//
// StripDomain and RewriteSetCookies drop the Domain attribute from Set-Cookie
// headers received from the backend, so the browser binds them to the
// serving origin.
//
// # Configuration
//
//	var cfg cookie.Config
//	config.MustLoad(&cfg)
//	manager, err := cookie.NewFromConfig(cfg)
//
// Environment variables: COOKIE_SECRETS (comma separated), COOKIE_PATH,
// COOKIE_DOMAIN, COOKIE_MAX_AGE, COOKIE_SECURE, COOKIE_HTTP_ONLY,
// COOKIE_SAME_SITE, COOKIE_MAX_SIZE, COOKIE_TOPOLOGY.
package cookie
