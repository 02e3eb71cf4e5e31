// Package backend is the REST client for the social backend.
//
// Every endpoint answers with the envelope
//
//	{"success": true, "message": "...", "data": {...}}
//
// and the client unwraps data into typed results. Non-2xx responses and
// envelopes with success=false become *APIError; IsUnauthorized tells an
// authorization rejection (401/403) from other failures.
//
// The client implements social.API and the authentication calls used by
// core/authsync:
//
//	jar, _ := cookiejar.New(nil)
//	client := backend.New(os.Getenv("BACKEND_URL"),
//		backend.WithHTTPClient(&http.Client{Jar: jar, Timeout: 15 * time.Second}),
//		backend.WithTokenSource(store),
//	)
//	sess, err := client.Login(ctx, backend.Credentials{Email: email, Password: pw})
//
// A blank base URL falls back to DefaultBaseURL and trailing slashes are
// stripped.
package backend
