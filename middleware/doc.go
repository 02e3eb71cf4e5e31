// Package middleware provides net/http middleware for the gateway: request
// ids, request logging, security headers, the route guard and the recoverer
// that wipes the session when a handler panics.
//
// Every constructor returns func(http.Handler) http.Handler so the pieces
// compose with any router:
//
//	r := chi.NewRouter()
//	r.Use(middleware.RequestID())
//	r.Use(middleware.LoggingWithLogger(log))
//	r.Use(middleware.ResetOnPanic(rules, log))
//	r.Use(middleware.SecurityHeaders())
//	r.With(middleware.Guard(rules)).Handle("/*", spa)
//
// Configuration structs carry a Skip func for requests the middleware
// should pass through untouched.
package middleware
