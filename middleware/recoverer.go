package middleware

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/socialsync/core/guard"
	"github.com/dmitrymomot/socialsync/core/logger"
)

// ResetOnPanic recovers a panicking handler by wiping the visitor's session:
// every credential cookie is expired and the browser is sent to the login
// view. http.ErrAbortHandler is re-panicked so the server can abort the
// connection.
func ResetOnPanic(rules guard.Rules, log *slog.Logger, cookieNames ...string) func(http.Handler) http.Handler {
	if len(cookieNames) == 0 {
		cookieNames = CredentialCookies
	}
	log = logger.OrDiscard(log).With(logger.Component("recoverer"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity
					panic(rec)
				}

				log.ErrorContext(r.Context(), "handler panicked, session reset",
					logger.Path(r.URL.Path),
					logger.Key("panic", rec),
					logger.Stack(),
				)
				for _, name := range cookieNames {
					http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
				}
				http.Redirect(w, r, rules.LoginPath, http.StatusFound)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
