package relay

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/dmitrymomot/socialsync/core/cookie"
	"github.com/dmitrymomot/socialsync/core/logger"
	"github.com/dmitrymomot/socialsync/integration/backend"
)

// NewProxy returns a reverse proxy to backendURL that strips the Domain
// attribute from every Set-Cookie so backend cookies bind to the serving
// origin. Upstream failures answer 502 with the backend's JSON envelope.
func NewProxy(backendURL string, metrics *Metrics, log *slog.Logger) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(backend.NormalizeBaseURL(backendURL))
	if err != nil {
		return nil, err
	}
	log = logger.OrDiscard(log).With(logger.Component("proxy"))

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.Host = target.Host
		},
		ModifyResponse: func(resp *http.Response) error {
			metrics.cookies(cookie.RewriteSetCookies(resp.Header))
			metrics.response(resp.StatusCode)
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.ErrorContext(r.Context(), "proxy request failed",
				logger.Method(r.Method), logger.Path(r.URL.Path), logger.Error(err))
			metrics.response(http.StatusBadGateway)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"message": "Backend unavailable",
			})
		},
	}, nil
}
