package cookie

import (
	"net/http"
	"strings"
)

// Topology describes how the front-end and the backend are deployed relative
// to each other.
type Topology string

const (
	// SameOrigin: front-end and API share an origin (local development, or a
	// gateway proxying /api).
	SameOrigin Topology = "same-origin"
	// CrossSite: front-end and API live on different registrable domains.
	CrossSite Topology = "cross-site"
)

// ParseTopology maps a config string to a Topology. Unknown values map to SameOrigin.
func ParseTopology(s string) Topology {
	switch Topology(strings.ToLower(strings.TrimSpace(s))) {
	case CrossSite, "cross-domain", "production":
		return CrossSite
	default:
		return SameOrigin
	}
}

// Policy returns the SameSite mode and Secure flag for a credential cookie.
// Secure follows the transport. Cross-site deployments need SameSite=None,
// which browsers only accept together with Secure, so plain-http cross-site
// degrades to Lax.
func Policy(t Topology, secureTransport bool) (http.SameSite, bool) {
	if t == CrossSite && secureTransport {
		return http.SameSiteNoneMode, true
	}
	return http.SameSiteLaxMode, secureTransport
}
