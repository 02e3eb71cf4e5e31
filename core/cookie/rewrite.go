package cookie

import (
	"net/http"
	"strings"
)

// StripDomain removes every Domain attribute from a raw Set-Cookie header
// value so the cookie binds to the origin that relays it. Other attributes
// keep their order and spelling.
func StripDomain(setCookie string) string {
	parts := strings.Split(setCookie, ";")
	kept := parts[:0]
	for i, p := range parts {
		if i > 0 {
			name, _, _ := strings.Cut(strings.TrimSpace(p), "=")
			if strings.EqualFold(name, "domain") {
				continue
			}
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ";")
}

// RewriteSetCookies applies StripDomain to every Set-Cookie header in h and
// returns how many headers carried a domain.
func RewriteSetCookies(h http.Header) int {
	values := h.Values("Set-Cookie")
	if len(values) == 0 {
		return 0
	}
	changed := 0
	h.Del("Set-Cookie")
	for _, v := range values {
		stripped := StripDomain(v)
		if stripped != v {
			changed++
		}
		h.Add("Set-Cookie", stripped)
	}
	return changed
}
