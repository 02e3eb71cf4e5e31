package backend

import (
	"strings"
	"time"
)

// DefaultBaseURL is used when no backend URL is configured.
const DefaultBaseURL = "http://localhost:5000"

// Config holds the backend client settings.
type Config struct {
	BaseURL   string        `env:"BACKEND_URL" envDefault:"http://localhost:5000"`
	Timeout   time.Duration `env:"BACKEND_TIMEOUT" envDefault:"15s"`
	UserAgent string        `env:"BACKEND_USER_AGENT" envDefault:"socialsync"`
}

// DefaultConfig returns the configuration for a local backend.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Timeout:   15 * time.Second,
		UserAgent: "socialsync",
	}
}

// NormalizeBaseURL trims raw and strips trailing slashes. A blank value
// falls back to DefaultBaseURL.
func NormalizeBaseURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if u == "" {
		return DefaultBaseURL
	}
	return u
}
