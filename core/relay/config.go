package relay

import "time"

// Config holds the relay settings.
type Config struct {
	BackendURL  string        `env:"BACKEND_URL" envDefault:"http://localhost:5000"`
	FrontendURL string        `env:"FRONTEND_URL" envDefault:""`
	Source      string        `env:"RELAY_SOURCE" envDefault:"frontend-proxy"`
	Timeout     time.Duration `env:"RELAY_TIMEOUT" envDefault:"15s"`
	StateTTL    time.Duration `env:"RELAY_STATE_TTL" envDefault:"10m"`
	VerifyState bool          `env:"RELAY_VERIFY_STATE" envDefault:"true"`
}

// DefaultConfig returns the configuration for a local backend.
func DefaultConfig() Config {
	return Config{
		BackendURL:  "http://localhost:5000",
		Source:      DefaultSource,
		Timeout:     DefaultTimeout,
		StateTTL:    DefaultStateTTL,
		VerifyState: true,
	}
}

// Options returns the relay options cfg describes.
func (c Config) Options() []Option {
	opts := []Option{
		WithSource(c.Source),
		WithTimeout(c.Timeout),
		WithStateTTL(c.StateTTL),
		WithStateVerification(c.VerifyState),
	}
	if c.FrontendURL != "" {
		opts = append(opts, WithOrigin(c.FrontendURL))
	}
	return opts
}
