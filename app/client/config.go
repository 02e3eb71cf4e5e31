package client

import (
	"time"

	"github.com/dmitrymomot/socialsync/core/authsync"
	"github.com/dmitrymomot/socialsync/core/cookie"
	"github.com/dmitrymomot/socialsync/integration/backend"
	"github.com/dmitrymomot/socialsync/integration/database/redis"
)

// Config is the client context's environment.
type Config struct {
	Backend backend.Config
	Cookie  cookie.Config
	Redis   redis.Config

	// StateDir holds durable.json and session.json when redis is not
	// configured. Blank uses the user config directory.
	StateDir string `env:"SOCIALSYNC_STATE_DIR" envDefault:""`

	RefetchDelay    time.Duration `env:"REFETCH_DELAY" envDefault:"500ms"`
	SettleDelay     time.Duration `env:"AUTH_SETTLE_DELAY" envDefault:"500ms"`
	CallbackTimeout time.Duration `env:"AUTH_CALLBACK_TIMEOUT" envDefault:"10s"`
}

// DefaultConfig returns the configuration for a local backend.
func DefaultConfig() Config {
	return Config{
		Backend:         backend.DefaultConfig(),
		Cookie:          cookie.DefaultConfig(),
		RefetchDelay:    500 * time.Millisecond,
		SettleDelay:     authsync.DefaultSettleDelay,
		CallbackTimeout: authsync.DefaultCallbackTimeout,
	}
}
