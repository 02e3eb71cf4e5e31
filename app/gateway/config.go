package gateway

import (
	"time"

	"github.com/dmitrymomot/socialsync/core/cookie"
	"github.com/dmitrymomot/socialsync/core/logger"
	"github.com/dmitrymomot/socialsync/core/relay"
	"github.com/dmitrymomot/socialsync/core/server"
	"github.com/dmitrymomot/socialsync/integration/database/redis"
	"github.com/dmitrymomot/socialsync/pkg/telemetry"
)

// Config is the gateway's environment.
type Config struct {
	Logger    logger.Config
	Server    server.Config
	Cookie    cookie.Config
	Relay     relay.Config
	Redis     redis.Config
	Telemetry telemetry.Config

	// StaticDir holds the front-end build; blank serves a placeholder page.
	StaticDir string `env:"STATIC_DIR" envDefault:""`
	// AllowedOrigins enables CORS for split deployments where the bundle is
	// served from another origin than the gateway.
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	// AuthRateLimit caps OAuth relay requests per client IP per minute.
	AuthRateLimit int `env:"AUTH_RATE_LIMIT" envDefault:"30"`
	// HealthPath is probed on the backend by /readyz; blank skips the probe.
	HealthPath string `env:"BACKEND_HEALTH_PATH" envDefault:"/api/health"`
}

// DefaultConfig returns a configuration for local development.
func DefaultConfig() Config {
	return Config{
		Logger:        logger.Config{Service: "socialsync-gateway"},
		Server:        server.DefaultConfig(),
		Cookie:        cookie.DefaultConfig(),
		Relay:         relay.DefaultConfig(),
		Redis:         redis.Config{RetryAttempts: 3, RetryInterval: 5 * time.Second, ConnectTimeout: 30 * time.Second, KeyPrefix: "socialsync:"},
		Telemetry:     telemetry.Config{ServiceName: "socialsync-gateway"},
		AuthRateLimit: 30,
		HealthPath:    "/api/health",
	}
}
