// Package config loads environment variables into typed structs using Go
// generics. Each configuration type is parsed once and cached for the rest of
// the process lifetime.
//
// On first use the package loads a .env file from the working directory when
// one exists, then parses fields with caarlos0/env.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/socialsync/core/config"
//
//	type BackendConfig struct {
//		URL     string        `env:"BACKEND_URL" envDefault:"http://localhost:5000"`
//		Timeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"15s"`
//	}
//
//	var cfg BackendConfig
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	// Or panic on failure during startup
//	config.MustLoad(&cfg)
//
// # Caching Behavior
//
// Loading the same type twice returns the cached value even if the
// environment changed in between. Different types are cached independently.
// Tests that mutate the environment call Reset between loads.
package config
