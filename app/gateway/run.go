package gateway

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/socialsync/core/logger"
	"github.com/dmitrymomot/socialsync/core/relay"
	"github.com/dmitrymomot/socialsync/core/server"
	"github.com/dmitrymomot/socialsync/integration/database/redis"
	"github.com/dmitrymomot/socialsync/pkg/telemetry"
)

// Run connects the configured dependencies, serves the gateway and shuts
// it down when ctx is canceled.
func Run(ctx context.Context, cfg Config, log *slog.Logger) error {
	log = logger.OrDiscard(log)

	tel, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	if tel.Enabled() {
		log.InfoContext(ctx, "tracing enabled", logger.Key("endpoint", cfg.Telemetry.Endpoint))
	}

	opts := []Option{WithLogger(log), WithTelemetry(tel)}
	shutdown := []server.Option{server.WithLogger(log), server.OnShutdown(tel.Shutdown)}

	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		store := redis.NewStore(client, cfg.Redis.KeyPrefix+"gateway:")
		opts = append(opts,
			WithStateStore(relay.NewStateStore(store)),
			WithReadinessCheck("redis", redis.Healthcheck(client)),
		)
		shutdown = append(shutdown, server.OnShutdown(func(context.Context) error { return client.Close() }))
		log.InfoContext(ctx, "oauth state shared through redis")
	}

	srv, err := server.NewFromConfig(cfg.Server, shutdown...)
	if err != nil {
		return err
	}
	opts = append(opts, WithReadinessCheck("server", srv.Ready))

	gw, err := New(cfg, opts...)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "gateway configured", logger.Key("backend", gw.Backend()))
	return srv.Run(ctx, gw.Handler())()
}
