// Command gateway serves the socialsync front-end bundle with the route
// guard, the OAuth redirect relay and the API proxy on one origin.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/socialsync/app/gateway"
	"github.com/dmitrymomot/socialsync/core/config"
	"github.com/dmitrymomot/socialsync/core/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cfg gateway.Config
	config.MustLoad(&cfg)

	log := logger.SetAsDefault(logger.NewFromConfig(cfg.Logger))

	if err := gateway.Run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("gateway stopped", logger.Error(err))
		os.Exit(1)
	}
}
