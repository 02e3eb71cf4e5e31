package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/socialsync/app/client"
	"github.com/dmitrymomot/socialsync/core/config"
	"github.com/dmitrymomot/socialsync/core/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, styles.err.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

type cliConfig struct {
	Logger logger.Config
	Client client.Config
}

// session opens the client context for a command and closes it afterwards.
func session(cmd *cobra.Command, fn func(context.Context, *client.App) error) error {
	var cfg cliConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}
	log := logger.Discard()
	if cfg.Logger.Debug {
		log = logger.NewFromConfig(cfg.Logger)
	}

	ctx := cmd.Context()
	app, err := client.Open(ctx, cfg.Client, client.WithLogger(log))
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

// authed is session plus the page-load check. Commands that need a session
// fail with the login redirect the guard would issue.
func authed(cmd *cobra.Command, fn func(context.Context, *client.App) error) error {
	return session(cmd, func(ctx context.Context, app *client.App) error {
		if err := app.Start(ctx); err != nil && !app.Auth.State().IsAuthenticated() {
			return err
		}
		if !app.Auth.State().IsAuthenticated() {
			return errNotSignedIn
		}
		return fn(ctx, app)
	})
}

var errNotSignedIn = errors.New("not signed in: run `socialctl login` first")

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "socialctl",
		Short:         "Command-line client for the social backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newLoginCommand(),
		newRegisterCommand(),
		newOAuthCommand(),
		newWhoamiCommand(),
		newLogoutCommand(),
		newFeedCommand(),
		newLikeCommand(),
		newCommentCommand(),
		newShareCommand(),
		newFollowCommand(true),
		newFollowCommand(false),
	)
	return cmd
}
