// Package server runs the gateway's http.Server with graceful shutdown.
//
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log),
//		server.OnShutdown(telemetry.Shutdown))
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, handler))
//
// Start binds the listener before serving, so Addr reports the real port
// when the configured address ends in ":0". Stop drains in-flight requests
// within the shutdown timeout and then runs the OnShutdown hooks.
package server
