// Package health provides HTTP handlers for service health monitoring.
//
// Handlers:
//   - Liveness: Process is running (no dependency checks)
//   - Readiness: All dependencies are available
//
// Usage:
//
//	r.Get("/healthz", health.Liveness)
//	r.Get("/readyz", health.Readiness(log,
//		health.Named("redis", redis.Healthcheck(client)),
//		health.Named("backend", health.Reachable(client, backendURL+"/api/health")),
//	))
//
// Dependency checks must follow func(context.Context) error signature.
package health
