// Package redis connects to Redis with retries and exposes it as a kv.Store.
//
// The gateway uses it when REDIS_URL is set so that OAuth state nonces issued
// by one replica can be verified and consumed by another:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := redis.NewStore(client, cfg.KeyPrefix)
//
// Connect validates the URL (redis:// or rediss://), pings with exponential
// backoff between RetryAttempts and gives up after ConnectTimeout.
// Healthcheck returns a ping probe for readiness endpoints.
//
// Errors: ErrEmptyConnectionURL, ErrFailedToParseRedisConnString,
// ErrRedisNotReady and ErrHealthcheckFailed, all matchable with errors.Is.
package redis
