// Package redis connects the storefront to an optional Redis server.
//
// Redis backs the distributed per-user cart lock (pkg/lock) and the shared
// login rate limiter (pkg/ratelimiter). When REDIS_URL is empty both fall
// back to in-process implementations, which is fine for a single replica.
//
// # Usage
//
//	cfg := redis.Config{ConnectionURL: "redis://localhost:6379/0", RetryAttempts: 3,
//	    RetryInterval: time.Second, ConnectTimeout: 30 * time.Second}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    // ErrRedisNotReady after the retry budget is spent
//	}
//	defer client.Close()
//
//	ready := redis.Healthcheck(client) // httpserver.Check for /health/ready
package redis
