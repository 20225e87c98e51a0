// Package ratelimiter implements a token bucket limiter with in-memory and
// Redis backed stores, plus an HTTP middleware.
//
// A bucket starts full at Capacity tokens and regains RefillRate tokens every
// RefillInterval, never exceeding Capacity. Each request takes one token.
// Requests made while the bucket is empty are denied and still drain it, so a
// client that keeps hammering stays blocked.
//
//	store := ratelimiter.NewMemoryStore()
//	bucket, err := ratelimiter.NewBucket(store, cfg)
//	r.With(ratelimiter.Middleware(bucket, ratelimiter.ByClientIP("login"))).Post("/login", h)
//
// The middleware sets X-RateLimit-Limit, X-RateLimit-Remaining,
// X-RateLimit-Reset and, when denied, Retry-After.
package ratelimiter
