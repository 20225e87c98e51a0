package ratelimiter

import "time"

// Result describes the bucket after a request was counted.
type Result struct {
	Limit     int       // bucket capacity
	Remaining int       // tokens left; negative means the request is denied
	ResetAt   time.Time // when the next refill happens
}

// Allowed reports whether the counted request fits the bucket.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long the caller should wait, or 0 when allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(0, time.Until(r.ResetAt))
}

// Config defines a token bucket. Nest it with an envPrefix to give each
// limited route its own variables, e.g. AUTH_LOGIN_RATE_CAPACITY.
type Config struct {
	Capacity       int           `env:"RATE_CAPACITY" envDefault:"10"`  // burst size
	RefillRate     int           `env:"RATE_REFILL" envDefault:"1"`     // tokens added per interval
	RefillInterval time.Duration `env:"RATE_INTERVAL" envDefault:"30s"` // refill period
}

func (c Config) validate() error {
	switch {
	case c.Capacity <= 0:
		return invalidConfig("capacity must be positive, got %d", c.Capacity)
	case c.RefillRate <= 0:
		return invalidConfig("refill rate must be positive, got %d", c.RefillRate)
	case c.RefillInterval <= 0:
		return invalidConfig("refill interval must be positive, got %v", c.RefillInterval)
	}
	return nil
}

// ttl is how long an idle bucket must be kept before it would be full again.
func (c Config) ttl() time.Duration {
	return time.Duration(c.Capacity/c.RefillRate+1) * c.RefillInterval
}
