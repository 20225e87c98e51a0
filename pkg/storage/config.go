package storage

import "time"

// Config controls per-operation timeouts and retry policy for store calls.
type Config struct {
	OpTimeout     time.Duration `env:"STORE_OP_TIMEOUT" envDefault:"3s"`         // OpTimeout bounds every single store attempt.
	RetryAttempts uint64        `env:"STORE_RETRY_ATTEMPTS" envDefault:"3"`      // RetryAttempts is the number of retries after the first attempt.
	BaseDelay     time.Duration `env:"STORE_RETRY_BASE_DELAY" envDefault:"50ms"` // BaseDelay is the first backoff interval.
	MaxDelay      time.Duration `env:"STORE_RETRY_MAX_DELAY" envDefault:"1s"`    // MaxDelay caps a single backoff interval.
	CASAttempts   int           `env:"STORE_CAS_ATTEMPTS" envDefault:"8"`        // CASAttempts bounds optimistic read-modify-write loops.
}

// DefaultConfig returns the default retry policy.
func DefaultConfig() Config {
	return Config{
		OpTimeout:     3 * time.Second,
		RetryAttempts: 3,
		BaseDelay:     50 * time.Millisecond,
		MaxDelay:      time.Second,
		CASAttempts:   8,
	}
}
