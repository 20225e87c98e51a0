package redis

import "time"

// Config configures the optional Redis connection. An empty ConnectionURL
// means Redis is not used and in-process fallbacks are wired instead.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL"`                                // ConnectionURL is the URL of the server in the format "redis://:password@localhost:6379/0".
	RetryAttempts  uint64        `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`      // RetryAttempts is the number of connection retries after the first attempt.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"1s"`     // RetryInterval is the first backoff interval between attempts.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`   // ConnectTimeout bounds the whole connection procedure.
	KeyPrefix      string        `env:"REDIS_KEY_PREFIX" envDefault:"storefront"` // KeyPrefix namespaces every key written by this service.
}

// Enabled reports whether a Redis connection is configured.
func (c Config) Enabled() bool {
	return c.ConnectionURL != ""
}
