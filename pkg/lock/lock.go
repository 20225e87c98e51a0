package lock

import (
	"context"
	"time"
)

// Unlock releases a held lock. It is safe to call more than once.
type Unlock func(ctx context.Context) error

// Locker hands out mutually exclusive locks by key.
// Lock blocks until the lock is held, the wait timeout passes or ctx is done;
// in the last two cases the error wraps ErrNotAcquired and storage.ErrUnavailable.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// Config controls lock leases and how long callers wait for a busy lock.
type Config struct {
	// TTL is the lease of a distributed lock; a crashed holder blocks others at most this long.
	TTL time.Duration `env:"CART_LOCK_TTL" envDefault:"10s"`
	// WaitTimeout bounds how long Lock waits for a busy key.
	WaitTimeout time.Duration `env:"CART_LOCK_WAIT" envDefault:"5s"`
	// PollInterval is how often a distributed lock is retried while busy.
	PollInterval time.Duration `env:"CART_LOCK_POLL_INTERVAL" envDefault:"25ms"`
}

// DefaultConfig returns the default lock configuration.
func DefaultConfig() Config {
	return Config{
		TTL:          10 * time.Second,
		WaitTimeout:  5 * time.Second,
		PollInterval: 25 * time.Millisecond,
	}
}

// UserKey is the lock key serialising cart writes of one user.
func UserKey(userID string) string {
	return "cart:user:" + userID
}
