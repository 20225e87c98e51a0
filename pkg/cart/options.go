package cart

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/storefront/pkg/lock"
	"github.com/dmitrymomot/storefront/pkg/storage"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithLocker sets the per-user locker. Use a distributed one when several
// replicas serve the same users.
func WithLocker(l lock.Locker) Option {
	return func(r *Resolver) { r.locker = l }
}

// WithRetrier sets the retry policy for item store calls.
func WithRetrier(rt *storage.Retrier) Option {
	return func(r *Resolver) { r.retrier = rt }
}

// WithLogger sets the logger for merge reports and lock failures.
func WithLogger(log *slog.Logger) Option {
	return func(r *Resolver) { r.logger = log }
}

// WithConfig sets the per-line quantity limit.
func WithConfig(cfg Config) Option {
	return func(r *Resolver) { r.config = cfg }
}

// WithClock overrides the time source used for new session lines.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}
