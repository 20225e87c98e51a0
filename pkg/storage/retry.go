package storage

import (
	"context"
	"errors"

	"github.com/sethvargo/go-retry"
)

// Retrier runs store operations under a per-attempt timeout and retries
// transient failures with capped exponential backoff.
// A nil *Retrier runs the operation once without a timeout.
type Retrier struct {
	cfg Config
}

// NewRetrier creates a Retrier from cfg, filling zero values with defaults.
func NewRetrier(cfg Config) *Retrier {
	def := DefaultConfig()
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = def.OpTimeout
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.CASAttempts <= 0 {
		cfg.CASAttempts = def.CASAttempts
	}
	return &Retrier{cfg: cfg}
}

// CASAttempts returns the bound for optimistic update loops.
func (r *Retrier) CASAttempts() int {
	if r == nil {
		return DefaultConfig().CASAttempts
	}
	return r.cfg.CASAttempts
}

// Do executes fn until it succeeds, fails permanently, or the retry budget
// is exhausted. Only ErrUnavailable and attempt timeouts are retried.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil {
		return fn(ctx)
	}

	b := retry.NewExponential(r.cfg.BaseDelay)
	b = retry.WithCappedDuration(r.cfg.MaxDelay, b)
	b = retry.WithJitterPercent(10, b)
	b = retry.WithMaxRetries(r.cfg.RetryAttempts, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.OpTimeout)
		defer cancel()

		err := fn(attemptCtx)
		if err == nil {
			return nil
		}

		// The caller gave up; do not disguise that as a store outage.
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrUnavailable) {
			return retry.RetryableError(Unavailable(err))
		}
		return err
	})
}

// Once runs fn a single time under the per-attempt timeout. It is meant for
// writes that are not idempotent, where a retry after an ambiguous timeout
// could apply the change twice.
func (r *Retrier) Once(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil {
		return fn(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.OpTimeout)
	defer cancel()

	err := fn(attemptCtx)
	if err == nil || ctx.Err() != nil {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Unavailable(err)
	}
	return err
}
