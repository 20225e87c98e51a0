package session

import (
	"context"
	"time"

	"github.com/dmitrymomot/storefront/pkg/logger"
)

// Sweeper periodically deletes expired sessions. Resolution never returns an
// expired session on its own, so the sweeper only reclaims storage.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
}

// NewSweeper creates a sweeper using the manager's store, clock and logger.
func NewSweeper(m *Manager, interval time.Duration) *Sweeper {
	return &Sweeper{manager: m, interval: interval}
}

// Sweep deletes sessions expired at the current time.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	var n int
	err := s.manager.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.manager.store.DeleteExpired(ctx, s.manager.now())
		return err
	})
	return n, err
}

// Run sweeps every interval until ctx is cancelled. A non-positive interval
// disables sweeping and Run just waits for ctx.
func (s *Sweeper) Run(ctx context.Context) error {
	log := s.manager.logger.With(logger.Component("session_sweeper"))

	if s.interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			started := time.Now()
			n, err := s.Sweep(ctx)
			if err != nil {
				log.ErrorContext(ctx, "failed to sweep expired sessions", logger.Error(err))
				continue
			}
			if n > 0 {
				log.InfoContext(ctx, "expired sessions removed",
					logger.Count(n),
					logger.Duration(time.Since(started)),
				)
			}
		}
	}
}
