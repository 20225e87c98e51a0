package ratelimiter_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/ratelimiter"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newBucket(t *testing.T, cfg ratelimiter.Config) (*ratelimiter.Bucket, *clock) {
	t.Helper()
	clk := newClock()
	store := ratelimiter.NewMemoryStore(ratelimiter.WithClock(clk.Now), ratelimiter.WithCleanupInterval(0))
	t.Cleanup(store.Close)

	b, err := ratelimiter.NewBucket(store, cfg)
	require.NoError(t, err)
	return b, clk
}

func TestNewBucket_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  ratelimiter.Config
		msg  string
	}{
		{"zero capacity", ratelimiter.Config{Capacity: 0, RefillRate: 1, RefillInterval: time.Second}, "capacity must be positive"},
		{"negative rate", ratelimiter.Config{Capacity: 1, RefillRate: -1, RefillInterval: time.Second}, "refill rate must be positive"},
		{"zero interval", ratelimiter.Config{Capacity: 1, RefillRate: 1}, "refill interval must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0)), tt.cfg)
			require.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Nil(t, b)
		})
	}
}

func TestBucket_AllowAndRefill(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b, clk := newBucket(t, ratelimiter.Config{Capacity: 3, RefillRate: 1, RefillInterval: time.Minute})

	for i := range 3 {
		res, err := b.Allow(ctx, "ip")
		require.NoError(t, err)
		assert.True(t, res.Allowed())
		assert.Equal(t, 2-i, res.Remaining)
		assert.Equal(t, 3, res.Limit)
	}

	res, err := b.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, res.Allowed())

	t.Run("other keys are independent", func(t *testing.T) {
		res, err := b.Allow(ctx, "other")
		require.NoError(t, err)
		assert.True(t, res.Allowed())
	})

	t.Run("denied requests keep draining", func(t *testing.T) {
		clk.Advance(time.Minute)
		// one token refilled, but the denied request above already took it
		res, err := b.Allow(ctx, "ip")
		require.NoError(t, err)
		assert.False(t, res.Allowed())
	})

	t.Run("refill never exceeds capacity", func(t *testing.T) {
		clk.Advance(24 * time.Hour)
		res, err := b.Status(ctx, "ip")
		require.NoError(t, err)
		assert.Equal(t, 3, res.Remaining)
	})

	t.Run("reset", func(t *testing.T) {
		_, err := b.AllowN(ctx, "ip", 3)
		require.NoError(t, err)
		require.NoError(t, b.Reset(ctx, "ip"))

		res, err := b.Status(ctx, "ip")
		require.NoError(t, err)
		assert.Equal(t, 3, res.Remaining)
	})
}

func TestBucket_AllowN_InvalidCount(t *testing.T) {
	t.Parallel()
	b, _ := newBucket(t, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Second})

	_, err := b.AllowN(context.Background(), "k", 0)
	assert.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)
}

func TestBucket_Concurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b, _ := newBucket(t, ratelimiter.Config{Capacity: 50, RefillRate: 1, RefillInterval: time.Hour})

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				res, err := b.Allow(ctx, "shared")
				if err == nil && res.Allowed() {
					allowed.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), allowed.Load())
}

func TestResult_RetryAfter(t *testing.T) {
	t.Parallel()

	ok := &ratelimiter.Result{Remaining: 0, ResetAt: time.Now().Add(time.Minute)}
	assert.Zero(t, ok.RetryAfter())

	denied := &ratelimiter.Result{Remaining: -1, ResetAt: time.Now().Add(time.Minute)}
	assert.Greater(t, denied.RetryAfter(), 50*time.Second)

	past := &ratelimiter.Result{Remaining: -1, ResetAt: time.Now().Add(-time.Minute)}
	assert.Zero(t, past.RetryAfter())
}
