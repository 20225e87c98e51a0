package lock

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runKeepAlive(stop chan struct{}, extend func(context.Context) (bool, error)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		keepAlive(context.Background(), stop, 5*time.Millisecond, extend)
	}()
	return done
}

func TestKeepAlive(t *testing.T) {
	t.Parallel()

	t.Run("extends until stopped", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		stop := make(chan struct{})
		done := runKeepAlive(stop, func(ctx context.Context) (bool, error) {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			calls.Add(1)
			return true, nil
		})

		require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
		close(stop)
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("keepAlive did not return after stop")
		}
	})

	t.Run("gives up once the lease is lost", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		stop := make(chan struct{})
		defer close(stop)
		done := runKeepAlive(stop, func(context.Context) (bool, error) {
			calls.Add(1)
			return false, nil
		})

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("keepAlive kept running without the lease")
		}
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("retries after errors", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		stop := make(chan struct{})
		done := runKeepAlive(stop, func(context.Context) (bool, error) {
			if calls.Add(1) < 3 {
				return false, errors.New("connection reset")
			}
			return true, nil
		})

		require.Eventually(t, func() bool { return calls.Load() >= 4 }, time.Second, time.Millisecond)
		close(stop)
		<-done
	})
}
