package lock

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrymomot/storefront/pkg/storage"
)

// releaseScript deletes the key only while it still holds our token, so a
// holder whose lease already expired cannot release someone else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript moves the lease forward only while the key still holds our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker is a lease based lock shared by every replica.
// The lease is extended in the background every TTL/3 while the lock is held.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	cfg    Config
}

// NewRedisLocker creates a locker storing leases under prefix + ":lock:".
// Zero TTL and PollInterval fall back to DefaultConfig.
func NewRedisLocker(client redis.UniversalClient, prefix string, cfg Config) *RedisLocker {
	def := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	return &RedisLocker{client: client, prefix: prefix, cfg: cfg}
}

// Lock acquires the lease for key, polling every PollInterval while it is busy.
func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	fullKey := l.prefix + ":lock:" + key
	parent := ctx

	if l.cfg.WaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.WaitTimeout)
		defer cancel()
	}

	busy := errors.New("busy")
	err = retry.Do(ctx, retry.NewConstant(l.cfg.PollInterval), func(ctx context.Context) error {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.cfg.TTL).Result()
		if err != nil {
			return retry.RetryableError(storage.Unavailable(err))
		}
		if !ok {
			return retry.RetryableError(busy)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrNotAcquired, storage.ErrUnavailable, err)
	}

	stop := make(chan struct{})
	go keepAlive(context.WithoutCancel(parent), stop, l.cfg.TTL/3, func(ctx context.Context) (bool, error) {
		n, err := extendScript.Run(ctx, l.client, []string{fullKey}, token, l.cfg.TTL.Milliseconds()).Int()
		return n == 1, err
	})

	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() { close(stop) })
		if err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return storage.Unavailable(err)
		}
		return nil
	}, nil
}

// keepAlive calls extend every interval until stop is closed or extend
// reports the lease lost. Failed calls are retried on the next tick.
func keepAlive(ctx context.Context, stop <-chan struct{}, interval time.Duration, extend func(context.Context) (bool, error)) {
	interval = max(interval, time.Millisecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			callCtx, cancel := context.WithTimeout(ctx, interval)
			held, err := extend(callCtx)
			cancel()
			if err == nil && !held {
				return
			}
		}
	}
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
