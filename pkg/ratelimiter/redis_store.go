package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/storefront/pkg/storage"
)

// consumeScript runs the same refill-then-consume step as MemoryStore
// atomically inside Redis. Times are unix milliseconds from the caller.
var consumeScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])
local tokens = tonumber(ARGV[4])
local now = tonumber(ARGV[5])
local ttl = tonumber(ARGV[6])

local state = redis.call("HMGET", KEYS[1], "tokens", "last")
local current = tonumber(state[1])
local last = tonumber(state[2])
if current == nil or last == nil then
	current = capacity
	last = now
end

local elapsed = math.max(0, now - last)
local intervals = math.min(math.floor(elapsed / interval), math.floor(capacity / rate) + 1)
if intervals > 0 then
	current = math.min(current + intervals * rate, capacity)
	last = now
end

current = current - tokens
redis.call("HSET", KEYS[1], "tokens", current, "last", last)
redis.call("PEXPIRE", KEYS[1], ttl)
return {current, last}
`)

// RedisStore shares buckets between replicas.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":ratelimit:" + key
}

func (s *RedisStore) ConsumeTokens(ctx context.Context, key string, tokens int, cfg Config) (int, time.Time, error) {
	res, err := consumeScript.Run(ctx, s.client, []string{s.key(key)},
		cfg.Capacity,
		cfg.RefillRate,
		cfg.RefillInterval.Milliseconds(),
		tokens,
		s.now().UnixMilli(),
		cfg.ttl().Milliseconds(),
	).Int64Slice()
	if err != nil {
		return 0, time.Time{}, storage.Unavailable(fmt.Errorf("consume tokens: %w", err))
	}
	if len(res) != 2 {
		return 0, time.Time{}, fmt.Errorf("consume tokens: unexpected script reply %v", res)
	}

	lastRefill := time.UnixMilli(res[1])
	return int(res[0]), lastRefill.Add(cfg.RefillInterval), nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return storage.Unavailable(err)
	}
	return nil
}
