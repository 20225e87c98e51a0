package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/storefront/pkg/httpserver"
)

// Healthcheck returns a readiness check that pings the server.
func Healthcheck(client redis.UniversalClient) httpserver.Check {
	return httpserver.Check{
		Name: "redis",
		Fn: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return errors.Join(ErrHealthcheckFailed, err)
			}
			return nil
		},
	}
}
