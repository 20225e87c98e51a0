package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/storefront/pkg/httpserver"
)

// Healthcheck returns a readiness check that pings the pool.
func Healthcheck(pool *pgxpool.Pool) httpserver.Check {
	return httpserver.Check{
		Name: "postgres",
		Fn: func(ctx context.Context) error {
			if err := pool.Ping(ctx); err != nil {
				return errors.Join(ErrHealthcheckFailed, err)
			}
			return nil
		},
	}
}
