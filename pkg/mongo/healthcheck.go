package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/dmitrymomot/storefront/pkg/httpserver"
)

// Healthcheck returns a readiness check that pings the primary.
func Healthcheck(client *mongo.Client) httpserver.Check {
	return httpserver.Check{
		Name: "mongodb",
		Fn: func(ctx context.Context) error {
			if err := client.Ping(ctx, readpref.Primary()); err != nil {
				return errors.Join(ErrHealthcheckFailed, err)
			}
			return nil
		},
	}
}
