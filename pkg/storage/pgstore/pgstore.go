package pgstore

import (
	"context"
	"embed"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/storefront/pkg/pg"
	"github.com/dmitrymomot/storefront/pkg/storage"
)

// Migrations holds the goose migrations for every table used by this package.
// Apply them with pg.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, ...).
//
//go:embed migrations/*.sql
var Migrations embed.FS

const MigrationsDir = "migrations"

// DB is the subset of *pgxpool.Pool the stores use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// mapErr tags connection failures, timeouts and serialization aborts with
// storage.ErrUnavailable so callers retry them.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if pg.IsConnectionError(err) || pg.IsSerializationError(err) {
		return storage.Unavailable(err)
	}
	return err
}
