// Package pg provides utilities for interacting with PostgreSQL using the
// pgx/v5 driver: a retrying pool constructor, goose migrations from an
// embedded filesystem, a health check, and error classification helpers.
//
//   - Config is populated from PG_* environment variables.
//   - Connect opens a *pgxpool.Pool, retrying with exponential backoff until
//     the database answers a ping.
//   - Migrate runs goose migrations against the same pool before the service
//     starts serving traffic.
//
// # Usage
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, pgstore.Migrations, "migrations", cfg, slog.Default()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Errors
//
// IsDuplicateKeyError, IsNotFoundError, IsSerializationError and
// IsConnectionError let store implementations translate driver failures into
// the storefront error taxonomy (for example storage.ErrUnavailable).
package pg
