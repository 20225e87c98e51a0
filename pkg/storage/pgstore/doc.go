// Package pgstore implements the session, cart item, user and product stores
// on PostgreSQL through pgx.
//
// The schema ships as embedded goose migrations (Migrations, MigrationsDir)
// and is applied with pg.Migrate. Persistent cart increments are a single
// INSERT ... ON CONFLICT DO UPDATE statement, and session updates are guarded
// by a version column, so no statement needs an explicit row lock.
package pgstore
