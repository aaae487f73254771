// Package db provides PostgreSQL helpers built on [github.com/jackc/pgx/v5].
//
// It covers pool setup with startup retries ([Connect]), readiness probing
// ([Healthcheck]), transactions ([WithTx]) and schema migrations with
// [github.com/pressly/goose/v3] ([Migrate]).
//
// Code that only runs queries should accept a [Querier] (or [DB] when it
// also needs transactions) so that *pgxpool.Pool, pgx.Tx and test doubles
// are interchangeable:
//
//	err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
//		_, err := tx.Exec(ctx, "UPDATE town SET flag_id = NULL WHERE flag_id = $1", id)
//		return err
//	})
//
// Errors are sentinel values combined with the cause using [errors.Join].
package db
