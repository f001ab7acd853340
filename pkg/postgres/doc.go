// Package postgres owns the live database connection and executes the SQL
// artifacts produced by the query builder.
//
// The connection is a thread-safe wrapper around gorm.DB with health
// monitoring and automatic reconnection. On top of it the package provides:
//
//   - named-placeholder execution: generated SQL uses ":name" placeholders
//     bound via a parallel parameter map, which Execute rebinds to the
//     driver's positional form (casts like "::boolean" and quoted text are
//     left untouched),
//   - transactions with automatic rollback on error,
//   - table and column introspection via information_schema,
//   - identifier quoting helpers that funnel through pkg/identifier, so no
//     unvalidated name ever reaches SQL text.
//
// Execution failures are wrapped in *QueryExecutionError carrying the SQL
// text and the driver's SQLSTATE when available. Parameter values are never
// included, so the error is safe to log in contexts handling sensitive data.
//
// Basic usage:
//
//	db, err := postgres.NewPostgres(cfg, log)
//	if err != nil {
//	    log.Fatal("failed to connect", err, nil)
//	}
//	rows, err := db.Execute(ctx, `SELECT * FROM "t" WHERE "a" = :a`, map[string]any{"a": 1})
//
// Transaction example:
//
//	err = db.WithTransaction(ctx, func(tx *postgres.Tx) error {
//	    if _, err := tx.ExecuteStatement(ctx, upsertSQL, params); err != nil {
//	        return err // rolls back the whole batch
//	    }
//	    return nil
//	})
package postgres
