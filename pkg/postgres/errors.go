package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// QueryExecutionError wraps a database driver failure with the SQL text that
// triggered it. Parameter values are deliberately not carried; the error is
// safe to log where bound values may be sensitive.
type QueryExecutionError struct {
	SQL     string
	Code    string // SQLSTATE when the driver reported one
	Message string
	Err     error
}

func (e *QueryExecutionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("postgres: query failed (SQLSTATE %s): %s; sql: %s", e.Code, e.Message, e.SQL)
	}
	return fmt.Sprintf("postgres: query failed: %s; sql: %s", e.Message, e.SQL)
}

func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}

// wrapExecError converts a driver error into a *QueryExecutionError,
// extracting the SQLSTATE and message from pgconn when available.
func wrapExecError(sql string, err error) error {
	if err == nil {
		return nil
	}

	qe := &QueryExecutionError{SQL: sql, Message: err.Error(), Err: err}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		qe.Code = pgErr.Code
		qe.Message = pgErr.Message
	}
	return qe
}
