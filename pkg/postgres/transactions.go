package postgres

import (
	"context"

	"gorm.io/gorm"
)

// Runner is the statement-execution surface shared by direct connections and
// transactions. Code that only issues queries should depend on it rather than
// on the concrete types.
type Runner interface {
	Execute(ctx context.Context, sql string, params map[string]any) ([]map[string]any, error)
	ExecuteStatement(ctx context.Context, sql string, params map[string]any) (int64, error)
}

// Tx exposes the execution primitives inside a transaction. All statements
// issued through it commit or roll back together.
type Tx struct {
	db *gorm.DB
}

// ExecuteStatement runs a named-placeholder statement within the transaction.
func (t *Tx) ExecuteStatement(ctx context.Context, sql string, params map[string]any) (int64, error) {
	rebound, args, err := Rebind(sql, params)
	if err != nil {
		return 0, err
	}

	result := t.db.WithContext(ctx).Exec(rebound, args...)
	if result.Error != nil {
		return 0, wrapExecError(sql, result.Error)
	}
	return result.RowsAffected, nil
}

// Execute runs a named-placeholder query within the transaction.
func (t *Tx) Execute(ctx context.Context, sql string, params map[string]any) ([]map[string]any, error) {
	rebound, args, err := Rebind(sql, params)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := t.db.WithContext(ctx).Raw(rebound, args...).Scan(&rows).Error; err != nil {
		return nil, wrapExecError(sql, err)
	}
	return rows, nil
}

// WithTransaction executes fn within a database transaction. Any error
// returned by fn rolls the whole transaction back.
func (p *Postgres) WithTransaction(ctx context.Context, fn func(tx Runner) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.client.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Tx{db: tx})
	})
}
