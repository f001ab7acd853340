package postgres

import (
	"context"
)

// Execute runs a SELECT built by the query layer and returns its rows as
// column-name keyed maps. The SQL must use ":name" placeholders matching the
// parameter map.
func (p *Postgres) Execute(ctx context.Context, sql string, params map[string]any) ([]map[string]any, error) {
	rebound, args, err := Rebind(sql, params)
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	var rows []map[string]any
	if err := p.client.WithContext(ctx).Raw(rebound, args...).Scan(&rows).Error; err != nil {
		return nil, wrapExecError(sql, err)
	}
	return rows, nil
}

// ExecuteStatement runs a data-modifying statement with named placeholders
// and returns the number of affected rows.
func (p *Postgres) ExecuteStatement(ctx context.Context, sql string, params map[string]any) (int64, error) {
	rebound, args, err := Rebind(sql, params)
	if err != nil {
		return 0, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	result := p.client.WithContext(ctx).Exec(rebound, args...)
	if result.Error != nil {
		return 0, wrapExecError(sql, result.Error)
	}
	return result.RowsAffected, nil
}

// ExecRaw runs a statement that carries no bound parameters, such as DDL.
// The caller is responsible for having validated every identifier in it.
func (p *Postgres) ExecRaw(ctx context.Context, sql string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if err := p.client.WithContext(ctx).Exec(sql).Error; err != nil {
		return wrapExecError(sql, err)
	}
	return nil
}

// Exists runs a query and reports whether it returned at least one row.
func (p *Postgres) Exists(ctx context.Context, sql string, params map[string]any) (bool, error) {
	rows, err := p.Execute(ctx, sql, params)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}
