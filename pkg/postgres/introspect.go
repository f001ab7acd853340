package postgres

import (
	"context"
	"fmt"

	"github.com/Aleph-Alpha/pgsearch/pkg/identifier"
)

// QuoteTableName validates and quotes a table name for SQL interpolation.
func (p *Postgres) QuoteTableName(name string) (string, error) {
	ident, err := identifier.Validate(name, identifier.KindTable)
	if err != nil {
		return "", err
	}
	return ident.Quoted(), nil
}

// QuoteColumnName validates and quotes a column name for SQL interpolation.
func (p *Postgres) QuoteColumnName(name string) (string, error) {
	ident, err := identifier.Validate(name, identifier.KindColumn)
	if err != nil {
		return "", err
	}
	return ident.Quoted(), nil
}

// TableExists reports whether a table exists in the public schema. The name
// is validated but bound as a parameter; introspection queries never
// interpolate it.
func (p *Postgres) TableExists(ctx context.Context, name string) (bool, error) {
	if _, err := identifier.Validate(name, identifier.KindTable); err != nil {
		return false, err
	}

	return p.Exists(ctx,
		"SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = :name",
		map[string]any{"name": name})
}

// Column describes one column of an existing table.
type Column struct {
	Name     string
	DataType string
	Nullable bool
}

// GetColumns returns the columns of a table in ordinal order.
func (p *Postgres) GetColumns(ctx context.Context, table string) ([]Column, error) {
	if _, err := identifier.Validate(table, identifier.KindTable); err != nil {
		return nil, err
	}

	rows, err := p.Execute(ctx,
		`SELECT column_name, data_type, is_nullable
		 FROM information_schema.columns
		 WHERE table_schema = 'public' AND table_name = :table
		 ORDER BY ordinal_position`,
		map[string]any{"table": table})
	if err != nil {
		return nil, err
	}

	columns := make([]Column, 0, len(rows))
	for _, row := range rows {
		name, _ := row["column_name"].(string)
		dataType, _ := row["data_type"].(string)
		nullable, _ := row["is_nullable"].(string)
		if name == "" {
			return nil, fmt.Errorf("postgres: unexpected introspection row %v", row)
		}
		columns = append(columns, Column{
			Name:     name,
			DataType: dataType,
			Nullable: nullable == "YES",
		})
	}
	return columns, nil
}
