package query

import (
	"fmt"
	"strings"

	"github.com/Aleph-Alpha/pgsearch/pkg/identifier"
)

// Facet assembles a value-count aggregation over the rows matched by the
// compiled request. NULL values are excluded from the counts.
func (c *Compiled) Facet(facet Facet) (*Artifact, error) {
	column, err := c.facetColumn(facet.Field)
	if err != nil {
		return nil, err
	}

	limit := facet.Limit
	switch {
	case limit == 0:
		limit = defaultFacetLimit
	case limit < 1:
		limit = 1
	case limit > maxFacetLimit:
		limit = maxFacetLimit
	}

	where := make([]string, 0, len(c.where)+1)
	where = append(where, c.where...)
	where = append(where, column.Quoted()+" IS NOT NULL")

	params := c.cloneParams()

	var sb strings.Builder
	fmt.Fprintf(&sb, `SELECT %s AS "value", COUNT(*) AS "count" FROM %s WHERE %s GROUP BY %s`,
		column.Quoted(), c.table.Quoted(), strings.Join(where, " AND "), column.Quoted())

	if facet.MinCount > 1 {
		name := "facet_min_count"
		for i := 2; ; i++ {
			if _, taken := params[name]; !taken {
				break
			}
			name = fmt.Sprintf("facet_min_count_%d", i)
		}
		params[name] = facet.MinCount
		fmt.Fprintf(&sb, " HAVING COUNT(*) >= :%s", name)
	}

	fmt.Fprintf(&sb, ` ORDER BY "count" DESC, "value" ASC LIMIT %d`, limit)

	return &Artifact{SQL: sb.String(), Params: params, Mode: c.Mode}, nil
}

// facetColumn resolves and authorizes the facet field: system columns are
// always allowed, index fields must be flagged facetable.
func (c *Compiled) facetColumn(field string) (identifier.Identifier, error) {
	if field == "" {
		return identifier.Identifier{}, &InvalidFacetError{Field: field, Reason: "field must not be empty"}
	}

	column, ok := c.index.Column(field)
	if !ok {
		return identifier.Identifier{}, &InvalidFacetError{Field: field, Reason: "unknown field"}
	}
	if f, isField := c.index.Fields[field]; isField && !f.Facetable {
		return identifier.Identifier{}, &InvalidFacetError{Field: field, Reason: "field is not facetable"}
	}
	return identifier.Validate(column, identifier.KindColumn)
}
