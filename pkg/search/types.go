package search

import "github.com/Aleph-Alpha/pgsearch/pkg/query"

// Hit is one matched item.
type Hit struct {
	ItemID     string
	Datasource string
	Language   string

	// Relevance is the ranking score: ts_rank for text searches, cosine
	// similarity for vector searches, the weighted blend for hybrid ones,
	// and 1.0 for unkeyed queries.
	Relevance float64

	// TextScore, VectorScore, and HybridScore carry the individual score
	// components of a hybrid search. They are zero in other modes.
	TextScore   float64
	VectorScore float64
	HybridScore float64

	// Fields holds the requested field values, converted back to their
	// semantic types. Absent values are not in the map.
	Fields map[string]any
}

// FacetValue is one value bucket of a facet.
type FacetValue struct {
	Value string
	Count int64
}

// Result is the outcome of one search.
type Result struct {
	Hits []Hit

	// Mode is the mode the search actually ran with, after any fallback.
	Mode query.Mode

	// Facets is keyed by facet field, present only when facets were
	// requested.
	Facets map[string][]FacetValue
}
