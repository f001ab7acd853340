package query

import "fmt"

// InvalidSortError reports a sort on an unknown, unsortable, or otherwise
// unusable field.
type InvalidSortError struct {
	Field  string
	Reason string
}

func (e *InvalidSortError) Error() string {
	return fmt.Sprintf("query: cannot sort on %q: %s", e.Field, e.Reason)
}

// InvalidFacetError reports a facet on an unknown or non-facetable field.
type InvalidFacetError struct {
	Field  string
	Reason string
}

func (e *InvalidFacetError) Error() string {
	return fmt.Sprintf("query: cannot facet on %q: %s", e.Field, e.Reason)
}
