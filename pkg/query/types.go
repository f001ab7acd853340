package query

import (
	"fmt"
	"strings"

	"github.com/Aleph-Alpha/pgsearch/pkg/condition"
)

// Mode selects how matching rows are found and ranked.
type Mode int

const (
	// ModeAuto lets the builder pick: hybrid when the index carries an
	// embedding column and a provider is configured, text-only otherwise.
	ModeAuto Mode = iota
	ModeTextOnly
	ModeVectorOnly
	ModeHybrid
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeTextOnly:
		return "text_only"
	case ModeVectorOnly:
		return "vector_only"
	case ModeHybrid:
		return "hybrid"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Direction is a validated sort direction.
type Direction string

const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)

// ParseDirection accepts "asc" and "desc" in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ASC", "":
		return Ascending, nil
	case "DESC":
		return Descending, nil
	default:
		return "", fmt.Errorf("invalid sort direction %q", s)
	}
}

// Sort orders results by an index field, the relevance pseudo-field, or the
// random pseudo-field.
type Sort struct {
	Field     string
	Direction Direction
}

// Keys is the parsed search-keys tree: a conjunction over terms and nested
// groups. A nil *Keys means the request is unkeyed.
type Keys struct {
	Conjunction condition.Conjunction
	Terms       []string
	Groups      []*Keys
}

// KeysFromString splits free text on whitespace into an AND group of terms.
func KeysFromString(s string) *Keys {
	terms := strings.Fields(s)
	if len(terms) == 0 {
		return nil
	}
	return &Keys{Conjunction: condition.And, Terms: terms}
}

// IsEmpty reports whether the tree contains no terms at all.
func (k *Keys) IsEmpty() bool {
	if k == nil {
		return true
	}
	if len(k.Terms) > 0 {
		return false
	}
	for _, g := range k.Groups {
		if !g.IsEmpty() {
			return false
		}
	}
	return true
}

// FlatText joins all terms depth-first with single spaces. It is the text
// handed to the embedding provider for vector and hybrid queries.
func (k *Keys) FlatText() string {
	if k == nil {
		return ""
	}
	parts := make([]string, 0, len(k.Terms))
	parts = append(parts, k.Terms...)
	for _, g := range k.Groups {
		if t := g.FlatText(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Facet requests value counts for one field over the matched set.
type Facet struct {
	Field string
	// Limit caps the number of returned values. Zero means the default;
	// out-of-range values are clamped.
	Limit int
	// MinCount drops values with fewer matches. Zero means no floor.
	MinCount int
}

// Request describes one search against an index.
type Request struct {
	Mode      Mode
	Keys      *Keys
	Condition condition.Node
	// Fields limits the selected columns; empty selects every index field.
	Fields []string
	// Languages filters on the language system column when non-empty.
	Languages []string
	Sorts     []Sort
	Limit     int
	Offset    int
}

// Artifact is a fully built, parameterized SQL statement. Every :name
// placeholder in SQL has a matching key in Params.
type Artifact struct {
	SQL    string
	Params map[string]any
	// Mode is the mode the query was actually built with, after any
	// provider-failure fallback.
	Mode Mode
}
