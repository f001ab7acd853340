package schema

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/Aleph-Alpha/pgsearch/pkg/fieldmap"
	"github.com/Aleph-Alpha/pgsearch/pkg/identifier"
)

// System column names present on every index table. Conditions and sorts may
// reference these without the field existing in the index schema.
const (
	ColumnItemID     = "search_api_id"
	ColumnDatasource = "search_api_datasource"
	ColumnLanguage   = "search_api_language"
	ColumnRelevance  = "search_api_relevance"
	ColumnRandom     = "search_api_random"

	ColumnSearchVector = "search_vector"
	ColumnEmbedding    = "content_embedding"
)

// SystemFields maps the framework-level system field names to the physical
// column they resolve to. Relevance and random are virtual; they resolve to
// computed expressions rather than stored columns.
var SystemFields = map[string]string{
	ColumnItemID:     ColumnItemID,
	ColumnDatasource: ColumnDatasource,
	ColumnLanguage:   ColumnLanguage,
}

var indexIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Field describes one index field.
type Field struct {
	// ID is the field identifier; it doubles as the column name and must
	// pass identifier validation.
	ID string

	Type fieldmap.SemanticType

	Searchable bool
	Facetable  bool
	Sortable   bool

	// EmbeddingSource marks the field's text as input for embedding
	// generation.
	EmbeddingSource bool

	// Boost weights the field inside the tsvector ('A' > 'B' > 'C' > 'D').
	// Zero means the default weight 'D'.
	Boost float64

	// RequiresBooleanCast marks fields whose callers may bind integers for
	// boolean values; the condition translator adds an explicit ::boolean
	// cast on their placeholders.
	RequiresBooleanCast bool
}

// Index describes a search index and its fields.
type Index struct {
	// ID must match ^[a-z][a-z0-9_]*$.
	ID string

	Fields map[string]Field

	// VectorDimension > 0 enables the embedding column and vector search.
	VectorDimension int

	// AutoEmbed treats every text field as an embedding source when no field
	// is explicitly flagged.
	AutoEmbed bool
}

// Validate checks the index identifier, every field identifier, and the
// vector configuration. It is called before any SQL touching the index is
// generated.
func (idx *Index) Validate() error {
	if !indexIDPattern.MatchString(idx.ID) {
		return fmt.Errorf("schema: index id %q must match %s", idx.ID, indexIDPattern.String())
	}

	for id, field := range idx.Fields {
		if id != field.ID {
			return fmt.Errorf("schema: field map key %q does not match field id %q", id, field.ID)
		}
		if _, err := identifier.Validate(field.ID, identifier.KindColumn); err != nil {
			return err
		}
		if _, isSystem := SystemFields[field.ID]; isSystem {
			return fmt.Errorf("schema: field id %q collides with a system column", field.ID)
		}
		if field.Type == fieldmap.TypeVector && idx.VectorDimension <= 0 {
			return fmt.Errorf("schema: field %q is a vector but the index has no vector dimension", field.ID)
		}
	}
	return nil
}

// TableName returns the validated physical table name for the index under
// the given prefix.
func (idx *Index) TableName(prefix string) (identifier.Identifier, error) {
	if !indexIDPattern.MatchString(idx.ID) {
		return identifier.Identifier{}, fmt.Errorf("schema: index id %q must match %s", idx.ID, indexIDPattern.String())
	}
	return identifier.Validate(prefix+idx.ID, identifier.KindTable)
}

// HasVector reports whether the index stores embeddings.
func (idx *Index) HasVector() bool {
	return idx.VectorDimension > 0
}

// Column resolves a field or system field name to its physical column name.
// The second return is false when the name is neither.
func (idx *Index) Column(field string) (string, bool) {
	if column, ok := SystemFields[field]; ok {
		return column, true
	}
	if _, ok := idx.Fields[field]; ok {
		return field, true
	}
	return "", false
}

// FieldIDs returns the field identifiers in stable order.
func (idx *Index) FieldIDs() []string {
	ids := make([]string, 0, len(idx.Fields))
	for id := range idx.Fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SearchableFields returns the fields feeding the tsvector, in stable order.
func (idx *Index) SearchableFields() []Field {
	var fields []Field
	for _, id := range idx.FieldIDs() {
		if f := idx.Fields[id]; f.Searchable {
			fields = append(fields, f)
		}
	}
	return fields
}

// EmbeddingSourceFields returns the field identifiers contributing text to
// embedding generation: the explicitly flagged ones, or with AutoEmbed every
// text field.
func (idx *Index) EmbeddingSourceFields() []string {
	var explicit, auto []string
	for _, id := range idx.FieldIDs() {
		field := idx.Fields[id]
		if field.EmbeddingSource {
			explicit = append(explicit, id)
		}
		if field.Type == fieldmap.TypeText {
			auto = append(auto, id)
		}
	}
	if len(explicit) > 0 {
		return explicit
	}
	if idx.AutoEmbed {
		return auto
	}
	return nil
}
