package schema

import (
	"fmt"
	"strings"

	"github.com/Aleph-Alpha/pgsearch/pkg/fieldmap"
	"github.com/Aleph-Alpha/pgsearch/pkg/identifier"
)

// ddlBuilder generates the DDL statements for one index. All identifiers are
// validated before interpolation; any invalid name aborts generation.
type ddlBuilder struct {
	index          *Index
	table          identifier.Identifier
	fulltextConfig string
}

func newDDLBuilder(index *Index, prefix, fulltextConfig string) (*ddlBuilder, error) {
	if err := index.Validate(); err != nil {
		return nil, err
	}
	// The configuration name is interpolated into to_tsvector calls; it has
	// to pass the identifier grammar.
	if !indexIDPattern.MatchString(fulltextConfig) {
		return nil, fmt.Errorf("schema: invalid fulltext configuration name %q", fulltextConfig)
	}
	table, err := index.TableName(prefix)
	if err != nil {
		return nil, err
	}
	return &ddlBuilder{index: index, table: table, fulltextConfig: fulltextConfig}, nil
}

// createTable builds the CREATE TABLE statement with system columns, one
// column per field, the tsvector column, and the embedding column when the
// index is vector-capable.
func (b *ddlBuilder) createTable() (string, error) {
	columns := []string{
		quoted(ColumnItemID) + " VARCHAR(255) PRIMARY KEY",
		quoted(ColumnDatasource) + " VARCHAR(255)",
		quoted(ColumnLanguage) + " VARCHAR(12)",
	}

	for _, id := range b.index.FieldIDs() {
		field := b.index.Fields[id]
		column, err := identifier.Validate(field.ID, identifier.KindColumn)
		if err != nil {
			return "", err
		}
		physical, err := fieldmap.PhysicalType(field.Type, fieldmap.TypeOptions{
			VectorDimension: b.index.VectorDimension,
		})
		if err != nil {
			return "", err
		}
		columns = append(columns, column.Quoted()+" "+physical)
	}

	columns = append(columns, quoted(ColumnSearchVector)+" TSVECTOR")
	if b.index.HasVector() {
		columns = append(columns, fmt.Sprintf("%s VECTOR(%d)", quoted(ColumnEmbedding), b.index.VectorDimension))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", b.table.Quoted(), strings.Join(columns, ",\n  ")), nil
}

// fulltextIndex builds the GIN index over the tsvector column.
func (b *ddlBuilder) fulltextIndex() (string, error) {
	name, err := identifier.Validate(b.table.String()+"_ft_idx", identifier.KindIndex)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE INDEX %s ON %s USING GIN (%s)",
		name.Quoted(), b.table.Quoted(), quoted(ColumnSearchVector)), nil
}

// vectorIndexHNSW and vectorIndexIVFFlat build the two similarity index
// variants. HNSW is attempted first; IVFFlat covers pgvector builds that
// predate HNSW support.
func (b *ddlBuilder) vectorIndexHNSW() (string, error) {
	name, err := identifier.Validate(b.table.String()+"_emb_idx", identifier.KindIndex)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE INDEX %s ON %s USING hnsw (%s vector_cosine_ops)",
		name.Quoted(), b.table.Quoted(), quoted(ColumnEmbedding)), nil
}

func (b *ddlBuilder) vectorIndexIVFFlat() (string, error) {
	name, err := identifier.Validate(b.table.String()+"_emb_idx", identifier.KindIndex)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE INDEX %s ON %s USING ivfflat (%s vector_cosine_ops) WITH (lists = 100)",
		name.Quoted(), b.table.Quoted(), quoted(ColumnEmbedding)), nil
}

// fieldIndexes builds one B-tree index per facetable or sortable field.
func (b *ddlBuilder) fieldIndexes() ([]string, error) {
	var statements []string
	for _, id := range b.index.FieldIDs() {
		field := b.index.Fields[id]
		if !field.Facetable && !field.Sortable {
			continue
		}
		name, err := identifier.Validate(b.table.String()+"_"+field.ID+"_idx", identifier.KindIndex)
		if err != nil {
			return nil, err
		}
		column, err := identifier.Validate(field.ID, identifier.KindColumn)
		if err != nil {
			return nil, err
		}
		statements = append(statements, fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
			name.Quoted(), b.table.Quoted(), column.Quoted()))
	}
	return statements, nil
}

// tsvectorFunction builds the trigger function recomputing search_vector
// from the searchable fields, applying per-field boost weights.
func (b *ddlBuilder) tsvectorFunction() (string, error) {
	function, err := identifier.Validate(b.table.String()+"_tsv_update", identifier.KindFunction)
	if err != nil {
		return "", err
	}

	searchable := b.index.SearchableFields()
	var terms []string
	for _, field := range searchable {
		column, err := identifier.Validate(field.ID, identifier.KindColumn)
		if err != nil {
			return "", err
		}
		expr := fmt.Sprintf("COALESCE(NEW.%s::text, '')", column.Quoted())
		terms = append(terms, fmt.Sprintf("setweight(to_tsvector('%s', %s), '%s')",
			b.fulltextConfig, expr, boostWeight(field.Boost)))
	}
	if len(terms) == 0 {
		terms = append(terms, fmt.Sprintf("to_tsvector('%s', '')", b.fulltextConfig))
	}

	return fmt.Sprintf(`CREATE OR REPLACE FUNCTION %s() RETURNS trigger AS $$
BEGIN
  NEW.%s := %s;
  RETURN NEW;
END
$$ LANGUAGE plpgsql`, function.Quoted(), quoted(ColumnSearchVector), strings.Join(terms, " || ")), nil
}

// tsvectorTrigger builds the BEFORE INSERT OR UPDATE trigger invoking the
// function from tsvectorFunction.
func (b *ddlBuilder) tsvectorTrigger() (string, error) {
	trigger, err := identifier.Validate(b.table.String()+"_tsv_trg", identifier.KindTrigger)
	if err != nil {
		return "", err
	}
	function, err := identifier.Validate(b.table.String()+"_tsv_update", identifier.KindFunction)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE TRIGGER %s BEFORE INSERT OR UPDATE ON %s FOR EACH ROW EXECUTE FUNCTION %s()",
		trigger.Quoted(), b.table.Quoted(), function.Quoted()), nil
}

func (b *ddlBuilder) dropTable() string {
	return "DROP TABLE IF EXISTS " + b.table.Quoted() + " CASCADE"
}

func (b *ddlBuilder) dropFunction() (string, error) {
	function, err := identifier.Validate(b.table.String()+"_tsv_update", identifier.KindFunction)
	if err != nil {
		return "", err
	}
	return "DROP FUNCTION IF EXISTS " + function.Quoted() + "() CASCADE", nil
}

// addField builds the ALTER TABLE statement for a new field. Changing an
// existing field's type is not supported; drop and recreate the index.
func (b *ddlBuilder) addField(field Field) (string, error) {
	column, err := identifier.Validate(field.ID, identifier.KindColumn)
	if err != nil {
		return "", err
	}
	physical, err := fieldmap.PhysicalType(field.Type, fieldmap.TypeOptions{
		VectorDimension: b.index.VectorDimension,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", b.table.Quoted(), column.Quoted(), physical), nil
}

// boostWeight maps a field boost onto a tsvector weight class.
func boostWeight(boost float64) string {
	switch {
	case boost >= 5:
		return "A"
	case boost >= 3:
		return "B"
	case boost >= 1.5:
		return "C"
	default:
		return "D"
	}
}

// quoted wraps one of the package's own column constants. Those names are
// compile-time constants that already satisfy the identifier grammar.
func quoted(column string) string {
	return identifier.MustValidate(column, identifier.KindColumn).Quoted()
}
