package query

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Aleph-Alpha/pgsearch/pkg/fieldmap"
	"github.com/Aleph-Alpha/pgsearch/pkg/identifier"
	"github.com/Aleph-Alpha/pgsearch/pkg/schema"
)

// BuildAutocomplete assembles a suggestion query for partially typed input.
// The last word is matched as a prefix; ts_headline extracts the completed
// words from matching rows. Suggestions no longer than the typed input are
// filtered out so callers never see the input echoed back.
func (b *Builder) BuildAutocomplete(index *schema.Index, input string) (*Artifact, error) {
	if err := index.Validate(); err != nil {
		return nil, err
	}
	table, err := index.TableName(b.prefix)
	if err != nil {
		return nil, err
	}

	words := strings.Fields(input)
	terms := make([]string, 0, len(words))
	for _, word := range words {
		if clean := sanitizeTerm(word); clean != "" {
			terms = append(terms, clean)
		}
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("query: autocomplete input %q contains no usable terms", input)
	}
	terms[len(terms)-1] += ":*"

	source, err := b.headlineSource(index)
	if err != nil {
		return nil, err
	}

	// length() counts characters server-side, so the comparison value has to
	// be a rune count, not len().
	params := map[string]any{
		"ts_query":     strings.Join(terms, " & "),
		"input_length": utf8.RuneCountInString(strings.TrimSpace(input)),
	}

	sql := fmt.Sprintf(
		`SELECT DISTINCT "suggestion" FROM (`+
			`SELECT ts_headline('%s', %s, to_tsquery('%s', :ts_query), 'StartSel = "", StopSel = "", MaxWords = 2, MinWords = 1') AS "suggestion" `+
			`FROM %s WHERE %s @@ to_tsquery('%s', :ts_query)`+
			`) AS "matches" WHERE length("suggestion") > :input_length LIMIT %d`,
		b.cfg.FulltextConfig, source, b.cfg.FulltextConfig,
		table.Quoted(), quoted(schema.ColumnSearchVector), b.cfg.FulltextConfig,
		autocompleteLimit,
	)

	return &Artifact{SQL: sql, Params: params, Mode: ModeTextOnly}, nil
}

// headlineSource concatenates the searchable text columns into one headline
// input expression.
func (b *Builder) headlineSource(index *schema.Index) (string, error) {
	var parts []string
	for _, field := range index.SearchableFields() {
		if field.Type != fieldmap.TypeText && field.Type != fieldmap.TypeString {
			continue
		}
		column, err := identifier.Validate(field.ID, identifier.KindColumn)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("COALESCE(%s::text, '')", column.Quoted()))
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("query: index %q has no searchable text fields for autocomplete", index.ID)
	}
	return strings.Join(parts, " || ' ' || "), nil
}
