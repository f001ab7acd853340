package fieldmap

import "strings"

// EmbeddingText concatenates the prepared text of the named source fields,
// in the order given, into the document text handed to the embedding
// provider.
//
// Fields that are missing, nil, or non-textual contribute nothing. An empty
// result means the item has no embeddable content; callers skip embedding
// generation for it rather than treating that as an error.
func EmbeddingText(values map[string]any, sourceFields []string) string {
	var parts []string
	for _, field := range sourceFields {
		value, ok := values[field]
		if !ok || value == nil {
			continue
		}

		s, err := stringify(value)
		if err != nil {
			continue
		}

		if prepared := PrepareText(s); prepared != "" {
			parts = append(parts, prepared)
		}
	}
	return strings.Join(parts, " ")
}
