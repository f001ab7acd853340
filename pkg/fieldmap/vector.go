package fieldmap

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatVector encodes a vector as the pgvector literal "[v1,v2,...]".
func FormatVector(vec []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// ParseVector decodes a pgvector literal back into a float slice.
//
// A component that does not parse as a float is an error. The lenient
// alternative (coercing garbage to 0.0) would silently corrupt similarity
// scores downstream.
func ParseVector(s string) ([]float32, error) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return nil, fmt.Errorf("fieldmap: vector literal must be bracketed, got %q", s)
	}

	inner := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	if inner == "" {
		return []float32{}, nil
	}

	parts := strings.Split(inner, ",")
	vec := make([]float32, len(parts))
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("fieldmap: vector component %d (%q) is not numeric: %w", i, part, err)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}

// ValidateDimension checks that vec has exactly the configured dimension.
// It must be called before any INSERT or UPDATE binds the vector.
func ValidateDimension(vec []float32, dimension int) error {
	if len(vec) != dimension {
		return fmt.Errorf("fieldmap: vector has %d dimensions, column expects %d", len(vec), dimension)
	}
	return nil
}
