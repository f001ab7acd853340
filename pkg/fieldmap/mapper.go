package fieldmap

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// PrepareText strips HTML tags from s and collapses runs of whitespace into
// single spaces. Indexed text and embedding source text both go through this.
func PrepareText(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, " ")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ToStorage converts a domain value into the representation bound when
// writing the value to its PostgreSQL column.
func ToStorage(value any, t SemanticType) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch t {
	case TypeText, TypeString:
		s, err := stringify(value)
		if err != nil {
			return nil, err
		}
		return PrepareText(s), nil

	case TypeInteger:
		switch v := value.(type) {
		case int:
			return int64(v), nil
		case int32:
			return int64(v), nil
		case int64:
			return v, nil
		case float64:
			return int64(v), nil
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("fieldmap: integer value %q: %w", v, err)
			}
			return n, nil
		default:
			return nil, fmt.Errorf("fieldmap: cannot store %T as integer", value)
		}

	case TypeDecimal:
		switch v := value.(type) {
		case float32:
			return float64(v), nil
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("fieldmap: decimal value %q: %w", v, err)
			}
			return f, nil
		default:
			return nil, fmt.Errorf("fieldmap: cannot store %T as decimal", value)
		}

	case TypeDate:
		switch v := value.(type) {
		case time.Time:
			return v.UTC().Format("2006-01-02 15:04:05"), nil
		case int:
			return time.Unix(int64(v), 0).UTC().Format("2006-01-02 15:04:05"), nil
		case int64:
			return time.Unix(v, 0).UTC().Format("2006-01-02 15:04:05"), nil
		case string:
			// Preformatted timestamps pass through unchanged.
			return v, nil
		default:
			return nil, fmt.Errorf("fieldmap: cannot store %T as date", value)
		}

	case TypeBoolean:
		switch v := value.(type) {
		case bool:
			return v, nil
		case int:
			return v != 0, nil
		case int64:
			return v != 0, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("fieldmap: boolean value %q: %w", v, err)
			}
			return b, nil
		default:
			return nil, fmt.Errorf("fieldmap: cannot store %T as boolean", value)
		}

	case TypeVector:
		switch v := value.(type) {
		case string:
			// Already in "[..]" literal form.
			return v, nil
		case []float32:
			return FormatVector(v), nil
		case []float64:
			vec := make([]float32, len(v))
			for i, f := range v {
				vec[i] = float32(f)
			}
			return FormatVector(vec), nil
		default:
			return nil, fmt.Errorf("fieldmap: cannot store %T as vector", value)
		}

	default:
		s, err := stringify(value)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// FromStorage converts a value read from PostgreSQL back into its domain
// representation.
func FromStorage(value any, t SemanticType) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch t {
	case TypeText, TypeString:
		return stringify(value)

	case TypeInteger:
		switch v := value.(type) {
		case int64:
			return v, nil
		case int32:
			return int64(v), nil
		case float64:
			return int64(v), nil
		case []byte:
			n, err := strconv.ParseInt(string(v), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("fieldmap: stored integer %q: %w", v, err)
			}
			return n, nil
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("fieldmap: stored integer %q: %w", v, err)
			}
			return n, nil
		default:
			return nil, fmt.Errorf("fieldmap: unexpected stored integer type %T", value)
		}

	case TypeDecimal:
		switch v := value.(type) {
		case float64:
			return v, nil
		case []byte:
			f, err := strconv.ParseFloat(string(v), 64)
			if err != nil {
				return nil, fmt.Errorf("fieldmap: stored decimal %q: %w", v, err)
			}
			return f, nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("fieldmap: stored decimal %q: %w", v, err)
			}
			return f, nil
		default:
			return nil, fmt.Errorf("fieldmap: unexpected stored decimal type %T", value)
		}

	case TypeDate:
		switch v := value.(type) {
		case time.Time:
			return v, nil
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		default:
			return nil, fmt.Errorf("fieldmap: unexpected stored date type %T", value)
		}

	case TypeBoolean:
		switch v := value.(type) {
		case bool:
			return v, nil
		case int64:
			return v != 0, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("fieldmap: stored boolean %q: %w", v, err)
			}
			return b, nil
		default:
			return nil, fmt.Errorf("fieldmap: unexpected stored boolean type %T", value)
		}

	case TypeVector:
		switch v := value.(type) {
		case string:
			return ParseVector(v)
		case []byte:
			return ParseVector(string(v))
		case []float32:
			return v, nil
		default:
			return nil, fmt.Errorf("fieldmap: unexpected stored vector type %T", value)
		}

	default:
		return stringify(value)
	}
}

func stringify(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	case int, int32, int64, float32, float64, bool:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("fieldmap: cannot convert %T to string", value)
	}
}
