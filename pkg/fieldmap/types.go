package fieldmap

import "fmt"

// SemanticType is the closed set of schema-neutral field types an index field
// can have. Every semantic type maps to exactly one physical column type.
type SemanticType string

const (
	TypeText    SemanticType = "text"
	TypeString  SemanticType = "string"
	TypeInteger SemanticType = "integer"
	TypeDecimal SemanticType = "decimal"
	TypeDate    SemanticType = "date"
	TypeBoolean SemanticType = "boolean"
	TypeVector  SemanticType = "vector"
)

// TypeOptions carries the per-field configuration a physical type mapping
// may need. Only vector fields use it today.
type TypeOptions struct {
	// VectorDimension is the dimension for VECTOR(n) columns. Required when
	// the semantic type is TypeVector.
	VectorDimension int
}

// PhysicalType returns the PostgreSQL column type for a semantic type.
//
// Vector fields require a positive dimension in opts. Unrecognized semantic
// types fall back to TEXT; that keeps unknown framework types storable, at
// the cost of losing type-specific comparisons on them.
func PhysicalType(t SemanticType, opts TypeOptions) (string, error) {
	switch t {
	case TypeText:
		return "TEXT", nil
	case TypeString:
		return "VARCHAR(255)", nil
	case TypeInteger:
		return "BIGINT", nil
	case TypeDecimal:
		return "NUMERIC", nil
	case TypeDate:
		return "TIMESTAMP", nil
	case TypeBoolean:
		return "BOOLEAN", nil
	case TypeVector:
		if opts.VectorDimension <= 0 {
			return "", fmt.Errorf("fieldmap: vector field requires a positive dimension, got %d", opts.VectorDimension)
		}
		return fmt.Sprintf("VECTOR(%d)", opts.VectorDimension), nil
	default:
		return "TEXT", nil
	}
}
