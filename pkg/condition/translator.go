package condition

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/Aleph-Alpha/pgsearch/pkg/identifier"
	"github.com/Aleph-Alpha/pgsearch/pkg/schema"
)

// Options customizes translation.
type Options struct {
	// Expressions maps virtual field names to the SQL expression their leaves
	// compare against. Fields named here take precedence over schema
	// resolution; callers use this for computed fields like relevance, which
	// have no stored column.
	Expressions map[string]string

	// Reserved lists parameter names the translator must not generate, so the
	// returned params can be merged into a wider parameter map without
	// collisions.
	Reserved []string
}

// Translate lowers a condition tree into a WHERE clause fragment and its
// parameter map. The fragment uses named placeholders (":name"); every
// placeholder has exactly one entry in the parameter map.
//
// Translation is pure: it never touches the database, and a malformed tree
// (unknown field, unsupported operator, wrong arity) fails here rather than
// at execution time.
func Translate(node Node, index *schema.Index) (string, map[string]any, error) {
	return TranslateWith(node, index, Options{})
}

// TranslateWith is Translate with virtual field expressions and reserved
// parameter names.
func TranslateWith(node Node, index *schema.Index, opts Options) (string, map[string]any, error) {
	tr := &translator{
		index:       index,
		params:      map[string]any{},
		taken:       map[string]bool{},
		expressions: opts.Expressions,
	}
	for _, name := range opts.Reserved {
		tr.taken[name] = true
	}
	clause, err := tr.translateNode(node)
	if err != nil {
		return "", nil, err
	}
	return clause, tr.params, nil
}

type translator struct {
	index       *schema.Index
	params      map[string]any
	taken       map[string]bool
	expressions map[string]string
}

func (t *translator) translateNode(node Node) (string, error) {
	switch n := node.(type) {
	case *Condition:
		return t.translateCondition(n)
	case *Group:
		return t.translateGroup(n)
	default:
		return "", fmt.Errorf("condition: unknown node type %T", node)
	}
}

func (t *translator) translateGroup(group *Group) (string, error) {
	if len(group.Nodes) == 0 {
		return "", nil
	}

	var parts []string
	for _, child := range group.Nodes {
		clause, err := t.translateNode(child)
		if err != nil {
			return "", err
		}
		if clause == "" {
			continue
		}
		if _, isGroup := child.(*Group); isGroup {
			clause = "(" + clause + ")"
		}
		parts = append(parts, clause)
	}

	return strings.Join(parts, " "+group.Conjunction.String()+" "), nil
}

func (t *translator) translateCondition(cond *Condition) (string, error) {
	lhs, err := t.leftHandSide(cond.Field)
	if err != nil {
		return "", err
	}

	switch cond.Operator {
	case OpEquals, OpNotEquals, OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		return t.binaryComparison(cond, lhs)

	case OpIn, OpNotIn:
		return t.inList(cond, lhs)

	case OpBetween, OpNotBetween:
		return t.between(cond, lhs)

	case OpContains, OpStartsWith, OpEndsWith:
		return t.pattern(cond, lhs)

	case OpIsNull:
		return lhs + " IS NULL", nil

	case OpIsNotNull:
		return lhs + " IS NOT NULL", nil

	default:
		return "", &UnsupportedOperatorError{Operator: cond.Operator.String()}
	}
}

// leftHandSide resolves a leaf's field to the SQL it compares against: a
// caller-supplied expression for virtual fields, otherwise the quoted column.
func (t *translator) leftHandSide(field string) (string, error) {
	if expr, ok := t.expressions[field]; ok {
		return expr, nil
	}
	columnName, ok := t.index.Column(field)
	if !ok {
		return "", &UnknownFieldError{Field: field, Index: t.index.ID}
	}
	column, err := identifier.Validate(columnName, identifier.KindColumn)
	if err != nil {
		return "", err
	}
	return column.Quoted(), nil
}

func (t *translator) binaryComparison(cond *Condition, lhs string) (string, error) {
	placeholder := t.placeholder(cond.Field)
	t.params[placeholder] = cond.Value

	cast := ""
	if t.needsBooleanCast(cond) {
		cast = "::boolean"
	}

	return fmt.Sprintf("%s %s :%s%s", lhs, cond.Operator.String(), placeholder, cast), nil
}

// needsBooleanCast reports whether the placeholder should carry an explicit
// ::boolean cast: the field is flagged for it and the caller bound a numeric
// value for what the column stores as boolean.
func (t *translator) needsBooleanCast(cond *Condition) bool {
	field, ok := t.index.Fields[cond.Field]
	if !ok || !field.RequiresBooleanCast {
		return false
	}
	switch cond.Value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}

func (t *translator) inList(cond *Condition, lhs string) (string, error) {
	values, ok := asSlice(cond.Value)
	if !ok {
		return "", &ArityError{Field: cond.Field, Operator: cond.Operator, Detail: "value must be a slice"}
	}

	// Empty lists must stay well-formed SQL: IN () is a syntax error.
	if len(values) == 0 {
		if cond.Operator == OpIn {
			return "1 = 0", nil
		}
		return "1 = 1", nil
	}

	placeholders := make([]string, len(values))
	for i, value := range values {
		name := t.placeholder(fmt.Sprintf("%s_in_%d", cond.Field, i))
		t.params[name] = value
		placeholders[i] = ":" + name
	}

	return fmt.Sprintf("%s %s (%s)", lhs, cond.Operator.String(), strings.Join(placeholders, ", ")), nil
}

func (t *translator) between(cond *Condition, lhs string) (string, error) {
	values, ok := asSlice(cond.Value)
	if !ok || len(values) != 2 {
		return "", &ArityError{Field: cond.Field, Operator: cond.Operator, Detail: "value must be a two-element slice"}
	}

	minName := t.placeholder(cond.Field + "_min")
	maxName := t.placeholder(cond.Field + "_max")
	t.params[minName] = values[0]
	t.params[maxName] = values[1]

	return fmt.Sprintf("%s %s :%s AND :%s", lhs, cond.Operator.String(), minName, maxName), nil
}

func (t *translator) pattern(cond *Condition, lhs string) (string, error) {
	text, ok := cond.Value.(string)
	if !ok {
		return "", &ArityError{Field: cond.Field, Operator: cond.Operator, Detail: "value must be a string"}
	}

	escaped := escapeLikePattern(text)
	var pattern string
	switch cond.Operator {
	case OpContains:
		pattern = "%" + escaped + "%"
	case OpStartsWith:
		pattern = escaped + "%"
	case OpEndsWith:
		pattern = "%" + escaped
	}

	placeholder := t.placeholder(cond.Field)
	t.params[placeholder] = pattern

	return fmt.Sprintf("%s ILIKE :%s", lhs, placeholder), nil
}

// placeholder reserves a parameter name, appending a numeric suffix until the
// name collides with nothing bound or reserved before it. All generated
// names, including list and range suffixes, share one namespace: a field
// literally named like another field's generated name never silently rebinds
// its parameter.
func (t *translator) placeholder(name string) string {
	actual := name
	for i := 2; ; i++ {
		if !t.taken[actual] {
			break
		}
		actual = fmt.Sprintf("%s_%d", name, i)
	}
	t.taken[actual] = true
	return actual
}

// escapeLikePattern escapes LIKE metacharacters in user input so a value
// containing "%" or "_" matches literally.
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// asSlice normalizes any slice value into []any.
func asSlice(value any) ([]any, bool) {
	if value == nil {
		return nil, false
	}
	if values, ok := value.([]any); ok {
		return values, true
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
