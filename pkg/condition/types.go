package condition

// Operator is the closed set of comparison operators a condition may use.
type Operator int

const (
	OpEquals Operator = iota
	OpNotEquals
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpIn
	OpNotIn
	OpBetween
	OpNotBetween
	OpContains
	OpStartsWith
	OpEndsWith
	OpIsNull
	OpIsNotNull
)

var operatorNames = map[Operator]string{
	OpEquals:       "=",
	OpNotEquals:    "<>",
	OpLess:         "<",
	OpLessEqual:    "<=",
	OpGreater:      ">",
	OpGreaterEqual: ">=",
	OpIn:           "IN",
	OpNotIn:        "NOT IN",
	OpBetween:      "BETWEEN",
	OpNotBetween:   "NOT BETWEEN",
	OpContains:     "CONTAINS",
	OpStartsWith:   "STARTS_WITH",
	OpEndsWith:     "ENDS_WITH",
	OpIsNull:       "IS NULL",
	OpIsNotNull:    "IS NOT NULL",
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return "unknown"
}

// ParseOperator maps the framework's operator strings onto the enum. "!=" is
// accepted as an alias for "<>". Anything else is an *UnsupportedOperatorError.
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "=":
		return OpEquals, nil
	case "<>", "!=":
		return OpNotEquals, nil
	case "<":
		return OpLess, nil
	case "<=":
		return OpLessEqual, nil
	case ">":
		return OpGreater, nil
	case ">=":
		return OpGreaterEqual, nil
	case "IN":
		return OpIn, nil
	case "NOT IN":
		return OpNotIn, nil
	case "BETWEEN":
		return OpBetween, nil
	case "NOT BETWEEN":
		return OpNotBetween, nil
	case "CONTAINS":
		return OpContains, nil
	case "STARTS_WITH":
		return OpStartsWith, nil
	case "ENDS_WITH":
		return OpEndsWith, nil
	case "IS NULL":
		return OpIsNull, nil
	case "IS NOT NULL":
		return OpIsNotNull, nil
	default:
		return 0, &UnsupportedOperatorError{Operator: s}
	}
}

// Conjunction joins the children of a Group. The zero value is And.
type Conjunction int

const (
	And Conjunction = iota
	Or
)

func (c Conjunction) String() string {
	if c == Or {
		return "OR"
	}
	return "AND"
}

// ParseConjunction accepts "AND" and "OR". Unknown strings are an error
// rather than a silent AND.
func ParseConjunction(s string) (Conjunction, error) {
	switch s {
	case "AND":
		return And, nil
	case "OR":
		return Or, nil
	default:
		return 0, &UnsupportedConjunctionError{Conjunction: s}
	}
}

// Node is either a *Condition or a *Group.
type Node interface {
	isConditionNode()
}

// Condition is a leaf predicate over one field.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func (*Condition) isConditionNode() {}

// Group combines child nodes with one conjunction.
type Group struct {
	Conjunction Conjunction
	Nodes       []Node
}

func (*Group) isConditionNode() {}

// New builds a leaf condition.
func New(field string, op Operator, value any) *Condition {
	return &Condition{Field: field, Operator: op, Value: value}
}

// AndGroup builds an AND group over the given nodes.
func AndGroup(nodes ...Node) *Group {
	return &Group{Conjunction: And, Nodes: nodes}
}

// OrGroup builds an OR group over the given nodes.
func OrGroup(nodes ...Node) *Group {
	return &Group{Conjunction: Or, Nodes: nodes}
}
