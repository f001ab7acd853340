package condition

import "fmt"

// UnknownFieldError reports a condition or sort referencing a field that is
// neither a system field nor part of the index schema.
type UnknownFieldError struct {
	Field string
	Index string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("condition: field %q does not exist in index %q", e.Field, e.Index)
}

// UnsupportedOperatorError reports an operator string outside the supported set.
type UnsupportedOperatorError struct {
	Operator string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("condition: unsupported operator %q", e.Operator)
}

// UnsupportedConjunctionError reports a conjunction string other than AND/OR.
type UnsupportedConjunctionError struct {
	Conjunction string
}

func (e *UnsupportedConjunctionError) Error() string {
	return fmt.Sprintf("condition: unsupported conjunction %q", e.Conjunction)
}

// ArityError reports an operator applied to a value with the wrong shape,
// such as BETWEEN without exactly two bounds.
type ArityError struct {
	Field    string
	Operator Operator
	Detail   string
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("condition: %s on field %q: %s", e.Operator, e.Field, e.Detail)
}
