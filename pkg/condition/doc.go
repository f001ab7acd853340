// Package condition models a search query's boolean filter tree and lowers
// it to a parameterized SQL WHERE clause.
//
// A tree is built from Condition leaves (field, operator, value) and Group
// nodes (AND/OR over children). Translation resolves every leaf field against
// the target index's schema, validates the column identifier, and emits one
// named placeholder per bound value:
//
//	group := condition.AndGroup(
//	    condition.New("category", condition.OpEquals, "news"),
//	    condition.OrGroup(
//	        condition.New("created", condition.OpGreater, 1700000000),
//	        condition.New("status", condition.OpEquals, true),
//	    ),
//	)
//	clause, params, err := condition.Translate(group, index)
//
// TranslateWith additionally resolves virtual fields to caller-supplied SQL
// expressions and keeps generated parameter names out of a reserved set.
//
// Operators and conjunctions are closed enums: an unknown operator string is
// an *UnsupportedOperatorError at parse time instead of SQL that silently
// does the wrong thing.
package condition
