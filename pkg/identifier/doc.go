// Package identifier validates PostgreSQL identifiers (table, column, index,
// trigger and function names) before they are interpolated into SQL text.
//
// Identifiers can never be bound as query parameters, so every component that
// writes an identifier into generated SQL must pass it through Validate first.
// This package is the single chokepoint defending against SQL injection via
// metadata: a name is accepted only when it matches the PostgreSQL identifier
// grammar, stays within the 63-character limit, and is not a reserved word.
//
// Basic usage:
//
//	ident, err := identifier.Validate("search_api_language", identifier.KindColumn)
//	if err != nil {
//	    return err
//	}
//	sql := "SELECT " + ident.Quoted() + " FROM ..."
//
// Validation is a pure function over a static reserved-word set and is safe
// for concurrent use.
package identifier
