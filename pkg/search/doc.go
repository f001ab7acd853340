// Package search executes compiled queries and shapes the database rows into
// typed results.
//
// The Service ties the layers together: it compiles a request with pkg/query,
// runs the resulting SQL through the database connector, converts row values
// back into their field types, and records traces and metrics around the
// round trip. Facets reuse the compiled request's WHERE clause, so a hybrid
// search with three facets costs one embedding call, not four.
package search
