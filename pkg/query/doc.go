// Package query assembles the SQL for search requests against an index
// table: full-text, vector similarity, or a hybrid of both.
//
// A Builder turns a Request into an Artifact, a SQL string plus the named
// parameters it binds. Artifacts are inert; execution belongs to
// pkg/postgres. Three modes exist:
//
//   - TextOnly ranks by ts_rank over the tsvector column,
//   - VectorOnly ranks by cosine similarity of a query embedding against the
//     pgvector column,
//   - Hybrid blends both with configurable weights and matches rows
//     satisfying either predicate.
//
// Mode selection is automatic unless the request pins one: hybrid when the
// index stores vectors and an embedding provider is available, text-only
// otherwise. An embedding provider failure during vector or hybrid
// construction downgrades the query to text-only; it never fails the search.
// Malformed requests (unknown fields, bad operators, invalid sorts) do fail,
// synchronously, before any SQL is produced.
//
// The relevance column is always present in the generated SELECT, even for
// unkeyed queries, because the consuming framework reads it unconditionally.
package query
