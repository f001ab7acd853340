// Package schema models search indexes and manages their physical PostgreSQL
// footprint.
//
// An Index maps an abstract index identifier to one table holding the system
// columns, one typed column per index field, a tsvector document column, and
// optionally a pgvector embedding column. The Manager generates and executes
// the supporting DDL: the table itself, a GIN index over the tsvector, a
// vector similarity index (HNSW preferred, IVFFlat as fallback), B-tree
// indexes for facetable and sortable fields, and the trigger/function pair
// that recomputes the tsvector on every insert or update.
//
// Vector-capable indexes require the pgvector extension; its absence is a
// deployment error surfaced as *VectorExtensionUnavailableError, never a
// silent downgrade.
package schema
