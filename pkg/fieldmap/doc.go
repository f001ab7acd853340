// Package fieldmap translates between the schema-neutral field model and
// PostgreSQL storage.
//
// It owns three concerns:
//
//   - the deterministic mapping from a semantic field type to a physical
//     PostgreSQL column type (text -> TEXT, vector -> VECTOR(n), ...),
//   - value conversion to and from PostgreSQL wire format, including the
//     pgvector literal encoding "[v1,v2,...]",
//   - extraction of the text an index item contributes to embedding
//     generation.
//
// Vector parsing is strict: a component that does not parse as a float is a
// validation error rather than a silent zero.
package fieldmap
