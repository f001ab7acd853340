// Package indexer writes items into index tables: upserts with optional
// embedding generation, deletions, and full clears.
//
// Embeddings are fetched in concurrent batches before any row is written. A
// provider failure degrades the affected items to text-only rows instead of
// failing the indexing run; context cancellation still aborts it. All row
// writes for one call happen inside a single transaction, so an item batch is
// either fully visible or not at all.
package indexer
