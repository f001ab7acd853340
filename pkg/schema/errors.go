package schema

// VectorExtensionUnavailableError is returned when an index requests vector
// search but the pgvector extension is not installed in the target database.
// This is a deployment misconfiguration and is never silently downgraded.
type VectorExtensionUnavailableError struct {
	IndexID string
}

func (e *VectorExtensionUnavailableError) Error() string {
	return "schema: index " + e.IndexID + " requires the pgvector extension, which is not installed"
}
