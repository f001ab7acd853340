package embedding

import "fmt"

// ProviderError reports a failed embedding call. The search core converts it
// into a text-only fallback instead of failing the query.
type ProviderError struct {
	Operation string
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding: %s failed: %v", e.Operation, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
