package embedding

import "context"

// Provider is the embedding capability the search core depends on.
//
//go:generate mockgen -source=types.go -destination=mock_provider.go -package=embedding
type Provider interface {
	// GenerateEmbedding embeds a single text.
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// GenerateEmbeddings embeds a batch of texts; the result is parallel to
	// the input slice.
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}
