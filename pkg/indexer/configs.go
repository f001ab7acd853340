package indexer

import (
	"os"
	"strconv"
)

// Config bounds the embedding fan-out and delete batching.
type Config struct {
	// EmbeddingBatchSize is the number of texts sent to the provider per call.
	EmbeddingBatchSize int `yaml:"embeddingBatchSize" envconfig:"INDEXER_EMBEDDING_BATCH_SIZE"`

	// EmbeddingConcurrency caps the provider calls in flight.
	EmbeddingConcurrency int `yaml:"embeddingConcurrency" envconfig:"INDEXER_EMBEDDING_CONCURRENCY"`

	// DeleteBatchSize is the maximum number of item IDs per DELETE statement.
	DeleteBatchSize int `yaml:"deleteBatchSize" envconfig:"INDEXER_DELETE_BATCH_SIZE"`
}

// NewConfig reads the indexer settings from the environment.
func NewConfig() Config {
	return Config{
		EmbeddingBatchSize:   getenvInt("INDEXER_EMBEDDING_BATCH_SIZE", 16),
		EmbeddingConcurrency: getenvInt("INDEXER_EMBEDDING_CONCURRENCY", 4),
		DeleteBatchSize:      getenvInt("INDEXER_DELETE_BATCH_SIZE", 1000),
	}
}

func (c Config) withDefaults() Config {
	out := c
	if out.EmbeddingBatchSize <= 0 {
		out.EmbeddingBatchSize = 16
	}
	if out.EmbeddingConcurrency <= 0 {
		out.EmbeddingConcurrency = 4
	}
	if out.DeleteBatchSize <= 0 {
		out.DeleteBatchSize = 1000
	}
	return out
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
