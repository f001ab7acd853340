package query

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
)

// fulltextConfigPattern constrains the text search configuration name, which
// is interpolated into to_tsquery/to_tsvector calls.
var fulltextConfigPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

const (
	defaultFacetLimit = 50
	maxFacetLimit     = 1000
	// autocompleteLimit caps the suggestions returned per call.
	autocompleteLimit = 10
)

// Config tunes query construction. The weights blend the two score
// components in hybrid mode; the threshold floors cosine similarity for
// vector matches.
type Config struct {
	FulltextConfig      string  `yaml:"fulltextConfig" envconfig:"QUERY_FULLTEXT_CONFIG"`
	TextWeight          float64 `yaml:"textWeight" envconfig:"QUERY_TEXT_WEIGHT"`
	VectorWeight        float64 `yaml:"vectorWeight" envconfig:"QUERY_VECTOR_WEIGHT"`
	SimilarityThreshold float64 `yaml:"similarityThreshold" envconfig:"QUERY_SIMILARITY_THRESHOLD"`
}

// NewConfig reads the tuning knobs from the environment, falling back to the
// stock 0.7/0.3 blend and a 0.1 similarity floor.
func NewConfig() Config {
	return Config{
		FulltextConfig:      getenvDefault("QUERY_FULLTEXT_CONFIG", "english"),
		TextWeight:          getenvFloat("QUERY_TEXT_WEIGHT", 0.7),
		VectorWeight:        getenvFloat("QUERY_VECTOR_WEIGHT", 0.3),
		SimilarityThreshold: getenvFloat("QUERY_SIMILARITY_THRESHOLD", 0.1),
	}
}

func (c Config) Validate() error {
	if c.TextWeight < 0 || c.VectorWeight < 0 {
		return fmt.Errorf("score weights must be non-negative, got text=%v vector=%v", c.TextWeight, c.VectorWeight)
	}
	if c.TextWeight == 0 && c.VectorWeight == 0 {
		return fmt.Errorf("at least one score weight must be positive")
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be within [0, 1], got %v", c.SimilarityThreshold)
	}
	if !fulltextConfigPattern.MatchString(c.FulltextConfig) {
		return fmt.Errorf("invalid fulltext configuration name %q", c.FulltextConfig)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
