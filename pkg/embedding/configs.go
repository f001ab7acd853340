package embedding

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	// Endpoint is the base URL of the OpenAI-compatible inference service
	// (no /embeddings suffix; the client appends it).
	Endpoint string `yaml:"endpoint" envconfig:"EMBEDDING_ENDPOINT"`

	// ServiceToken authenticates requests as a bearer token.
	ServiceToken string `yaml:"service_token" envconfig:"EMBEDDING_SERVICE_TOKEN"`

	// Model names the embedding model to request.
	Model string `yaml:"model" envconfig:"EMBEDDING_MODEL"`

	// HTTPTimeoutS bounds each embedding call in seconds (default 30).
	HTTPTimeoutS int `yaml:"http_timeout_s" envconfig:"EMBEDDING_HTTP_TIMEOUT_SECONDS"`
}

// NewConfig reads from environment variables.
func NewConfig() *Config {
	timeout := 30
	if v := os.Getenv("EMBEDDING_HTTP_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeout = n
		}
	}

	return &Config{
		Endpoint:     os.Getenv("EMBEDDING_ENDPOINT"),
		ServiceToken: os.Getenv("EMBEDDING_SERVICE_TOKEN"),
		Model:        os.Getenv("EMBEDDING_MODEL"),
		HTTPTimeoutS: timeout,
	}
}

// Validate ensures required fields are present.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("embedding: missing EMBEDDING_ENDPOINT")
	}
	if c.Model == "" {
		return fmt.Errorf("embedding: missing EMBEDDING_MODEL")
	}
	return nil
}
