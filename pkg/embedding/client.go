package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client is an HTTP Provider implementation against an OpenAI-compatible
// /embeddings endpoint.
type Client struct {
	baseURL      string
	model        string
	serviceToken string
	httpClient   *http.Client
}

// NewClient validates the config and constructs the HTTP client. The HTTP
// timeout from the config is the only deadline applied besides the caller's
// context.
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("embedding: invalid config: %w", err)
	}

	timeout := cfg.HTTPTimeoutS
	if timeout <= 0 {
		timeout = 30
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.Endpoint, "/"),
		model:        cfg.Model,
		serviceToken: cfg.ServiceToken,
		httpClient:   &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}, nil
}

// GenerateEmbedding embeds a single text.
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.GenerateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// GenerateEmbeddings embeds a batch of texts in one request.
func (c *Client) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, &ProviderError{Operation: "embed", Err: fmt.Errorf("no texts provided")}
	}

	reqBody := map[string]any{
		"model": c.model,
		"input": texts,
	}

	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}

	if err := c.postJSON(ctx, c.baseURL+"/embeddings", reqBody, &parsed); err != nil {
		return nil, &ProviderError{Operation: "embed", Err: err}
	}

	if len(parsed.Data) != len(texts) {
		return nil, &ProviderError{
			Operation: "embed",
			Err:       fmt.Errorf("expected %d embeddings, got %d", len(texts), len(parsed.Data)),
		}
	}

	out := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

// postJSON sends an HTTP POST request to the inference API, attaching the
// bearer token when configured, and decodes the JSON response into out.
func (c *Client) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.serviceToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.serviceToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %d for %s", resp.StatusCode, url)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
