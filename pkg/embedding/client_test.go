package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{
		Endpoint: server.URL,
		Model:    "test-model",
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_ValidatesConfig(t *testing.T) {
	_, err := NewClient(&Config{Model: "m"})
	assert.Error(t, err)

	_, err = NewClient(&Config{Endpoint: "http://x"})
	assert.Error(t, err)
}

func TestGenerateEmbeddings_ParsesResponse(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{0.1, 0.2}},
				{"embedding": []float32{0.3, 0.4}},
			},
		})
	})

	vectors, err := client.GenerateEmbeddings(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.InDelta(t, 0.1, vectors[0][0], 1e-6)
	assert.InDelta(t, 0.4, vectors[1][1], 1e-6)
}

func TestGenerateEmbedding_Single(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{1, 2, 3}}},
		})
	})

	vec, err := client.GenerateEmbedding(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 3)
}

func TestGenerateEmbeddings_HTTPErrorIsProviderError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GenerateEmbeddings(context.Background(), []string{"a"})

	var provider *ProviderError
	require.True(t, errors.As(err, &provider))
}

func TestGenerateEmbeddings_CountMismatchIsProviderError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{1}}},
		})
	})

	_, err := client.GenerateEmbeddings(context.Background(), []string{"a", "b"})

	var provider *ProviderError
	require.True(t, errors.As(err, &provider))
}

func TestGenerateEmbeddings_EmptyInput(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.GenerateEmbeddings(context.Background(), nil)
	assert.Error(t, err)
}

func TestGenerateEmbeddings_SendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{1}}},
		})
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{Endpoint: server.URL, Model: "m", ServiceToken: "tok"})
	require.NoError(t, err)

	_, err = client.GenerateEmbedding(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
}
