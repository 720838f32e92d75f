package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toonana/toonana/config"
)

func ollamaConfig(url string) config.OllamaConfig {
	return config.OllamaConfig{
		BaseURL:        url,
		Model:          "gemma3:1b",
		Temperature:    0.7,
		TopP:           0.9,
		TimeoutSeconds: 5,
	}
}

func TestGenerateStreamAccumulatesNDJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gemma3:1b", req.Model)
		assert.True(t, req.Stream)

		for _, chunk := range []generateChunk{
			{Response: "PANEL 1\n"},
			{Response: "PROMPT: a quiet kitchen\n"},
			{Done: true},
		} {
			require.NoError(t, json.NewEncoder(w).Encode(chunk))
		}
	}))
	defer srv.Close()

	client := NewOllamaClient(ollamaConfig(srv.URL))

	var deltas []string
	got, err := client.GenerateStream(context.Background(), "system", "user", func(fragment string) {
		deltas = append(deltas, fragment)
	})
	require.NoError(t, err)
	assert.Equal(t, "PANEL 1\nPROMPT: a quiet kitchen\n", got)
	assert.Equal(t, []string{"PANEL 1\n", "PROMPT: a quiet kitchen\n"}, deltas)
}

func TestGenerateStreamSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateChunk{Error: "model not loaded"})
	}))
	defer srv.Close()

	client := NewOllamaClient(ollamaConfig(srv.URL))
	_, err := client.GenerateStream(context.Background(), "s", "u", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestGenerateStreamNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewOllamaClient(ollamaConfig(srv.URL))
	_, err := client.GenerateStream(context.Background(), "s", "u", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestHealthChecksModelAvailability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[{"name":"llama3:8b"},{"name":"gemma3:1b"}]}`))
	}))
	defer srv.Close()

	client := NewOllamaClient(ollamaConfig(srv.URL))
	assert.NoError(t, client.Health(context.Background()))

	models, err := client.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3:8b", "gemma3:1b"}, models)
}

func TestHealthFailsWhenModelMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"llama3:8b"}]}`))
	}))
	defer srv.Close()

	client := NewOllamaClient(ollamaConfig(srv.URL))
	err := client.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemma3:1b")
}
