package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fmartel/ragdesk/config"
)

func testConfig(provider string) config.Config {
	return config.Config{
		OllamaHost: "http://localhost:11434",
		Embeddings: config.ModelConfig{Provider: provider, Model: "test-model", Dimension: 8},
	}
}

func TestOllamaEmbedderRequestsPerText(t *testing.T) {
	var prompts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("path = %s, want /api/embeddings", r.URL.Path)
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "bge-m3" {
			t.Errorf("model = %q, want bge-m3", req.Model)
		}
		prompts = append(prompts, req.Prompt)
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float64{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	embedder := NewOllamaEmbedder(Options{OllamaHost: server.URL, Model: "bge-m3", Dimension: 3})
	vectors, err := embedder.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed returned error: %v", err)
	}

	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vectors))
	}
	if len(vectors[0]) != 3 {
		t.Errorf("vector dimension = %d, want 3", len(vectors[0]))
	}
	if len(prompts) != 2 || prompts[0] != "first" || prompts[1] != "second" {
		t.Errorf("prompts = %v, want one request per text in order", prompts)
	}
}

func TestOllamaEmbedderDimensionMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float64{0.1, 0.2}})
	}))
	defer server.Close()

	embedder := NewOllamaEmbedder(Options{OllamaHost: server.URL, Model: "bge-m3", Dimension: 1024})
	if _, err := embedder.Embed(context.Background(), []string{"text"}); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestOllamaEmbedderServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	embedder := NewOllamaEmbedder(Options{OllamaHost: server.URL, Model: "missing"})
	if _, err := embedder.Embed(context.Background(), []string{"text"}); err == nil {
		t.Fatal("expected error from 404 response")
	}
}

func TestNewEmbedderUnknownProvider(t *testing.T) {
	cfg := testConfig("not-a-provider")
	if _, err := NewEmbedder(cfg); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewEmbedderOpenAIRequiresKey(t *testing.T) {
	cfg := testConfig("openai")
	cfg.OpenAIAPIKey = ""
	if _, err := NewEmbedder(cfg); err == nil {
		t.Fatal("expected error when API key is missing")
	}
}
