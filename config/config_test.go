package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.ChunkSize != 512 || cfg.ChunkOverlap != 50 {
		t.Errorf("chunking = %d/%d, want 512/50", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.TopK != 2 {
		t.Errorf("TopK = %d, want 2", cfg.TopK)
	}
	if cfg.StoreType != StoreMemory {
		t.Errorf("StoreType = %q, want %q", cfg.StoreType, StoreMemory)
	}
	if cfg.Embeddings.Provider != ProviderOllama || cfg.Embeddings.Model != "bge-m3" {
		t.Errorf("Embeddings = %+v", cfg.Embeddings)
	}
	if cfg.Embeddings.Dimension != 1024 {
		t.Errorf("Dimension = %d, want 1024", cfg.Embeddings.Dimension)
	}
	if cfg.LLM.Model != "llama3" {
		t.Errorf("LLM.Model = %q, want llama3", cfg.LLM.Model)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
listen_addr: ":9191"
chunk_size: 256
chunk_overlap: 32
store_type: postgres
embeddings:
  provider: openai
  model: text-embedding-3-small
  dimension: 1536
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.ListenAddr != ":9191" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.ChunkSize != 256 || cfg.ChunkOverlap != 32 {
		t.Errorf("chunking = %d/%d, want 256/32", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.StoreType != StorePostgres {
		t.Errorf("StoreType = %q, want %q", cfg.StoreType, StorePostgres)
	}
	if cfg.Embeddings.Model != "text-embedding-3-small" || cfg.Embeddings.Dimension != 1536 {
		t.Errorf("Embeddings = %+v", cfg.Embeddings)
	}
	// Unset fields keep their defaults.
	if cfg.LLM.Model != "llama3" {
		t.Errorf("LLM.Model = %q, want default", cfg.LLM.Model)
	}
	if cfg.TopK != 2 {
		t.Errorf("TopK = %d, want default", cfg.TopK)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want default", cfg.ListenAddr)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen_addr: [not, a, string"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RAGDESK_LISTEN_ADDR", ":7070")
	t.Setenv("RAGDESK_CHUNK_SIZE", "128")
	t.Setenv("RAGDESK_STORE", "postgres")
	t.Setenv("OLLAMA_HOST", "http://ollama.internal:11434")
	t.Setenv("RAGDESK_EMBEDDINGS_MODEL", "nomic-embed-text")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.ListenAddr != ":7070" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.ChunkSize != 128 {
		t.Errorf("ChunkSize = %d, want 128", cfg.ChunkSize)
	}
	if cfg.StoreType != StorePostgres {
		t.Errorf("StoreType = %q", cfg.StoreType)
	}
	if cfg.OllamaHost != "http://ollama.internal:11434" {
		t.Errorf("OllamaHost = %q", cfg.OllamaHost)
	}
	if cfg.Embeddings.Model != "nomic-embed-text" {
		t.Errorf("Embeddings.Model = %q", cfg.Embeddings.Model)
	}
}

func TestEnvOverridesBeatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen_addr: \":9999\"\n"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("RAGDESK_LISTEN_ADDR", ":6060")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ListenAddr != ":6060" {
		t.Errorf("ListenAddr = %q, want env to override the file", cfg.ListenAddr)
	}
}

func TestInvalidOverlapFallsBack(t *testing.T) {
	t.Setenv("RAGDESK_CHUNK_SIZE", "100")
	t.Setenv("RAGDESK_CHUNK_OVERLAP", "150")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		t.Errorf("overlap %d not reset below size %d", cfg.ChunkOverlap, cfg.ChunkSize)
	}
}
