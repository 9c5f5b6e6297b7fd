// Package config loads application settings from an optional config.yaml,
// a .env file and environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// ModelConfig selects a provider-hosted model.
type ModelConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension,omitempty"`
}

// Config is the root application configuration.
type Config struct {
	ListenAddr   string      `yaml:"listen_addr"`
	IndicesDir   string      `yaml:"indices_dir"`
	ChunkSize    int         `yaml:"chunk_size"`
	ChunkOverlap int         `yaml:"chunk_overlap"`
	TopK         int         `yaml:"top_k"`
	StoreType    string      `yaml:"store_type"`
	PostgresDSN  string      `yaml:"postgres_dsn"`
	OllamaHost   string      `yaml:"ollama_host"`
	OpenAIAPIKey string      `yaml:"-"`
	OpenAIBase   string      `yaml:"openai_base_url"`
	Embeddings   ModelConfig `yaml:"embeddings"`
	LLM          ModelConfig `yaml:"llm"`
}

// Load reads the config file at path (a missing file means defaults), loads a
// .env file when present, then applies environment overrides.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func defaults() Config {
	return Config{
		ListenAddr:   ":8080",
		IndicesDir:   "indices",
		ChunkSize:    512,
		ChunkOverlap: 50,
		TopK:         2,
		StoreType:    StoreMemory,
		PostgresDSN:  "postgres://localhost:5432/ragdesk?sslmode=disable",
		OllamaHost:   "http://localhost:11434",
		Embeddings:   ModelConfig{Provider: ProviderOllama, Model: "bge-m3", Dimension: 1024},
		LLM:          ModelConfig{Provider: ProviderOllama, Model: "llama3"},
	}
}

func applyEnv(cfg *Config) {
	cfg.ListenAddr = getEnv("RAGDESK_LISTEN_ADDR", cfg.ListenAddr)
	cfg.IndicesDir = getEnv("RAGDESK_INDICES_DIR", cfg.IndicesDir)
	cfg.StoreType = getEnv("RAGDESK_STORE", cfg.StoreType)
	cfg.PostgresDSN = getEnv("POSTGRES_DSN", cfg.PostgresDSN)
	cfg.OllamaHost = getEnv("OLLAMA_HOST", cfg.OllamaHost)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIBase = getEnv("OPENAI_BASE_URL", cfg.OpenAIBase)
	cfg.Embeddings.Provider = getEnv("RAGDESK_EMBEDDINGS_PROVIDER", cfg.Embeddings.Provider)
	cfg.Embeddings.Model = getEnv("RAGDESK_EMBEDDINGS_MODEL", cfg.Embeddings.Model)
	cfg.Embeddings.Dimension = getEnvInt("RAGDESK_EMBEDDINGS_DIMENSION", cfg.Embeddings.Dimension)
	cfg.LLM.Provider = getEnv("RAGDESK_LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.Model = getEnv("RAGDESK_LLM_MODEL", cfg.LLM.Model)
	cfg.ChunkSize = getEnvInt("RAGDESK_CHUNK_SIZE", cfg.ChunkSize)
	cfg.ChunkOverlap = getEnvInt("RAGDESK_CHUNK_OVERLAP", cfg.ChunkOverlap)
	cfg.TopK = getEnvInt("RAGDESK_TOP_K", cfg.TopK)
}

// applyDefaults backfills values a sparse config file may have zeroed.
func applyDefaults(cfg *Config) {
	def := defaults()
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	if cfg.IndicesDir == "" {
		cfg.IndicesDir = def.IndicesDir
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = def.ChunkOverlap
	}
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.StoreType == "" {
		cfg.StoreType = def.StoreType
	}
	if cfg.OllamaHost == "" {
		cfg.OllamaHost = def.OllamaHost
	}
	if cfg.Embeddings.Provider == "" {
		cfg.Embeddings = def.Embeddings
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM = def.LLM
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
