// Package config loads service settings from .env and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github/itish2003/pdfqa/chunker"
	"github/itish2003/pdfqa/models"
)

// Embedding failure policies applied while indexing a document.
const (
	// PolicyZero stores a zero vector for a chunk whose embedding failed.
	PolicyZero = "zero"
	// PolicyAbort fails the whole ingestion on the first embedding failure.
	PolicyAbort = "abort"
)

// Embedding providers.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

type Config struct {
	GeminiAPIKey      string
	EmbeddingProvider string
	EmbeddingModel    string
	EmbeddingDim      int
	OllamaURL         string
	GenerationModel   string

	DataDir   string
	UploadDir string
	InboxDir  string

	ChunkSize    int
	ChunkOverlap int
	TopK         int
	HistoryLines int

	EmbedFailurePolicy string
	EmbedConcurrency   int
	EmbedRatePerSec    float64
	ProviderTimeout    time.Duration

	UnidocLicenseKey string
	Port             string
	LogLevel         string
}

// Load reads .env (when present) and the environment, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("CONFIG: No .env file found, relying on environment variables.")
	}

	provider := getEnvWithDefault("EMBEDDING_PROVIDER", ProviderGemini)
	defaultModel := "gemini-embedding-001"
	if provider == ProviderOllama {
		defaultModel = "nomic-embed-text:v1.5"
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}

	cfg := &Config{
		GeminiAPIKey:       apiKey,
		EmbeddingProvider:  provider,
		EmbeddingModel:     getEnvWithDefault("EMBEDDING_MODEL", defaultModel),
		OllamaURL:          getEnvWithDefault("OLLAMA_URL", "http://localhost:11434"),
		GenerationModel:    getEnvWithDefault("GENERATION_MODEL", "gemini-2.5-pro"),
		DataDir:            getEnvWithDefault("DATA_DIR", "data"),
		UploadDir:          getEnvWithDefault("UPLOAD_DIR", "uploads"),
		InboxDir:           os.Getenv("INBOX_DIR"),
		EmbedFailurePolicy: getEnvWithDefault("EMBED_FAILURE_POLICY", PolicyZero),
		UnidocLicenseKey:   os.Getenv("UNIDOC_LICENSE_KEY"),
		Port:               getEnvWithDefault("PORT", "8080"),
		LogLevel:           getEnvWithDefault("LOG_LEVEL", "info"),
	}

	var err error
	ints := []struct {
		key  string
		def  int
		dest *int
	}{
		{"EMBEDDING_DIM", 768, &cfg.EmbeddingDim},
		{"CHUNK_SIZE", chunker.DefaultChunkSize, &cfg.ChunkSize},
		{"CHUNK_OVERLAP", chunker.DefaultOverlap, &cfg.ChunkOverlap},
		{"TOP_K", 5, &cfg.TopK},
		{"HISTORY_LINES", 4, &cfg.HistoryLines},
		{"EMBED_CONCURRENCY", 4, &cfg.EmbedConcurrency},
	}
	for _, v := range ints {
		if *v.dest, err = getIntEnv(v.key, v.def); err != nil {
			return nil, err
		}
	}
	if cfg.EmbedRatePerSec, err = getFloatEnv("EMBED_RATE_PER_SEC", 0); err != nil {
		return nil, err
	}
	if cfg.ProviderTimeout, err = getDurationEnv("PROVIDER_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service can never run with.
func (c *Config) Validate() error {
	if err := chunker.Validate(c.ChunkSize, c.ChunkOverlap); err != nil {
		return err
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("%w: EMBEDDING_DIM must be positive, got %d", models.ErrInvalidConfiguration, c.EmbeddingDim)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("%w: TOP_K must be positive, got %d", models.ErrInvalidConfiguration, c.TopK)
	}
	if c.HistoryLines < 0 {
		return fmt.Errorf("%w: HISTORY_LINES must not be negative, got %d", models.ErrInvalidConfiguration, c.HistoryLines)
	}
	if c.EmbedConcurrency <= 0 {
		return fmt.Errorf("%w: EMBED_CONCURRENCY must be positive, got %d", models.ErrInvalidConfiguration, c.EmbedConcurrency)
	}
	if c.EmbedRatePerSec < 0 {
		return fmt.Errorf("%w: EMBED_RATE_PER_SEC must not be negative", models.ErrInvalidConfiguration)
	}
	switch c.EmbedFailurePolicy {
	case PolicyZero, PolicyAbort:
	default:
		return fmt.Errorf("%w: unknown EMBED_FAILURE_POLICY %q", models.ErrInvalidConfiguration, c.EmbedFailurePolicy)
	}
	switch c.EmbeddingProvider {
	case ProviderGemini, ProviderOllama:
	default:
		return fmt.Errorf("%w: unknown EMBEDDING_PROVIDER %q", models.ErrInvalidConfiguration, c.EmbeddingProvider)
	}
	return nil
}

// VectorsDBPath is the embeddings database file.
func (c *Config) VectorsDBPath() string { return filepath.Join(c.DataDir, "vectors.db") }

// SessionsDBPath is the sessions and PDF registry database file.
func (c *Config) SessionsDBPath() string { return filepath.Join(c.DataDir, "sessions.db") }

func getEnvWithDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", models.ErrInvalidConfiguration, key, v)
	}
	return n, nil
}

func getFloatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", models.ErrInvalidConfiguration, key, v)
	}
	return f, nil
}

func getDurationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a duration", models.ErrInvalidConfiguration, key, v)
	}
	return d, nil
}
