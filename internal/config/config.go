package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// It is constructed once at process start and passed into each adapter's
// constructor; adapters never read the environment themselves.
type Config struct {
	// Generation backends, tried in fallback order: openai, anthropic, gemini.
	OpenAIBaseURL   string
	OpenAIAPIKey    string
	OpenAIModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	GeminiAPIKey    string
	GeminiModel     string

	// Embedding provider (OpenAI-compatible /v1/embeddings endpoint).
	EmbeddingBaseURL    string
	EmbeddingAPIKey     string
	EmbeddingModel      string
	EmbeddingVectorSize int

	// Vector index.
	QdrantURL        string
	QdrantCollection string

	// Embedding cache. Empty RedisAddr selects the in-process cache.
	RedisAddr     string
	RedisCacheTTL time.Duration

	DBPath    string
	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	// Chunking defaults.
	ChunkTargetTokens  int
	ChunkOverlapTokens int
	ChunkMinTokens     int

	// Retrieval defaults. The fallback ratio and floors form the progressive
	// relevance cascade: minScore, minScore*ratio, then each floor in order.
	TopK                int
	MinScore            float64
	SemanticWeight      float64
	KeywordWeight       float64
	ScoreFallbackRatio  float64
	ScoreFallbackFloors []float64
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it is loaded
// automatically; environment variables already set take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		EmbeddingBaseURL: getEnv("EMBEDDING_BASE_URL", ""),
		EmbeddingAPIKey:  getEnv("EMBEDDING_API_KEY", ""),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),

		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "documents"),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		DBPath:    getEnv("DB_PATH", "./data/docquery.db"),
		APIPort:   getEnv("API_PORT", "9000"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	// EMBEDDING_BASE_URL falls back to the OpenAI base URL so a single
	// OpenAI key configures both chat and embeddings.
	if cfg.EmbeddingBaseURL == "" {
		cfg.EmbeddingBaseURL = cfg.OpenAIBaseURL
	}
	if cfg.EmbeddingAPIKey == "" {
		cfg.EmbeddingAPIKey = cfg.OpenAIAPIKey
	}

	switch getEnv("LOG_LEVEL", "info") {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}

	var err error
	if cfg.EmbeddingVectorSize, err = getEnvInt("EMBEDDING_VECTOR_SIZE", 1536); err != nil {
		return nil, err
	}
	if cfg.EmbeddingVectorSize <= 0 {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE must be greater than 0")
	}

	if cfg.ChunkTargetTokens, err = getEnvInt("CHUNK_TARGET_TOKENS", 500); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlapTokens, err = getEnvInt("CHUNK_OVERLAP_TOKENS", 50); err != nil {
		return nil, err
	}
	if cfg.ChunkMinTokens, err = getEnvInt("CHUNK_MIN_TOKENS", 25); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlapTokens < 0 || cfg.ChunkOverlapTokens >= cfg.ChunkTargetTokens {
		return nil, fmt.Errorf("CHUNK_OVERLAP_TOKENS must be in [0, CHUNK_TARGET_TOKENS)")
	}

	if cfg.TopK, err = getEnvInt("RETRIEVAL_TOP_K", 5); err != nil {
		return nil, err
	}
	if cfg.MinScore, err = getEnvFloat("RETRIEVAL_MIN_SCORE", 0.3); err != nil {
		return nil, err
	}
	if cfg.SemanticWeight, err = getEnvFloat("RETRIEVAL_SEMANTIC_WEIGHT", 0.7); err != nil {
		return nil, err
	}
	if cfg.KeywordWeight, err = getEnvFloat("RETRIEVAL_KEYWORD_WEIGHT", 0.3); err != nil {
		return nil, err
	}
	if cfg.ScoreFallbackRatio, err = getEnvFloat("RETRIEVAL_FALLBACK_RATIO", 0.5); err != nil {
		return nil, err
	}
	// Empirically tuned floors; kept as configuration, not law.
	cfg.ScoreFallbackFloors = []float64{0.1, 0.05}

	ttlSeconds, err := getEnvInt("REDIS_CACHE_TTL_SECONDS", 86400)
	if err != nil {
		return nil, err
	}
	cfg.RedisCacheTTL = time.Duration(ttlSeconds) * time.Second

	// Create the data directory if it doesn't exist (for the SQLite file).
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return parsed, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return parsed, nil
}
