package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"docquery/internal/cache"
	"docquery/internal/config"
	"docquery/internal/http"
	"docquery/internal/indexer"
	"docquery/internal/llm"
	"docquery/internal/rag"
	"docquery/internal/storage"
	"docquery/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	docRepo := storage.NewDocumentRepo(db)

	ctx := context.Background()

	// Initialize Qdrant vector store
	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.EmbeddingVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.EmbeddingVectorSize)

	// Embedding client with write-through cache
	embeddingsClient := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingVectorSize)
	if !embeddingsClient.IsConfigured() {
		log.Fatalf("Embedding client is not configured: set EMBEDDING_BASE_URL and EMBEDDING_API_KEY (or OpenAI equivalents)")
	}

	var embedCache cache.Cache
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisCacheTTL)
		if err := redisCache.Ping(ctx); err != nil {
			log.Fatalf("Failed to connect to Redis at %s: %v", cfg.RedisAddr, err)
		}
		defer func() {
			_ = redisCache.Close()
		}()
		embedCache = redisCache
		slog.Info("Embedding cache using Redis", "addr", cfg.RedisAddr, "ttl", cfg.RedisCacheTTL)
	} else {
		embedCache = cache.NewMemoryCache()
		slog.Info("Embedding cache using in-process memory")
	}
	embedder := llm.NewCachedEmbedder(embeddingsClient, embedCache)

	// Generation backends, in fallback order
	openaiBackend := llm.NewOpenAIBackend(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	anthropicBackend := llm.NewAnthropicBackend(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	geminiBackend := llm.NewGeminiBackend(cfg.GeminiAPIKey, cfg.GeminiModel)
	router := llm.NewRouter(openaiBackend, anthropicBackend, geminiBackend)
	slog.Info("Generation router initialized", "backends", router.Backends())

	fallbackFloors := make([]float32, len(cfg.ScoreFallbackFloors))
	for i, floor := range cfg.ScoreFallbackFloors {
		fallbackFloors[i] = float32(floor)
	}

	// Retrieval and answer generation
	retriever := rag.NewRetriever(vectorStore, cfg.QdrantCollection)
	engine := rag.NewEngine(embedder, retriever, router, rag.Defaults{
		TopK:           cfg.TopK,
		MinScore:       float32(cfg.MinScore),
		SemanticWeight: float32(cfg.SemanticWeight),
		KeywordWeight:  float32(cfg.KeywordWeight),
		FallbackRatio:  float32(cfg.ScoreFallbackRatio),
		FallbackFloors: fallbackFloors,
	})
	slog.Info("Query engine initialized")

	// Ingestion pipeline and background queue
	pipeline := indexer.NewPipeline(
		docRepo,
		embedder,
		vectorStore,
		cfg.QdrantCollection,
		cfg.ChunkTargetTokens,
		cfg.ChunkOverlapTokens,
		cfg.ChunkMinTokens,
	)
	queue := indexer.NewQueue(pipeline, 2, 64)
	defer queue.Close()

	deps := &http.Deps{
		Engine:      engine,
		Queue:       queue,
		Pipeline:    pipeline,
		DocRepo:     docRepo,
		VectorStore: vectorStore,
		Collection:  cfg.QdrantCollection,
	}
	httpRouter := http.NewRouter(deps)

	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, httpRouter); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
