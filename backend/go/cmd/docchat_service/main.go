package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"DocChat/backend/go/internal/config"
	"DocChat/backend/go/internal/database/kafka"
	"DocChat/backend/go/internal/database/milvus"
	"DocChat/backend/go/internal/database/minio"
	"DocChat/backend/go/internal/database/mysql"
	"DocChat/backend/go/internal/database/qdrant"
	"DocChat/backend/go/internal/database/redis"
	"DocChat/backend/go/internal/embedding"
	"DocChat/backend/go/internal/llm"
	"DocChat/backend/go/internal/models"
	ragapi "DocChat/backend/go/internal/rag_service/api"
	"DocChat/backend/go/internal/rag_service/rag/artifacts"
	"DocChat/backend/go/internal/rag_service/rag/caches"
	"DocChat/backend/go/internal/rag_service/rag/dal"
	"DocChat/backend/go/internal/rag_service/rag/embeddings"
	"DocChat/backend/go/internal/rag_service/rag/interfaces"
	"DocChat/backend/go/internal/rag_service/rag/llms"
	"DocChat/backend/go/internal/rag_service/rag/loaders"
	"DocChat/backend/go/internal/rag_service/rag/pipeline"
	"DocChat/backend/go/internal/rag_service/rag/splitters"
	"DocChat/backend/go/internal/rag_service/rag/storages/vectorstore"
	ragservice "DocChat/backend/go/internal/rag_service/service"
	userapi "DocChat/backend/go/internal/user_service/api"
	userservice "DocChat/backend/go/internal/user_service/service"
	"DocChat/backend/go/internal/user_service/store"
	"DocChat/backend/go/pkg/circuitbreaker"
	httpserver "DocChat/backend/go/pkg/http"
	"DocChat/backend/go/pkg/logger"
	"DocChat/backend/go/pkg/resilience"
)

const defaultConfigPath = "config/config.yaml"

func main() {
	path := os.Getenv("DOCCHAT_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("docchat_service", "", "")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.WithError(models.ErrorInfo{Message: err.Error()}).Fatal("docchat service stopped with an error")
	}
	appLogger.Info("docchat service stopped")
}

// run wires every collaborator explicitly and serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) error {
	// 1. MySQL: users and upload records
	db, err := mysql.Open(&cfg.Databases.MySQL, log)
	if err != nil {
		return err
	}
	defer mysql.Close(db)

	userStore := store.NewStore(db)
	uploadDAL := dal.NewUploadDAL(db)
	if err := userStore.AutoMigrate(); err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	if err := uploadDAL.AutoMigrate(); err != nil {
		return fmt.Errorf("migrate upload records: %w", err)
	}

	policy := policyFactory(cfg, log)

	// 2. Embedding model, with a query cache in front of it
	embedder, modelName, err := embedding.NewEmbedder(ctx, cfg.Embedding)
	if err != nil {
		return fmt.Errorf("create embedding model: %w", err)
	}
	if c, ok := embedder.(io.Closer); ok {
		defer c.Close()
	}
	embedAdapter := embeddings.NewAdapter(embedder, policy("embedding", cfg.Timeouts.Embedding))

	cache, err := newVectorCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	queryEmbedder := embeddings.NewCached(embedAdapter, cache, modelName, log)

	// 3. Generative model
	generator, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}
	if c, ok := generator.(io.Closer); ok {
		defer c.Close()
	}
	llmAdapter := llms.NewAdapter(generator, policy("llm", cfg.Timeouts.Generation))

	// 4. Vector store and upload staging
	vectorStore, closeStore, err := newVectorStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()
	resilientStore := vectorstore.NewResilient(vectorStore, policy("vectorstore", cfg.Timeouts.Index))

	artifactStore, err := newArtifactStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	// 5. Ingestion events
	var publisher ragservice.EventPublisher
	if len(cfg.Databases.Kafka.Brokers) > 0 {
		kc, err := kafka.NewClient(&cfg.Databases.Kafka, log)
		if err != nil {
			return err
		}
		defer kc.Close()
		publisher = kafka.NewIngestionPublisher(kc.Writer)
	} else {
		log.Warn("kafka not configured, ingestion events are not published")
	}

	// 6. Pipelines and services
	splitter, err := splitters.NewSentenceSplitter(cfg.Ingestion.ChunkSize, cfg.Ingestion.ChunkOverlap)
	if err != nil {
		return err
	}
	indexing := pipeline.NewIndexingPipeline(
		artifactStore,
		loaders.NewPdfLoader(),
		splitter,
		embedAdapter,
		resilientStore,
		pipeline.IndexingConfig{
			BatchSize:         cfg.Ingestion.BatchSize,
			MaxConcurrency:    cfg.Ingestion.MaxConcurrency,
			ExtractionTimeout: cfg.Timeouts.Extraction,
		},
		log.WithField("component", "ingestion"),
	)
	retrieval := pipeline.NewRetrievalPipeline(queryEmbedder, resilientStore, cfg.Retrieval.TopK, log.WithField("component", "retrieval"))
	qa := pipeline.NewQAPipeline(llmAdapter, cfg.Retrieval.FallbackSentence, log.WithField("component", "qa"))

	ragService := ragservice.NewService(indexing, retrieval, qa, uploadDAL, publisher, cfg.Retrieval.TopK, log)
	userService := userservice.NewService(userStore, cfg.Auth.JwtSecret, cfg.Auth.TokenTTL)

	// 7. HTTP
	srv, err := httpserver.NewServer(cfg, log)
	if err != nil {
		return err
	}
	engine := srv.Engine()
	ragapi.RegisterHealth(engine)
	v1 := engine.Group("/api/v1")
	userapi.RegisterRoutes(v1, userapi.NewHandler(userService, log))
	ragapi.RegisterRoutes(v1,
		ragapi.NewHandler(ragService, cfg.Ingestion.MaxUploadBytes, log),
		userapi.AuthMiddleware(userService),
		srv.RateLimit(),
	)

	return srv.Run(ctx)
}

// policyFactory returns a constructor for per-dependency retry policies. Every dependency
// gets its own circuit breaker when breakers are enabled.
func policyFactory(cfg *config.AppConfig, log *logger.Logger) func(name string, timeout time.Duration) resilience.Policy {
	base := resilience.Policy{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: cfg.Retry.InitialDelay,
		MaxDelay:     cfg.Retry.MaxDelay,
		Multiplier:   cfg.Retry.Multiplier,
	}
	cb := cfg.Middleware.CircuitBreaker

	return func(name string, timeout time.Duration) resilience.Policy {
		p := base.WithTimeout(timeout)
		depLog := log.WithField("dependency", name)
		p.OnRetry = func(attempt int, err error, delay time.Duration) {
			depLog.WithField("attempt", attempt).WithField("delay", delay.String()).
				WithError(models.ErrorInfo{Message: err.Error()}).Warn("retrying call")
		}
		if cb.Enabled {
			p = p.WithBreaker(circuitbreaker.New(name, cb.FailureThreshold, cb.SuccessThreshold, cb.Timeout,
				circuitbreaker.WithStateChange(func(name string, from, to circuitbreaker.State) {
					depLog.WithField("from", from.String()).WithField("to", to.String()).Warn("circuit breaker state changed")
				}),
			))
		}
		return p
	}
}

func newVectorCache(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (caches.VectorCache, error) {
	if cfg.Databases.Redis.Address != "" {
		rc, err := redis.NewClient(ctx, &cfg.Databases.Redis, log)
		if err != nil {
			return nil, err
		}
		return caches.NewRedisCache(rc, cfg.Embedding.CacheTTL), nil
	}
	log.Info("redis not configured, using in-process embedding cache")
	return caches.NewLRUCache(cfg.Embedding.CacheSize, cfg.Embedding.CacheTTL)
}

func newVectorStore(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (interfaces.VectorStore, func(), error) {
	switch cfg.VectorStore.Provider {
	case "milvus":
		mc, err := milvus.NewClient(ctx, &cfg.Databases.Milvus, log)
		if err != nil {
			return nil, nil, err
		}
		if err := mc.EnsureCollection(ctx); err != nil {
			_ = mc.Close()
			return nil, nil, err
		}
		s, err := vectorstore.NewMilvusStore(mc, log)
		if err != nil {
			_ = mc.Close()
			return nil, nil, err
		}
		return s, func() { _ = mc.Close() }, nil
	case "qdrant":
		qc, err := qdrant.NewClient(ctx, &cfg.Databases.Qdrant, log)
		if err != nil {
			return nil, nil, err
		}
		if err := qdrant.EnsureCollection(ctx, qc, &cfg.Databases.Qdrant); err != nil {
			_ = qc.Close()
			return nil, nil, err
		}
		s, err := vectorstore.NewQdrantStore(qc, cfg.Databases.Qdrant.Collection, log)
		if err != nil {
			_ = qc.Close()
			return nil, nil, err
		}
		return s, func() { _ = qc.Close() }, nil
	case "memory":
		log.Warn("using the in-memory vector store, indexed chunks are lost on restart")
		return vectorstore.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported vector store: %s", cfg.VectorStore.Provider)
	}
}

func newArtifactStore(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (interfaces.ArtifactStore, error) {
	switch cfg.Artifacts.Provider {
	case "minio":
		mc, err := minio.NewClient(ctx, &cfg.Databases.MinIO, log)
		if err != nil {
			return nil, err
		}
		return artifacts.NewMinIOStore(mc, cfg.Databases.MinIO.Bucket), nil
	case "local":
		return artifacts.NewLocalStore(cfg.Artifacts.LocalDir)
	default:
		return nil, fmt.Errorf("unsupported artifact store: %s", cfg.Artifacts.Provider)
	}
}
