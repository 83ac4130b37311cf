package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"DocChat/backend/go/internal/rag_service/rag/errs"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// MilvusConfig 定义了 Milvus 向量库的连接和集合配置。
type MilvusConfig struct {
	Address        string `yaml:"address"`        // Milvus 服务地址
	CollectionName string `yaml:"collectionName"` // 存放文档分块的集合名称
	Dim            int    `yaml:"dim"`            // 向量维度, 必须与 embedding 模型一致
	IndexType      string `yaml:"indexType"`      // 索引类型 (例如: "HNSW", "IVF_FLAT", "AUTOINDEX")
	TextMaxLength  int    `yaml:"textMaxLength"`  // 文本字段最大长度
}

// QdrantConfig 定义了 Qdrant 向量库的连接配置。
type QdrantConfig struct {
	Host       string `yaml:"host"`       // Qdrant gRPC 主机
	Port       int    `yaml:"port"`       // Qdrant gRPC 端口 (默认 6334)
	APIKey     string `yaml:"apiKey"`     // API 密钥, 可由 QDRANT_API_KEY 覆盖
	UseTLS     bool   `yaml:"useTLS"`     // 是否使用 TLS
	Collection string `yaml:"collection"` // 集合名称
	Dim        int    `yaml:"dim"`        // 向量维度
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// MySQLConfig 定义了 MySQL 数据库的连接配置。
type MySQLConfig struct {
	Address         string `yaml:"address"`         // MySQL 服务器地址
	Username        string `yaml:"username"`        // 用户名
	Password        string `yaml:"password"`        // 密码
	Database        string `yaml:"database"`        // 数据库名称
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // 最大空闲连接数
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// MinIOConfig 定义了 MinIO 对象存储的连接配置, 用于暂存上传的 PDF。
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`  // MinIO 服务端点
	AccessKey string `yaml:"accessKey"` // 访问密钥
	SecretKey string `yaml:"secretKey"` // Secret 密钥
	Bucket    string `yaml:"bucket"`    // 暂存桶名称
	Secure    bool   `yaml:"secure"`    // 是否使用HTTPS
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Brokers        []string `yaml:"brokers"`        // Kafka Broker 地址列表
	IngestionTopic string   `yaml:"ingestionTopic"` // 文档入库事件主题
}

// DatabaseConfigs 包含所有外部存储的配置。留空的地址表示不启用该组件。
type DatabaseConfigs struct {
	Milvus MilvusConfig `yaml:"milvus"`
	Qdrant QdrantConfig `yaml:"qdrant"`
	Redis  RedisConfig  `yaml:"redis"`
	MySQL  MySQLConfig  `yaml:"mysql"`
	MinIO  MinIOConfig  `yaml:"minio"`
	Kafka  KafkaConfig  `yaml:"kafka"`
}

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// ServerConfig 定义了 HTTP 服务的监听配置。
type ServerConfig struct {
	Address         string        `yaml:"address"`         // 监听地址 (例如: ":8080")
	ReadTimeout     time.Duration `yaml:"readTimeout"`     // 读取请求超时
	WriteTimeout    time.Duration `yaml:"writeTimeout"`    // 写入响应超时
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"` // 优雅关闭的最长等待时间
}

// AuthConfig 用于配置 JWT 认证。
type AuthConfig struct {
	JwtSecret string        `yaml:"jwtSecret"` // JWT 密钥, 可由 JWT_SECRET 覆盖
	TokenTTL  time.Duration `yaml:"tokenTTL"`  // JWT 令牌的有效期
}

// ProviderConfig 描述一个模型提供商的连接信息。
type ProviderConfig struct {
	APIKey  string `yaml:"apiKey"`  // API 密钥
	Model   string `yaml:"model"`   // 模型名称
	BaseURL string `yaml:"baseURL"` // 服务地址 (Ollama 或 OpenAI 兼容服务)
}

// LLMConfig 包含了生成模型的配置。
type LLMConfig struct {
	Provider string         `yaml:"provider"` // "gemini", "openai" 或 "ollama"
	Gemini   ProviderConfig `yaml:"gemini"`
	OpenAI   ProviderConfig `yaml:"openai"`
	Ollama   ProviderConfig `yaml:"ollama"`
}

// EmbeddingConfig 包含了 embedding 模型的配置。
type EmbeddingConfig struct {
	Provider string         `yaml:"provider"` // "gemini", "openai" 或 "ollama"
	Gemini   ProviderConfig `yaml:"gemini"`
	OpenAI   ProviderConfig `yaml:"openai"`
	Ollama   ProviderConfig `yaml:"ollama"`

	// CacheSize 是进程内查询向量缓存的容量, Redis 不可用时使用。
	CacheSize int           `yaml:"cacheSize"`
	CacheTTL  time.Duration `yaml:"cacheTTL"`
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// VectorStoreConfig 选择向量库实现。
type VectorStoreConfig struct {
	Provider string `yaml:"provider"` // "milvus", "qdrant" 或 "memory"
}

// ArtifactConfig 选择上传文件的暂存位置。
type ArtifactConfig struct {
	Provider string `yaml:"provider"` // "minio" 或 "local"
	LocalDir string `yaml:"localDir"` // provider 为 local 时的暂存目录, 为空时使用系统临时目录
}

// IngestionConfig 定义了文档入库流水线的参数。
type IngestionConfig struct {
	ChunkSize      int   `yaml:"chunkSize"`      // 分块最大字符数
	ChunkOverlap   int   `yaml:"chunkOverlap"`   // 相邻分块重叠字符数
	BatchSize      int   `yaml:"batchSize"`      // 每批 embedding 的分块数
	MaxConcurrency int   `yaml:"maxConcurrency"` // 并发 embedding 的批次数上限
	MaxUploadBytes int64 `yaml:"maxUploadBytes"` // 单个上传文件的大小上限
}

// RetrievalConfig 定义了检索与回答的参数。
type RetrievalConfig struct {
	TopK             int    `yaml:"topK"`             // 每次检索返回的分块数
	FallbackSentence string `yaml:"fallbackSentence"` // 上下文无法回答时模型应输出的句子
}

// RetryConfig 是所有外部调用共享的重试策略。
type RetryConfig struct {
	MaxAttempts  int           `yaml:"maxAttempts"`  // 最大尝试次数 (含首次)
	InitialDelay time.Duration `yaml:"initialDelay"` // 首次重试前的等待
	MaxDelay     time.Duration `yaml:"maxDelay"`     // 退避上限
	Multiplier   float64       `yaml:"multiplier"`   // 指数退避倍数
}

// TimeoutConfig 是每类外部调用单次尝试的超时。
type TimeoutConfig struct {
	Extraction time.Duration `yaml:"extraction"`
	Embedding  time.Duration `yaml:"embedding"`
	Index      time.Duration `yaml:"index"`
	Generation time.Duration `yaml:"generation"`
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// RateLimiterConfig 定义了按用户限流的配置。
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Algorithm   string            `yaml:"algorithm"` // 支持: "tokenBucket", "slidingLog"
	SlidingLog  SlidingLogConfig  `yaml:"slidingLog"`
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
}

// SlidingLogConfig 定义了滑动窗口日志算法的配置。
type SlidingLogConfig struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// TokenBucketConfig 定义了令牌桶算法的配置。
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// CircuitBreakerConfig 定义了外部依赖熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	FailureThreshold uint32        `yaml:"failureThreshold"`
	SuccessThreshold uint32        `yaml:"successThreshold"`
	Timeout          time.Duration `yaml:"timeout"` // 熔断打开后多久进入半开状态
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App         AppInfo           `yaml:"app"`
	Server      ServerConfig      `yaml:"server"`
	Auth        AuthConfig        `yaml:"auth"`
	LLM         LLMConfig         `yaml:"llm"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Logger      LoggerConfig      `yaml:"logger"`
	Databases   DatabaseConfigs   `yaml:"databases"`
	VectorStore VectorStoreConfig `yaml:"vectorStore"`
	Artifacts   ArtifactConfig    `yaml:"artifacts"`
	Ingestion   IngestionConfig   `yaml:"ingestion"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Retry       RetryConfig       `yaml:"retry"`
	Timeouts    TimeoutConfig     `yaml:"timeouts"`
	Middleware  MiddlewareConfig  `yaml:"middleware"`
}

// DefaultFallbackSentence 是上下文不足以回答问题时模型应给出的固定回复。
const DefaultFallbackSentence = "I don't have enough information in your documents to answer that."

// LoadConfig 从指定路径加载 YAML 配置, 叠加 .env 与环境变量中的密钥, 并填充默认值。
// 文件不存在时使用默认配置。
func LoadConfig(path string) (*AppConfig, error) {
	// .env 缺失不是错误, 生产环境直接使用进程环境变量。
	_ = godotenv.Load()

	var cfg AppConfig
	yamlFile, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
			return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}

	applyEnvOverrides(&cfg)
	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides 用环境变量覆盖敏感配置, 密钥不应写在 YAML 文件里。
func applyEnvOverrides(cfg *AppConfig) {
	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	override(&cfg.Auth.JwtSecret, "JWT_SECRET")
	override(&cfg.LLM.Gemini.APIKey, "GEMINI_API_KEY")
	override(&cfg.Embedding.Gemini.APIKey, "GEMINI_API_KEY")
	override(&cfg.LLM.OpenAI.APIKey, "OPENAI_API_KEY")
	override(&cfg.Embedding.OpenAI.APIKey, "OPENAI_API_KEY")
	override(&cfg.Databases.Qdrant.APIKey, "QDRANT_API_KEY")
	override(&cfg.Databases.MinIO.SecretKey, "MINIO_SECRET_KEY")
	override(&cfg.Databases.MySQL.Password, "MYSQL_PASSWORD")
	override(&cfg.Databases.Redis.Password, "REDIS_PASSWORD")
}

// ApplyDefaults 为未设置的字段填充默认值。
func ApplyDefaults(cfg *AppConfig) {
	setStr := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	setInt := func(dst *int, v int) {
		if *dst == 0 {
			*dst = v
		}
	}
	setDur := func(dst *time.Duration, v time.Duration) {
		if *dst == 0 {
			*dst = v
		}
	}

	setStr(&cfg.App.Name, "docchat")
	setStr(&cfg.App.Environment, "development")
	setStr(&cfg.Server.Address, ":8080")
	setDur(&cfg.Server.ReadTimeout, 30*time.Second)
	setDur(&cfg.Server.WriteTimeout, 2*time.Minute)
	setDur(&cfg.Server.ShutdownTimeout, 10*time.Second)
	setDur(&cfg.Auth.TokenTTL, 60*time.Minute)
	setStr(&cfg.Logger.Level, "info")

	setStr(&cfg.LLM.Provider, "gemini")
	setStr(&cfg.LLM.Gemini.Model, "gemini-1.5-flash")
	setStr(&cfg.LLM.Ollama.BaseURL, "http://localhost:11434")
	setStr(&cfg.Embedding.Provider, "gemini")
	setStr(&cfg.Embedding.Gemini.Model, "text-embedding-004")
	setStr(&cfg.Embedding.Ollama.BaseURL, "http://localhost:11434")
	setInt(&cfg.Embedding.CacheSize, 1024)
	setDur(&cfg.Embedding.CacheTTL, 24*time.Hour)

	setStr(&cfg.VectorStore.Provider, "milvus")
	setStr(&cfg.Databases.Milvus.CollectionName, "doc_chunks")
	setInt(&cfg.Databases.Milvus.Dim, 768)
	setStr(&cfg.Databases.Milvus.IndexType, "HNSW")
	setInt(&cfg.Databases.Milvus.TextMaxLength, 8192)
	setInt(&cfg.Databases.Qdrant.Port, 6334)
	setStr(&cfg.Databases.Qdrant.Collection, "pdf_chunks")
	setInt(&cfg.Databases.Qdrant.Dim, 768)
	setStr(&cfg.Databases.MinIO.Bucket, "docchat-uploads")
	setStr(&cfg.Databases.Kafka.IngestionTopic, "document_ingestion")
	setStr(&cfg.Artifacts.Provider, "local")

	setInt(&cfg.Ingestion.ChunkSize, 1000)
	setInt(&cfg.Ingestion.ChunkOverlap, 200)
	setInt(&cfg.Ingestion.BatchSize, 32)
	setInt(&cfg.Ingestion.MaxConcurrency, 4)
	if cfg.Ingestion.MaxUploadBytes == 0 {
		cfg.Ingestion.MaxUploadBytes = 10 << 20
	}
	setInt(&cfg.Retrieval.TopK, 4)
	setStr(&cfg.Retrieval.FallbackSentence, DefaultFallbackSentence)

	setInt(&cfg.Retry.MaxAttempts, 3)
	setDur(&cfg.Retry.InitialDelay, 200*time.Millisecond)
	setDur(&cfg.Retry.MaxDelay, 5*time.Second)
	if cfg.Retry.Multiplier == 0 {
		cfg.Retry.Multiplier = 2
	}
	setDur(&cfg.Timeouts.Extraction, 30*time.Second)
	setDur(&cfg.Timeouts.Embedding, 20*time.Second)
	setDur(&cfg.Timeouts.Index, 10*time.Second)
	setDur(&cfg.Timeouts.Generation, 60*time.Second)

	setStr(&cfg.Middleware.RateLimiter.Algorithm, "tokenBucket")
	if cfg.Middleware.RateLimiter.TokenBucket.Rate == 0 {
		cfg.Middleware.RateLimiter.TokenBucket.Rate = 1
	}
	setInt(&cfg.Middleware.RateLimiter.TokenBucket.Capacity, 10)
	setInt(&cfg.Middleware.RateLimiter.SlidingLog.Limit, 60)
	setDur(&cfg.Middleware.RateLimiter.SlidingLog.Window, time.Minute)
	if cfg.Middleware.CircuitBreaker.FailureThreshold == 0 {
		cfg.Middleware.CircuitBreaker.FailureThreshold = 5
	}
	if cfg.Middleware.CircuitBreaker.SuccessThreshold == 0 {
		cfg.Middleware.CircuitBreaker.SuccessThreshold = 1
	}
	setDur(&cfg.Middleware.CircuitBreaker.Timeout, 30*time.Second)
}

// maxUTF8Bytes 是单个 UTF-8 字符的最大字节数。
const maxUTF8Bytes = 4

// Validate 检查部署配置是否自洽, 失败时返回 ConfigurationError。
func (c *AppConfig) Validate() error {
	const op = "config.validate"
	if c.Ingestion.ChunkSize <= 0 {
		return errs.Configuration(op, "ingestion.chunkSize must be positive, got %d", c.Ingestion.ChunkSize)
	}
	if c.Ingestion.ChunkOverlap < 0 || c.Ingestion.ChunkOverlap >= c.Ingestion.ChunkSize {
		return errs.Configuration(op, "ingestion.chunkOverlap %d must be in [0, chunkSize %d)",
			c.Ingestion.ChunkOverlap, c.Ingestion.ChunkSize)
	}
	if c.Ingestion.BatchSize <= 0 || c.Ingestion.MaxConcurrency <= 0 {
		return errs.Configuration(op, "ingestion.batchSize and ingestion.maxConcurrency must be positive")
	}
	if c.Retrieval.TopK <= 0 {
		return errs.Configuration(op, "retrieval.topK must be positive, got %d", c.Retrieval.TopK)
	}
	if strings.TrimSpace(c.Retrieval.FallbackSentence) == "" {
		return errs.Configuration(op, "retrieval.fallbackSentence must not be blank")
	}
	if c.Retry.MaxAttempts <= 0 {
		return errs.Configuration(op, "retry.maxAttempts must be positive")
	}
	switch c.VectorStore.Provider {
	case "milvus", "qdrant", "memory":
	default:
		return errs.Configuration(op, "unknown vectorStore.provider %q", c.VectorStore.Provider)
	}
	// Milvus VARCHAR max_length 按字节计; 一个分块最多 chunkSize+1 个字符, 每字符最多 4 字节。
	if c.VectorStore.Provider == "milvus" {
		if need := (c.Ingestion.ChunkSize + 1) * maxUTF8Bytes; c.Databases.Milvus.TextMaxLength < need {
			return errs.Configuration(op, "databases.milvus.textMaxLength %d cannot hold a %d-character chunk, need at least %d",
				c.Databases.Milvus.TextMaxLength, c.Ingestion.ChunkSize+1, need)
		}
	}
	switch c.Artifacts.Provider {
	case "minio", "local":
	default:
		return errs.Configuration(op, "unknown artifacts.provider %q", c.Artifacts.Provider)
	}
	switch c.Middleware.RateLimiter.Algorithm {
	case "tokenBucket", "slidingLog":
	default:
		return errs.Configuration(op, "unknown rate limiter algorithm %q", c.Middleware.RateLimiter.Algorithm)
	}
	if c.App.Environment == "production" && c.Auth.JwtSecret == "" {
		return errs.Configuration(op, "auth.jwtSecret (or JWT_SECRET) is required in production")
	}
	return nil
}
