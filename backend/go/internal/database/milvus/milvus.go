package milvus

import (
	"context"
	"fmt"

	"DocChat/backend/go/internal/config"
	"DocChat/backend/go/pkg/logger"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// 集合中各字段的名称。owner_id 是检索时的租户过滤字段。
const (
	FieldID            = "id"
	FieldOwnerID       = "owner_id"
	FieldSourceName    = "source_name"
	FieldSequenceIndex = "sequence_index"
	FieldUploadedAt    = "uploaded_at"
	FieldText          = "text"
	FieldEmbedding     = "embedding"

	idMaxLength     = 64
	ownerMaxLength  = 128
	sourceMaxLength = 512
)

// MilvusClient 包含了 Milvus 客户端实例和相关配置。
type MilvusClient struct {
	Client client.Client        // Milvus 客户端实例。
	Config *config.MilvusConfig // Milvus 配置。
	log    *logger.Logger
}

// NewClient 创建一个 Milvus 客户端。调用方负责在退出时调用 Close。
func NewClient(ctx context.Context, cfg *config.MilvusConfig, log *logger.Logger) (*MilvusClient, error) {
	c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("无法连接到 Milvus: %w", err)
	}
	log.WithField("address", cfg.Address).Info("connected to Milvus")
	return &MilvusClient{Client: c, Config: cfg, log: log}, nil
}

// Close 安全地关闭与 Milvus 的连接。
func (c *MilvusClient) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// HealthCheck 检查 Milvus 连接的健康状况。
func (c *MilvusClient) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("milvus client is nil")
	}
	if _, err := c.Client.ListCollections(ctx); err != nil {
		return fmt.Errorf("milvus health check failed: %w", err)
	}
	return nil
}

// CollectionSchema 返回存放文档分块的集合 Schema。
func CollectionSchema(cfg *config.MilvusConfig) *entity.Schema {
	return entity.NewSchema().
		WithName(cfg.CollectionName).
		WithDescription("PDF chunks tagged with their owner").
		WithField(entity.NewField().WithName(FieldID).WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(idMaxLength).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName(FieldOwnerID).WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(ownerMaxLength)).
		WithField(entity.NewField().WithName(FieldSourceName).WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(sourceMaxLength)).
		WithField(entity.NewField().WithName(FieldSequenceIndex).WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName(FieldUploadedAt).WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName(FieldText).WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(int64(cfg.TextMaxLength))).
		WithField(entity.NewField().WithName(FieldEmbedding).WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(cfg.Dim)))
}

// EnsureCollection 确保集合存在、向量索引已创建并加载到内存。
func (c *MilvusClient) EnsureCollection(ctx context.Context) error {
	collName := c.Config.CollectionName
	exists, err := c.Client.HasCollection(ctx, collName)
	if err != nil {
		return fmt.Errorf("检查集合是否存在时出错: %w", err)
	}
	if !exists {
		if err := c.Client.CreateCollection(ctx, CollectionSchema(c.Config), entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("创建集合失败: %w", err)
		}
		idx, err := BuildIndex(c.Config.IndexType)
		if err != nil {
			return err
		}
		if err := c.Client.CreateIndex(ctx, collName, FieldEmbedding, idx, false); err != nil {
			return fmt.Errorf("为字段 '%s' 创建索引失败: %w", FieldEmbedding, err)
		}
		c.log.WithField("collection", collName).Info("created Milvus collection")
	}

	if err := c.Client.LoadCollection(ctx, collName, false); err != nil {
		return fmt.Errorf("加载 Milvus 集合 '%s' 失败: %w", collName, err)
	}
	return nil
}

// BuildIndex 根据索引类型构建向量索引, 统一使用 COSINE 度量, 分数越高越相似。
func BuildIndex(indexType string) (entity.Index, error) {
	switch indexType {
	case "HNSW":
		return entity.NewIndexHNSW(entity.COSINE, 16, 200)
	case "IVF_FLAT":
		return entity.NewIndexIvfFlat(entity.COSINE, 128)
	case "AUTOINDEX", "":
		return entity.NewIndexAUTOINDEX(entity.COSINE)
	default:
		return nil, fmt.Errorf("不支持的索引类型: %s", indexType)
	}
}

// SearchParam 返回与索引类型匹配的搜索参数。
func SearchParam(indexType string) (entity.SearchParam, error) {
	switch indexType {
	case "HNSW":
		return entity.NewIndexHNSWSearchParam(64)
	case "IVF_FLAT":
		return entity.NewIndexIvfFlatSearchParam(16)
	case "AUTOINDEX", "":
		return entity.NewIndexAUTOINDEXSearchParam(1)
	default:
		return nil, fmt.Errorf("不支持的索引类型: %s", indexType)
	}
}
