package qdrant

import (
	"context"
	"fmt"

	"DocChat/backend/go/internal/config"
	"DocChat/backend/go/pkg/logger"

	"github.com/qdrant/go-client/qdrant"
)

// OwnerField 是 payload 中的租户字段, 会建立 keyword 索引以便过滤。
const OwnerField = "owner_id"

// NewClient 创建 Qdrant gRPC 客户端并执行健康检查。调用方负责调用 Close。
func NewClient(ctx context.Context, cfg *config.QdrantConfig, log *logger.Logger) (*qdrant.Client, error) {
	c, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("无法创建 Qdrant 客户端: %w", err)
	}
	if _, err := c.HealthCheck(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("Qdrant 健康检查失败: %w", err)
	}
	log.WithField("host", cfg.Host).Info("connected to Qdrant")
	return c, nil
}

// EnsureCollection 在集合不存在时以余弦距离创建它, 并为 owner_id 建立 payload 索引。
func EnsureCollection(ctx context.Context, c *qdrant.Client, cfg *config.QdrantConfig) error {
	exists, err := c.CollectionExists(ctx, cfg.Collection)
	if err != nil {
		return fmt.Errorf("检查 Qdrant 集合是否存在时出错: %w", err)
	}
	if exists {
		return nil
	}

	err = c.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(cfg.Dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("创建 Qdrant 集合失败: %w", err)
	}

	_, err = c.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: cfg.Collection,
		FieldName:      OwnerField,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("为 '%s' 创建 payload 索引失败: %w", OwnerField, err)
	}
	return nil
}
