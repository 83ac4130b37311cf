package redis

import (
	"context"
	"fmt"

	"DocChat/backend/go/internal/config"
	"DocChat/backend/go/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// NewClient 创建 Redis 客户端并用 Ping 检查连接。调用方负责调用 Close。
func NewClient(ctx context.Context, cfg *config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("无法连接到 Redis: %w", err)
	}

	log.WithField("address", cfg.Address).Info("connected to Redis")
	return rdb, nil
}
