package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"DocChat/backend/go/internal/models"

	"github.com/segmentio/kafka-go"
)

// MessageWriter 是 *kafka.Writer 中发布事件所需的部分。
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// IngestionPublisher 封装了向 Kafka 发送文档入库事件的逻辑。
type IngestionPublisher struct {
	writer MessageWriter
}

// NewIngestionPublisher 创建一个新的 IngestionPublisher 实例。
func NewIngestionPublisher(w MessageWriter) *IngestionPublisher {
	return &IngestionPublisher{writer: w}
}

// PublishIngestion 将事件序列化为 JSON 并发送到 Kafka, 以用户 ID 作为分区键,
// 保证同一用户的事件有序。
func (p *IngestionPublisher) PublishIngestion(ctx context.Context, event *models.IngestionEvent) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal ingestion event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: jsonData,
	})
	if err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}
