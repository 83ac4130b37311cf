package kafka

import (
	"context"
	"fmt"
	"time"

	"DocChat/backend/go/internal/config"
	"DocChat/backend/go/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// KafkaClient 持有写入文档事件的 Kafka writer。
type KafkaClient struct {
	Writer *kafka.Writer
	Config *config.KafkaConfig
}

// NewClient 连接到 Kafka, 在入库事件主题不存在时创建它, 并返回一个 writer。
func NewClient(cfg *config.KafkaConfig, log *logger.Logger) (*KafkaClient, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("未配置 Kafka brokers")
	}
	if cfg.IngestionTopic == "" {
		return nil, fmt.Errorf("未配置 Kafka 入库事件主题")
	}

	if err := ensureTopic(cfg.Brokers[0], cfg.IngestionTopic, log); err != nil {
		return nil, err
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.IngestionTopic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		BatchSize:              100,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: false,
	}

	log.WithField("brokers", cfg.Brokers).Info("Kafka client initialised")
	return &KafkaClient{Writer: writer, Config: cfg}, nil
}

// ensureTopic 通过管理连接检查并创建主题。
func ensureTopic(broker, topic string, log *logger.Logger) error {
	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		return fmt.Errorf("kafka 初始化连接失败: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("无法读取 Kafka 分区信息: %w", err)
	}
	for _, p := range partitions {
		if p.Topic == topic {
			return nil
		}
	}

	// 主题的创建必须发给控制器节点。
	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("无法获取 Kafka 控制器: %w", err)
	}
	ctrlConn, err := kafka.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return fmt.Errorf("无法连接 Kafka 控制器: %w", err)
	}
	defer ctrlConn.Close()

	if err := ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}); err != nil {
		return fmt.Errorf("自动创建 Kafka 主题失败: %w", err)
	}
	log.WithField("topic", topic).Info("created Kafka topic")
	return nil
}

// Close 关闭 writer。
func (c *KafkaClient) Close() error {
	if c == nil || c.Writer == nil {
		return nil
	}
	if err := c.Writer.Close(); err != nil {
		return fmt.Errorf("关闭 Kafka writer 失败: %w", err)
	}
	return nil
}

// HealthCheck 检查 broker 是否可以连接。
func (c *KafkaClient) HealthCheck(ctx context.Context) error {
	if c == nil || len(c.Config.Brokers) == 0 {
		return fmt.Errorf("kafka 客户端未初始化，无法进行健康检查")
	}
	conn, err := (&kafka.Dialer{Timeout: 5 * time.Second}).DialContext(ctx, "tcp", c.Config.Brokers[0])
	if err != nil {
		return err
	}
	return conn.Close()
}
