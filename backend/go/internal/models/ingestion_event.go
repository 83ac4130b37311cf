package models

import "time"

// IngestionEvent 是发布到 Kafka 的文档摄取事件。
type IngestionEvent struct {
	EventID    string       `json:"event_id"`
	UserID     string       `json:"user_id"`
	FileName   string       `json:"file_name"`
	Status     UploadStatus `json:"status"`
	ChunkCount int          `json:"chunk_count"`
	ErrorKind  string       `json:"error_kind,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}
