package models

import (
	"time"

	"gorm.io/datatypes"
)

// UploadStatus is the terminal state of one ingestion attempt.
type UploadStatus string

const (
	UploadIngested UploadStatus = "ingested"
	UploadFailed   UploadStatus = "failed"
)

// UploadRecord is the audit row for one uploaded PDF. The chunks themselves live
// only in the vector store; this row exists so a user can list what they uploaded.
type UploadRecord struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	UserID      string       `gorm:"index;not null;size:64" json:"-"`
	FileName    string       `gorm:"not null;size:255" json:"file_name"`
	ContentHash string       `gorm:"index;size:64" json:"content_hash"`
	SizeBytes   int64        `json:"size_bytes"`
	ChunkCount  int          `json:"chunk_count"`
	Status      UploadStatus `gorm:"type:varchar(20);not null" json:"status"`
	// Details holds error kind and chunk ids, never the error text shown to other users.
	Details    datatypes.JSON `json:"-"`
	UploadedAt time.Time      `gorm:"index" json:"uploaded_at"`
}

// TableName keeps the table name used by the original schema.
func (UploadRecord) TableName() string {
	return "files"
}
