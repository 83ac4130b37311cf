package dal

import (
	"context"

	"DocChat/backend/go/internal/models"

	"gorm.io/gorm"
)

// UploadDAL provides data access methods for upload records.
type UploadDAL struct {
	db *gorm.DB
}

// NewUploadDAL creates a new UploadDAL.
func NewUploadDAL(db *gorm.DB) *UploadDAL {
	return &UploadDAL{db: db}
}

// AutoMigrate creates or updates the files table.
func (dal *UploadDAL) AutoMigrate() error {
	return dal.db.AutoMigrate(&models.UploadRecord{})
}

// CreateUpload stores one upload record.
func (dal *UploadDAL) CreateUpload(ctx context.Context, rec *models.UploadRecord) error {
	return dal.db.WithContext(ctx).Create(rec).Error
}

// ListUploadsByUser returns the newest uploads of userID first. limit <= 0 means no limit.
func (dal *UploadDAL) ListUploadsByUser(ctx context.Context, userID string, limit int) ([]models.UploadRecord, error) {
	var records []models.UploadRecord
	q := dal.db.WithContext(ctx).Where("user_id = ?", userID).Order("uploaded_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
