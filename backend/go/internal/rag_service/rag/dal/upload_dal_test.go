package dal

import (
	"context"
	"os"
	"testing"
	"time"

	"DocChat/backend/go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// TestUploadDAL runs against a live MySQL when MYSQL_TEST_DSN is set.
func TestUploadDAL(t *testing.T) {
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	d := NewUploadDAL(db)
	require.NoError(t, d.AutoMigrate())

	ctx := context.Background()
	owner := "dal-test-" + time.Now().Format("150405.000000")
	older := &models.UploadRecord{UserID: owner, FileName: "a.pdf", Status: models.UploadIngested, UploadedAt: time.Now().Add(-time.Hour).UTC()}
	newer := &models.UploadRecord{UserID: owner, FileName: "b.pdf", Status: models.UploadFailed, UploadedAt: time.Now().UTC()}
	require.NoError(t, d.CreateUpload(ctx, older))
	require.NoError(t, d.CreateUpload(ctx, newer))
	require.NoError(t, d.CreateUpload(ctx, &models.UploadRecord{UserID: owner + "-other", FileName: "c.pdf", Status: models.UploadIngested, UploadedAt: time.Now().UTC()}))

	got, err := d.ListUploadsByUser(ctx, owner, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b.pdf", got[0].FileName)
	assert.Equal(t, "a.pdf", got[1].FileName)

	got, err = d.ListUploadsByUser(ctx, owner, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
