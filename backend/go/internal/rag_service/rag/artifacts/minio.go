package artifacts

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"DocChat/backend/go/internal/rag_service/rag/interfaces"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// MinIOStore stages uploads as objects under uploads/<owner>/ in one bucket.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

func NewMinIOStore(client *minio.Client, bucket string) *MinIOStore {
	return &MinIOStore{client: client, bucket: bucket}
}

func (s *MinIOStore) Stage(ctx context.Context, ownerID, sourceName string, data []byte) (string, error) {
	key := objectKey(ownerID)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  "application/pdf",
		UserMetadata: map[string]string{"source-name": url.QueryEscape(sourceName)},
	})
	if err != nil {
		return "", fmt.Errorf("stage upload to minio: %w", err)
	}
	return key, nil
}

func (s *MinIOStore) Open(ctx context.Context, key string) (interfaces.Artifact, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("open staged upload: %w", err)
	}
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, fmt.Errorf("stat staged upload: %w", err)
	}
	return &objectArtifact{Object: obj, size: info.Size}, nil
}

func (s *MinIOStore) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove staged upload: %w", err)
	}
	return nil
}

func objectKey(ownerID string) string {
	return fmt.Sprintf("uploads/%s/%s.pdf", url.PathEscape(ownerID), uuid.NewString())
}

type objectArtifact struct {
	*minio.Object
	size int64
}

func (a *objectArtifact) Size() int64 { return a.size }

var _ interfaces.ArtifactStore = (*MinIOStore)(nil)
