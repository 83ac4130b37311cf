// Package artifacts stages raw uploads for the duration of one ingestion.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"DocChat/backend/go/internal/rag_service/rag/interfaces"

	"github.com/google/uuid"
)

// LocalStore keeps staged uploads as files in one directory. Keys are bare file names.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed. An empty dir means the system temp directory.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "docchat-uploads")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Stage(ctx context.Context, _, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := uuid.NewString() + ".pdf"
	if err := os.WriteFile(filepath.Join(s.dir, key), data, 0o600); err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}
	return key, nil
}

func (s *LocalStore) Open(ctx context.Context, key string) (interfaces.Artifact, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open staged upload: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat staged upload: %w", err)
	}
	return &fileArtifact{File: f, size: info.Size()}, nil
}

func (s *LocalStore) Remove(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove staged upload: %w", err)
	}
	return nil
}

func (s *LocalStore) path(key string) (string, error) {
	if key == "" || filepath.Base(key) != key {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

type fileArtifact struct {
	*os.File
	size int64
}

func (a *fileArtifact) Size() int64 { return a.size }

var _ interfaces.ArtifactStore = (*LocalStore)(nil)
