// Package caches stores query embeddings so repeated questions skip the embedding model.
package caches

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// VectorCache maps a cache key to an embedding. A miss is (nil, false, nil).
type VectorCache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vec []float32) error
}

// Key derives the cache key for text embedded by model. Vectors from different models
// never share a key.
func Key(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
