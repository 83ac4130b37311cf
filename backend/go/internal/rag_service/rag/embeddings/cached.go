package embeddings

import (
	"context"

	"DocChat/backend/go/internal/models"
	"DocChat/backend/go/internal/rag_service/rag/caches"
	"DocChat/backend/go/internal/rag_service/rag/interfaces"
	"DocChat/backend/go/pkg/logger"
)

// Cached serves single-text embeddings from a cache. Batches go straight to the model:
// chunk texts are rarely repeated, questions often are. A cache failure is logged and
// the model is used instead.
type Cached struct {
	next  interfaces.EmbeddingModel
	cache caches.VectorCache
	model string
	log   *logger.Logger
}

func NewCached(next interfaces.EmbeddingModel, cache caches.VectorCache, model string, log *logger.Logger) *Cached {
	return &Cached{next: next, cache: cache, model: model, log: log}
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := caches.Key(c.model, text)
	vec, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.WithError(models.ErrorInfo{Type: "cache", Message: err.Error()}).Warn("embedding cache lookup failed")
	}
	if ok {
		return vec, nil
	}

	vec, err = c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, vec); err != nil {
		c.log.WithError(models.ErrorInfo{Type: "cache", Message: err.Error()}).Warn("embedding cache store failed")
	}
	return vec, nil
}

func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return c.next.EmbedBatch(ctx, texts)
}

var _ interfaces.EmbeddingModel = (*Cached)(nil)
