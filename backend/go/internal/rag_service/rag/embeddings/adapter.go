package embeddings

import (
	"context"

	"DocChat/backend/go/internal/embedding"
	"DocChat/backend/go/internal/rag_service/rag/interfaces"
	"DocChat/backend/go/pkg/resilience"
)

// Adapter runs a provider embedding model under the retry policy.
type Adapter struct {
	model  embedding.Embedding
	policy resilience.Policy
}

// NewAdapter creates a new adapter for the given provider model.
func NewAdapter(model embedding.Embedding, policy resilience.Policy) *Adapter {
	return &Adapter{model: model, policy: policy}
}

func (a *Adapter) Embed(ctx context.Context, text string) ([]float32, error) {
	return resilience.Call(ctx, a.policy, func(ctx context.Context) ([]float32, error) {
		return a.model.Embed(ctx, text)
	})
}

func (a *Adapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return resilience.Call(ctx, a.policy, func(ctx context.Context) ([][]float32, error) {
		return a.model.EmbedBatch(ctx, texts)
	})
}

// compile-time check to ensure Adapter implements the EmbeddingModel interface
var _ interfaces.EmbeddingModel = (*Adapter)(nil)
