package pipeline

import (
	"context"
	"sort"
	"strings"

	"DocChat/backend/go/internal/rag_service/rag/errs"
	"DocChat/backend/go/internal/rag_service/rag/interfaces"
	"DocChat/backend/go/internal/rag_service/rag/schema"
	"DocChat/backend/go/pkg/logger"
)

// DefaultTopK is the number of chunks retrieved when the caller passes k <= 0.
const DefaultTopK = 4

// RetrievalPipeline finds the chunks of one owner most similar to a question.
type RetrievalPipeline struct {
	embedder    interfaces.EmbeddingModel
	vectorStore interfaces.VectorStore
	topK        int
	log         *logger.Logger
}

// NewRetrievalPipeline creates a new RetrievalPipeline. topK <= 0 means DefaultTopK.
func NewRetrievalPipeline(embedder interfaces.EmbeddingModel, vectorStore interfaces.VectorStore, topK int, log *logger.Logger) *RetrievalPipeline {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &RetrievalPipeline{embedder: embedder, vectorStore: vectorStore, topK: topK, log: log}
}

// Run retrieves at most k chunks owned by q.OwnerID, most similar first. The owner filter
// is part of the vector store query. An empty result is not an error.
func (p *RetrievalPipeline) Run(ctx context.Context, q schema.Query, k int) (schema.RetrievedContext, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, errs.Validation("retrieve", "query text is empty")
	}
	if strings.TrimSpace(q.OwnerID) == "" {
		return nil, errs.Validation("retrieve", "owner id is empty")
	}
	if k <= 0 {
		k = p.topK
	}
	log := p.log.WithUser(q.OwnerID)

	vec, err := p.embedder.Embed(ctx, q.Text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.E(errs.KindRetrieval, "retrieve", errs.E(errs.KindEmbedding, "retrieve.embed", err))
	}

	hits, err := p.vectorStore.Query(ctx, vec, k, schema.OwnerFilter(q.OwnerID))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.E(errs.KindRetrieval, "retrieve", errs.E(errs.KindIndex, "retrieve.query", err))
	}

	out := make(schema.RetrievedContext, 0, len(hits))
	for _, h := range hits {
		if h.Chunk.OwnerID != q.OwnerID {
			// The store ignored the owner filter. Never hand foreign chunks to the model.
			log.WithField("chunk_id", h.Chunk.ID).Error("vector store returned a chunk of another owner")
			continue
		}
		out = append(out, h)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Chunk.SequenceIndex < out[j].Chunk.SequenceIndex
	})
	if len(out) > k {
		out = out[:k]
	}

	log.WithField("chunks", len(out)).Debug("retrieved context")
	return out, nil
}
