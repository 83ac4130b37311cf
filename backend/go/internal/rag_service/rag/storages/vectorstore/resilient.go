package vectorstore

import (
	"context"
	"errors"

	"DocChat/backend/go/internal/rag_service/rag/errs"
	"DocChat/backend/go/internal/rag_service/rag/interfaces"
	"DocChat/backend/go/internal/rag_service/rag/schema"
	"DocChat/backend/go/pkg/resilience"
)

// Resilient runs every call of a VectorStore under the retry policy. Upserts carry fixed
// chunk ids, so a retried upsert overwrites rather than duplicates.
type Resilient struct {
	store  interfaces.VectorStore
	policy resilience.Policy
}

func NewResilient(store interfaces.VectorStore, policy resilience.Policy) *Resilient {
	return &Resilient{store: store, policy: policy}
}

func (r *Resilient) Upsert(ctx context.Context, records []schema.Record) error {
	return r.policy.Do(ctx, func(ctx context.Context) error {
		return permanentIfDefect(r.store.Upsert(ctx, records))
	})
}

func (r *Resilient) Query(ctx context.Context, embedding []float32, topK int, filter schema.Filter) ([]schema.ScoredChunk, error) {
	return resilience.Call(ctx, r.policy, func(ctx context.Context) ([]schema.ScoredChunk, error) {
		out, err := r.store.Query(ctx, embedding, topK, filter)
		return out, permanentIfDefect(err)
	})
}

func (r *Resilient) Delete(ctx context.Context, ids []string) error {
	return r.policy.Do(ctx, func(ctx context.Context) error {
		return permanentIfDefect(r.store.Delete(ctx, ids))
	})
}

// permanentIfDefect stops retries for errors another attempt cannot fix.
func permanentIfDefect(err error) error {
	if errors.Is(err, errs.ErrConfiguration) || errors.Is(err, errs.ErrValidation) {
		return resilience.Permanent(err)
	}
	return err
}

var _ interfaces.VectorStore = (*Resilient)(nil)
