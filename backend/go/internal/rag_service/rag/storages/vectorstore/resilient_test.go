package vectorstore

import (
	"context"
	"errors"
	"testing"

	"DocChat/backend/go/internal/rag_service/rag/errs"
	"DocChat/backend/go/internal/rag_service/rag/schema"
	"DocChat/backend/go/pkg/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore fails the first failures calls of every method with err.
type countingStore struct {
	*MemoryStore
	failures int
	err      error
	calls    int
}

func (s *countingStore) Upsert(ctx context.Context, records []schema.Record) error {
	s.calls++
	if s.calls <= s.failures {
		return s.err
	}
	return s.MemoryStore.Upsert(ctx, records)
}

func TestResilientRetriesTransientFailures(t *testing.T) {
	inner := &countingStore{MemoryStore: NewMemoryStore(), failures: 2, err: errors.New("connection reset")}
	store := NewResilient(inner, resilience.Policy{MaxAttempts: 3})

	err := store.Upsert(context.Background(), []schema.Record{{
		Chunk:     schema.Chunk{ID: "c1", OwnerID: "u1", Text: "hello"},
		Embedding: []float32{1, 0},
	}})
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)

	got, err := store.Query(context.Background(), []float32{1, 0}, 1, schema.OwnerFilter("u1"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].Chunk.ID)
}

func TestResilientDoesNotRetryConfigurationErrors(t *testing.T) {
	inner := &countingStore{MemoryStore: NewMemoryStore(), failures: 5, err: errs.Configuration("test", "dimension mismatch")}
	store := NewResilient(inner, resilience.Policy{MaxAttempts: 3})

	err := store.Upsert(context.Background(), []schema.Record{{Chunk: schema.Chunk{ID: "c1"}, Embedding: []float32{1}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrConfiguration))
	assert.False(t, resilience.IsPermanent(err))
	assert.Equal(t, 1, inner.calls)
}
