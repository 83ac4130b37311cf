package pipeline

import (
	"context"
	"errors"
	"testing"

	"DocChat/backend/go/internal/rag_service/rag/errs"
	"DocChat/backend/go/internal/rag_service/rag/schema"
	"DocChat/backend/go/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	hits       []schema.ScoredChunk
	err        error
	gotFilter  schema.Filter
	gotTopK    int
	queryCalls int
}

func (s *stubStore) Upsert(context.Context, []schema.Record) error { return nil }
func (s *stubStore) Delete(context.Context, []string) error        { return nil }
func (s *stubStore) Query(_ context.Context, _ []float32, topK int, f schema.Filter) ([]schema.ScoredChunk, error) {
	s.queryCalls++
	s.gotFilter, s.gotTopK = f, topK
	return s.hits, s.err
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("quota exceeded")
}
func (failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("quota exceeded")
}

func hit(id, owner string, seq int, score float32) schema.ScoredChunk {
	return schema.ScoredChunk{Chunk: schema.Chunk{ID: id, OwnerID: owner, SequenceIndex: seq, Text: id}, Score: score}
}

func TestRetrievalPassesOwnerFilterToStore(t *testing.T) {
	store := &stubStore{}
	p := NewRetrievalPipeline(&keywordEmbedder{}, store, 0, logger.Nop())

	rc, err := p.Run(context.Background(), schema.Query{Text: "anything?", OwnerID: "u7"}, 0)
	require.NoError(t, err)
	assert.Empty(t, rc)
	assert.Equal(t, schema.OwnerFilter("u7"), store.gotFilter)
	assert.Equal(t, DefaultTopK, store.gotTopK)
}

func TestRetrievalOrdersByScoreThenSequence(t *testing.T) {
	store := &stubStore{hits: []schema.ScoredChunk{
		hit("c", "u1", 5, 0.5),
		hit("a", "u1", 3, 0.9),
		hit("b", "u1", 1, 0.9),
		hit("d", "u1", 0, 0.1),
	}}
	p := NewRetrievalPipeline(&keywordEmbedder{}, store, 4, logger.Nop())

	rc, err := p.Run(context.Background(), schema.Query{Text: "q", OwnerID: "u1"}, 3)
	require.NoError(t, err)
	var ids []string
	for _, sc := range rc {
		ids = append(ids, sc.Chunk.ID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
	assert.Equal(t, 3, store.gotTopK)
}

func TestRetrievalDropsForeignChunks(t *testing.T) {
	store := &stubStore{hits: []schema.ScoredChunk{hit("mine", "u1", 0, 0.2), hit("theirs", "u2", 0, 0.99)}}
	p := NewRetrievalPipeline(&keywordEmbedder{}, store, 4, logger.Nop())

	rc, err := p.Run(context.Background(), schema.Query{Text: "q", OwnerID: "u1"}, 4)
	require.NoError(t, err)
	require.Len(t, rc, 1)
	assert.Equal(t, "mine", rc[0].Chunk.ID)
}

func TestRetrievalValidation(t *testing.T) {
	store := &stubStore{}
	p := NewRetrievalPipeline(&keywordEmbedder{}, store, 4, logger.Nop())

	_, err := p.Run(context.Background(), schema.Query{Text: "  ", OwnerID: "u1"}, 4)
	assert.True(t, errors.Is(err, errs.ErrValidation))
	_, err = p.Run(context.Background(), schema.Query{Text: "q", OwnerID: ""}, 4)
	assert.True(t, errors.Is(err, errs.ErrValidation))
	assert.Zero(t, store.queryCalls)
}

func TestRetrievalWrapsDependencyFailures(t *testing.T) {
	p := NewRetrievalPipeline(failingEmbedder{}, &stubStore{}, 4, logger.Nop())
	_, err := p.Run(context.Background(), schema.Query{Text: "q", OwnerID: "u1"}, 4)
	assert.True(t, errors.Is(err, errs.ErrRetrieval))
	assert.True(t, errors.Is(err, errs.ErrEmbedding))

	p = NewRetrievalPipeline(&keywordEmbedder{}, &stubStore{err: errors.New("milvus down")}, 4, logger.Nop())
	_, err = p.Run(context.Background(), schema.Query{Text: "q", OwnerID: "u1"}, 4)
	assert.True(t, errors.Is(err, errs.ErrRetrieval))
	assert.True(t, errors.Is(err, errs.ErrIndex))
	assert.False(t, errors.Is(err, errs.ErrEmbedding))
}
