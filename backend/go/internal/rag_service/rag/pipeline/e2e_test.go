package pipeline

import (
	"context"
	"strings"
	"testing"

	"DocChat/backend/go/internal/rag_service/rag/schema"
	"DocChat/backend/go/internal/rag_service/rag/storages/vectorstore"
	"DocChat/backend/go/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type system struct {
	indexer   *IndexingPipeline
	retriever *RetrievalPipeline
	qa        *QAPipeline
	store     *vectorstore.MemoryStore
}

func newSystem(t *testing.T, keyword string) *system {
	store := vectorstore.NewMemoryStore()
	emb := &keywordEmbedder{keywords: []string{keyword}}
	indexer, _ := newTestIndexer(t, emb, store, IndexingConfig{BatchSize: 2, MaxConcurrency: 2})
	return &system{
		indexer:   indexer,
		retriever: NewRetrievalPipeline(emb, store, DefaultTopK, logger.Nop()),
		qa:        NewQAPipeline(&groundedLLM{keyword: keyword}, fallback, logger.Nop()),
		store:     store,
	}
}

func (s *system) ask(t *testing.T, owner, question string) (schema.RetrievedContext, string) {
	t.Helper()
	rc, err := s.retriever.Run(context.Background(), schema.Query{Text: question, OwnerID: owner}, DefaultTopK)
	require.NoError(t, err)
	answer, err := s.qa.Run(context.Background(), question, rc)
	require.NoError(t, err)
	return rc, answer
}

func TestEndToEndAnswerComesFromMiddleChunk(t *testing.T) {
	// "zebra" sits at 1200..1205, inside the second chunk [800,1800) and outside both
	// overlaps with the first [0,1000) and third [1600,2500) chunks.
	doc := fillText(1200) + "zebra" + fillText(1295)
	require.Len(t, doc, 2500)

	s := newSystem(t, "zebra")
	res, err := s.indexer.Run(context.Background(), Upload{Data: []byte(doc), OwnerID: "u1", SourceName: "animals.pdf"})
	require.NoError(t, err)
	require.Equal(t, 3, res.ChunkCount)

	rc, answer := s.ask(t, "u1", "What does the document say about zebra?")
	require.NotEmpty(t, rc)
	top := rc[0].Chunk
	assert.Equal(t, 1, top.SequenceIndex)
	assert.Equal(t, doc[800:1800], top.Text)

	all, err := s.store.Query(context.Background(), []float32{0, 1}, 10, schema.OwnerFilter("u1"))
	require.NoError(t, err)
	bySeq := map[int]string{}
	for _, h := range all {
		bySeq[h.Chunk.SequenceIndex] = h.Chunk.Text
	}
	assert.Equal(t, bySeq[0][800:], bySeq[1][:200])
	assert.Equal(t, bySeq[1][800:], bySeq[2][:200])

	assert.NotEqual(t, fallback, answer)
	assert.Contains(t, answer, "zebra")
	assert.True(t, strings.Contains(top.Text, strings.TrimPrefix(answer, "According to your document: ")))
}

func TestEndToEndOwnerWithoutDocumentsGetsFallback(t *testing.T) {
	s := newSystem(t, "zebra")
	_, err := s.indexer.Run(context.Background(), Upload{Data: []byte("The zebra has stripes."), OwnerID: "u1", SourceName: "a.pdf"})
	require.NoError(t, err)

	rc, answer := s.ask(t, "u2", "What does the document say about zebra?")
	assert.Empty(t, rc)
	assert.Equal(t, fallback, answer)
}

func TestEndToEndTenantIsolationWithNearDuplicates(t *testing.T) {
	s := newSystem(t, "zebra")
	ctx := context.Background()

	// u1's only chunk is a weaker match than every one of u2's, and u2 has more than
	// DefaultTopK chunks: a global top-k filtered afterwards would leave u1 with nothing.
	_, err := s.indexer.Run(ctx, Upload{Data: []byte("The zebra, zebra, zebra in the north has black stripes."), OwnerID: "u1", SourceName: "a.pdf"})
	require.NoError(t, err)
	for i := 0; i < DefaultTopK+2; i++ {
		_, err = s.indexer.Run(ctx, Upload{Data: []byte("The zebra in the north has brown stripes."), OwnerID: "u2", SourceName: "a.pdf"})
		require.NoError(t, err)
	}

	global, err := s.store.Query(ctx, []float32{1, 1}, DefaultTopK, schema.Filter{})
	require.NoError(t, err)
	for _, h := range global {
		require.Equal(t, "u2", h.Chunk.OwnerID, "u2 must outrank u1 without the owner filter")
	}

	rc, answer := s.ask(t, "u1", "zebra stripes")
	require.Len(t, rc, 1)
	assert.Equal(t, "u1", rc[0].Chunk.OwnerID)
	assert.Contains(t, rc[0].Chunk.Text, "black")
	assert.NotEqual(t, fallback, answer)

	rc, answer = s.ask(t, "u2", "zebra stripes")
	require.Len(t, rc, DefaultTopK)
	for _, sc := range rc {
		assert.Equal(t, "u2", sc.Chunk.OwnerID)
		assert.Contains(t, sc.Chunk.Text, "brown")
		assert.NotContains(t, sc.Chunk.Text, "black")
	}
	assert.NotEqual(t, fallback, answer)
}
