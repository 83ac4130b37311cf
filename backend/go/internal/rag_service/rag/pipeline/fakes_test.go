package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"DocChat/backend/go/internal/rag_service/rag/artifacts"
	"DocChat/backend/go/internal/rag_service/rag/interfaces"
	"DocChat/backend/go/internal/rag_service/rag/schema"
	"DocChat/backend/go/internal/rag_service/rag/splitters"
	"DocChat/backend/go/internal/rag_service/rag/storages/vectorstore"
	"DocChat/backend/go/pkg/logger"

	"github.com/stretchr/testify/require"
)

const fallback = "I don't have enough information in your documents to answer that."

// textLoader treats the staged bytes as already extracted text.
type textLoader struct{ err error }

func (l textLoader) Load(_ context.Context, r io.ReaderAt, size int64) (string, error) {
	if l.err != nil {
		return "", l.err
	}
	b := make([]byte, size)
	if _, err := r.ReadAt(b, 0); err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return string(b), nil
}

// keywordEmbedder counts keyword occurrences, plus a constant component so no vector is zero.
type keywordEmbedder struct {
	keywords []string

	mu      sync.Mutex
	calls   int
	failOn  int // 1-based EmbedBatch call that fails, 0 for never
	onBatch func(call int)
}

func (e *keywordEmbedder) vector(text string) []float32 {
	v := make([]float32, len(e.keywords)+1)
	lower := strings.ToLower(text)
	for i, k := range e.keywords {
		v[i] = float32(strings.Count(lower, k))
	}
	v[len(e.keywords)] = 1
	return v
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return e.vector(text), nil
}

func (e *keywordEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	call := e.calls
	e.mu.Unlock()
	if e.onBatch != nil {
		e.onBatch(call)
	}
	if call == e.failOn {
		return nil, errors.New("embedding backend unavailable")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

// flakyStore wraps a MemoryStore and fails selected operations.
type flakyStore struct {
	*vectorstore.MemoryStore
	mu          sync.Mutex
	upserts     int
	failUpsert  int // 1-based Upsert call that fails, 0 for never
	failDelete  bool
	deletedIDs  []string
	writeBefore bool // apply the failing upsert before reporting the error
}

func (s *flakyStore) Upsert(ctx context.Context, records []schema.Record) error {
	s.mu.Lock()
	s.upserts++
	n := s.upserts
	s.mu.Unlock()
	if n == s.failUpsert {
		if s.writeBefore {
			_ = s.MemoryStore.Upsert(ctx, records)
		}
		return errors.New("index write timed out")
	}
	return s.MemoryStore.Upsert(ctx, records)
}

func (s *flakyStore) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	s.deletedIDs = append(s.deletedIDs, ids...)
	s.mu.Unlock()
	if s.failDelete {
		return errors.New("index unavailable")
	}
	return s.MemoryStore.Delete(ctx, ids)
}

// groundedLLM answers with the first context chunk mentioning keyword, or the fallback.
type groundedLLM struct {
	keyword string
	prompts []string
	err     error
	answer  *string
}

func (l *groundedLLM) Generate(_ context.Context, prompt string) (string, error) {
	l.prompts = append(l.prompts, prompt)
	if l.err != nil {
		return "", l.err
	}
	if l.answer != nil {
		return *l.answer, nil
	}
	start := strings.Index(prompt, "Context:\n") + len("Context:\n")
	end := strings.Index(prompt, "\n\nQuestion:")
	for _, chunk := range strings.Split(prompt[start:end], ContextSeparator) {
		if i := strings.Index(chunk, l.keyword); i >= 0 {
			return "  According to your document: " + chunk[max(0, i-20):i+len(l.keyword)] + "\n", nil
		}
	}
	return fallback, nil
}

func newTestIndexer(t *testing.T, embedder *keywordEmbedder, store interfaces.VectorStore, cfg IndexingConfig) (*IndexingPipeline, string) {
	t.Helper()
	dir := t.TempDir()
	art, err := artifacts.NewLocalStore(dir)
	require.NoError(t, err)
	splitter, err := splitters.NewSentenceSplitter(splitters.DefaultChunkSize, splitters.DefaultChunkOverlap)
	require.NoError(t, err)
	return NewIndexingPipeline(art, textLoader{}, splitter, embedder, store, cfg, logger.Nop()), dir
}

// fillText returns n characters with no whitespace and no sentence terminators.
func fillText(n int) string {
	var sb strings.Builder
	words := []string{"lorem", "ipsum", "dolor", "sit", "amet"}
	for i := 0; sb.Len() < n; i++ {
		sb.WriteString(words[i%len(words)])
		sb.WriteByte('_')
	}
	return sb.String()[:n]
}
