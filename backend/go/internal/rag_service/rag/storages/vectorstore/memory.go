package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"DocChat/backend/go/internal/rag_service/rag/errs"
	"DocChat/backend/go/internal/rag_service/rag/interfaces"
	"DocChat/backend/go/internal/rag_service/rag/schema"
)

// MemoryStore is an in-process vector store using brute-force cosine similarity. It is
// used for local development and tests, and evaluates filters inside Query like the
// external stores do.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	order     []string
	records   map[string]memoryRecord
}

type memoryRecord struct {
	chunk schema.Chunk
	vec   []float32
	norm  float64
}

// NewMemoryStore creates an empty store. The dimension is fixed by the first upsert.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]memoryRecord)}
}

// Upsert inserts records or replaces records with the same chunk ID. A batch is applied
// entirely or not at all.
func (s *MemoryStore) Upsert(ctx context.Context, records []schema.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dimension
	for _, r := range records {
		if r.Chunk.ID == "" {
			return fmt.Errorf("record has no chunk id")
		}
		if dim == 0 {
			dim = len(r.Embedding)
		}
		if len(r.Embedding) == 0 || len(r.Embedding) != dim {
			return errs.Configuration("memory.upsert", "vector dimension mismatch: got %d, want %d", len(r.Embedding), dim)
		}
	}
	s.dimension = dim

	for _, r := range records {
		if _, exists := s.records[r.Chunk.ID]; !exists {
			s.order = append(s.order, r.Chunk.ID)
		}
		vec := append([]float32(nil), r.Embedding...)
		s.records[r.Chunk.ID] = memoryRecord{chunk: r.Chunk, vec: vec, norm: norm(vec)}
	}
	return nil
}

// Query returns at most topK chunks passing filter, by descending cosine similarity.
func (s *MemoryStore) Query(ctx context.Context, embedding []float32, topK int, filter schema.Filter) ([]schema.ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dimension != 0 && len(embedding) != s.dimension {
		return nil, errs.Configuration("memory.query", "query dimension mismatch: got %d, want %d", len(embedding), s.dimension)
	}
	qNorm := norm(embedding)

	results := make([]schema.ScoredChunk, 0, topK)
	for _, id := range s.order {
		rec := s.records[id]
		if !filter.Matches(rec.chunk) {
			continue
		}
		results = append(results, schema.ScoredChunk{
			Chunk: rec.chunk,
			Score: cosine(embedding, qNorm, rec.vec, rec.norm),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Delete removes the given chunk IDs. Unknown IDs are ignored.
func (s *MemoryStore) Delete(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.records[id]; ok {
			drop[id] = struct{}{}
			delete(s.records, id)
		}
	}
	if len(drop) == 0 {
		return nil
	}
	kept := s.order[:0]
	for _, id := range s.order {
		if _, ok := drop[id]; !ok {
			kept = append(kept, id)
		}
	}
	s.order = kept
	return nil
}

// Len returns the number of stored chunks.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector is all zeros.
func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float32 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot / (aNorm * bNorm))
}

// compile-time check to ensure MemoryStore implements the VectorStore interface
var _ interfaces.VectorStore = (*MemoryStore)(nil)
