package interfaces

import (
	"context"
	"io"

	"DocChat/backend/go/internal/rag_service/rag/schema"
)

// Loader extracts the raw text of a document readable through r.
type Loader interface {
	Load(ctx context.Context, r io.ReaderAt, size int64) (string, error)
}

// Splitter splits normalized document text into chunk texts, in document order.
type Splitter interface {
	Split(text string) ([]string, error)
}

// EmbeddingModel maps text to fixed-length vectors.
type EmbeddingModel interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore stores tagged chunk vectors and answers filtered similarity queries.
type VectorStore interface {
	Upsert(ctx context.Context, records []schema.Record) error
	// Query returns at most topK chunks matching filter, most similar first. The filter
	// is evaluated by the store itself; chunks failing it never leave the store.
	Query(ctx context.Context, embedding []float32, topK int, filter schema.Filter) ([]schema.ScoredChunk, error)
	Delete(ctx context.Context, ids []string) error
}

// LLM is a single-shot generative model.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Artifact is a staged upload, readable at random offsets.
type Artifact interface {
	io.ReaderAt
	io.Closer
	Size() int64
}

// ArtifactStore holds raw uploads for the duration of one ingestion.
type ArtifactStore interface {
	Stage(ctx context.Context, ownerID, sourceName string, data []byte) (key string, err error)
	Open(ctx context.Context, key string) (Artifact, error)
	Remove(ctx context.Context, key string) error
}
