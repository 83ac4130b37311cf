package schema

import "time"

const (
	// Payload keys written next to every vector. Vector stores filter on MetadataKeyOwnerID.
	MetadataKeyOwnerID       = "owner_id"
	MetadataKeySourceName    = "source_name"
	MetadataKeySequenceIndex = "sequence_index"
	MetadataKeyUploadedAt    = "uploaded_at"
	MetadataKeyText          = "text"
)

// Document is one uploaded PDF. It is never persisted on its own; the vector store
// holds only the chunks derived from it.
type Document struct {
	OwnerID    string
	SourceName string
	UploadedAt time.Time
}

// Chunk is the atomic retrievable unit. Chunks are immutable once created.
type Chunk struct {
	// ID is the vector store primary key.
	ID   string
	Text string

	OwnerID    string
	SourceName string
	// SequenceIndex is the position within the source document, for traceability only.
	SequenceIndex int
	UploadedAt    time.Time
}

// Record is what gets written to a vector store: a chunk and its embedding.
type Record struct {
	Chunk     Chunk
	Embedding []float32
}

// ScoredChunk is a chunk returned by a similarity search. Higher scores are more similar.
type ScoredChunk struct {
	Chunk Chunk
	Score float32
}

// RetrievedContext is the ordered, capped result of a retrieval for one owner.
type RetrievedContext []ScoredChunk

// Texts returns the chunk texts in order.
func (rc RetrievedContext) Texts() []string {
	out := make([]string, len(rc))
	for i, sc := range rc {
		out[i] = sc.Chunk.Text
	}
	return out
}

// Query is a single user question. OwnerID comes from the verified session.
type Query struct {
	Text    string
	OwnerID string
}

// Filter is a conjunction of metadata equality predicates evaluated by the vector store.
type Filter map[string]string

// OwnerFilter returns the mandatory tenant filter for ownerID.
func OwnerFilter(ownerID string) Filter {
	return Filter{MetadataKeyOwnerID: ownerID}
}

// Matches evaluates the filter against a chunk's metadata. It is used by stores that
// evaluate predicates in process.
func (f Filter) Matches(c Chunk) bool {
	for key, want := range f {
		var got string
		switch key {
		case MetadataKeyOwnerID:
			got = c.OwnerID
		case MetadataKeySourceName:
			got = c.SourceName
		default:
			return false
		}
		if got != want {
			return false
		}
	}
	return true
}
