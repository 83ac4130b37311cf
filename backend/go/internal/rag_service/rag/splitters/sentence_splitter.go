package splitters

import (
	"strings"

	"DocChat/backend/go/internal/rag_service/rag/errs"
	"DocChat/backend/go/internal/rag_service/rag/interfaces"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// span is a half-open rune range [start, end) of the text being split.
type span struct {
	start, end int
}

// Split cuts text into overlapping chunks of about maxSize characters, preferring to
// end a chunk right after a sentence terminator that lies in the second half of the
// window. A terminator right at the window's end is kept with its sentence, so a chunk
// may hold maxSize+1 characters. Every returned chunk is trimmed and non-empty.
func Split(text string, maxSize, overlap int) ([]string, error) {
	runes := []rune(text)
	spans, err := chunkSpans(runes, maxSize, overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]string, 0, len(spans))
	for _, s := range spans {
		if chunk := strings.TrimSpace(string(runes[s.start:s.end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

func chunkSpans(runes []rune, maxSize, overlap int) ([]span, error) {
	if maxSize <= 0 {
		return nil, errs.Configuration("split", "max chunk size must be positive, got %d", maxSize)
	}
	if overlap < 0 {
		return nil, errs.Configuration("split", "chunk overlap must not be negative, got %d", overlap)
	}
	if overlap >= maxSize {
		return nil, errs.Configuration("split", "chunk overlap %d must be less than max chunk size %d", overlap, maxSize)
	}

	var spans []span
	n := len(runes)
	cursor := 0
	for cursor < n {
		end := cursor + maxSize
		if end < n {
			if cut := lastTerminator(runes, cursor+maxSize/2, end); cut >= 0 {
				end = cut + 1
			}
		} else {
			end = n
		}
		spans = append(spans, span{start: cursor, end: end})
		if end == n {
			break
		}

		next := end - overlap
		if next <= cursor {
			// A terminator close to the midpoint with a large overlap would move the
			// cursor backwards; drop the overlap for this step instead.
			next = end
		}
		cursor = next
	}
	return spans, nil
}

// lastTerminator returns the index of the last '.', '?' or '!' in runes(mid, end], or -1.
// The rune at end is included, so a chunk cut after it holds maxSize+1 runes. end must be
// less than len(runes).
func lastTerminator(runes []rune, mid, end int) int {
	for i := end; i > mid; i-- {
		switch runes[i] {
		case '.', '?', '!':
			return i
		}
	}
	return -1
}

// SentenceSplitter splits with fixed size settings.
type SentenceSplitter struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewSentenceSplitter validates the settings up front so a misconfigured deployment
// fails at startup rather than on the first upload.
func NewSentenceSplitter(chunkSize, chunkOverlap int) (*SentenceSplitter, error) {
	if _, err := chunkSpans(nil, chunkSize, chunkOverlap); err != nil {
		return nil, err
	}
	return &SentenceSplitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}, nil
}

// Split implements interfaces.Splitter.
func (s *SentenceSplitter) Split(text string) ([]string, error) {
	return Split(text, s.ChunkSize, s.ChunkOverlap)
}

// compile-time check to ensure SentenceSplitter implements the Splitter interface
var _ interfaces.Splitter = (*SentenceSplitter)(nil)
