package loaders

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"DocChat/backend/go/internal/rag_service/rag/errs"

	"github.com/stretchr/testify/assert"
)

func TestPdfLoaderRejectsNonPdf(t *testing.T) {
	loader := NewPdfLoader()

	payloads := [][]byte{
		[]byte("this is definitely not a pdf"),
		[]byte("%PDF-1.4\n%garbage without xref\n"),
	}
	for _, p := range payloads {
		_, err := loader.Load(context.Background(), bytes.NewReader(p), int64(len(p)))
		assert.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrExtraction), "got %v", err)
	}
}

func TestPdfLoaderRejectsEmpty(t *testing.T) {
	_, err := NewPdfLoader().Load(context.Background(), bytes.NewReader(nil), 0)
	assert.True(t, errors.Is(err, errs.ErrExtraction))
}

// blockingReaderAt stalls every read until released, like a parser stuck on one huge page.
type blockingReaderAt struct {
	release chan struct{}
}

func (b *blockingReaderAt) ReadAt(p []byte, off int64) (int, error) {
	<-b.release
	return 0, errors.New("released")
}

func TestPdfLoaderReturnsPromptlyOnCancel(t *testing.T) {
	r := &blockingReaderAt{release: make(chan struct{})}
	t.Cleanup(func() { close(r.release) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewPdfLoader().Load(ctx, r, 1<<20)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPdfLoaderCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPdfLoader().Load(ctx, bytes.NewReader([]byte("%PDF-1.4")), 8)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}
