package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"DocChat/backend/go/internal/models"
	"DocChat/backend/go/internal/rag_service/rag/errs"
	"DocChat/backend/go/internal/rag_service/rag/interfaces"
	"DocChat/backend/go/internal/rag_service/rag/normalizer"
	"DocChat/backend/go/internal/rag_service/rag/schema"
	"DocChat/backend/go/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// cleanupTimeout bounds artifact removal and compensating deletes, which run detached
// from the caller's context.
const cleanupTimeout = 30 * time.Second

// Upload is one PDF submitted for ingestion. OwnerID comes from the verified session.
type Upload struct {
	Data       []byte
	OwnerID    string
	SourceName string
}

// IngestResult reports what an ingestion wrote.
type IngestResult struct {
	ChunkCount int
	ChunkIDs   []string
}

// IndexingConfig holds the batching settings of an IndexingPipeline.
type IndexingConfig struct {
	// BatchSize is the number of chunks per EmbedBatch and Upsert call.
	BatchSize int
	// MaxConcurrency bounds the number of batches in flight.
	MaxConcurrency int
	// ExtractionTimeout bounds PDF text extraction. Zero means no extra bound.
	ExtractionTimeout time.Duration
}

// IndexingPipeline orchestrates the process of extracting, splitting, tagging, embedding and
// storing one uploaded document. A run either indexes every chunk of the document or
// leaves nothing behind.
type IndexingPipeline struct {
	artifacts   interfaces.ArtifactStore
	loader      interfaces.Loader
	splitter    interfaces.Splitter
	embedder    interfaces.EmbeddingModel
	vectorStore interfaces.VectorStore
	cfg         IndexingConfig
	log         *logger.Logger

	now   func() time.Time
	newID func() string
}

// NewIndexingPipeline creates a new IndexingPipeline.
func NewIndexingPipeline(
	artifacts interfaces.ArtifactStore,
	loader interfaces.Loader,
	splitter interfaces.Splitter,
	embedder interfaces.EmbeddingModel,
	vectorStore interfaces.VectorStore,
	cfg IndexingConfig,
	log *logger.Logger,
) *IndexingPipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	return &IndexingPipeline{
		artifacts:   artifacts,
		loader:      loader,
		splitter:    splitter,
		embedder:    embedder,
		vectorStore: vectorStore,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Run ingests one upload. On failure every chunk that was or may have been written is
// deleted again and the typed error is returned; on cancellation ctx.Err() is returned
// after the same cleanup.
func (p *IndexingPipeline) Run(ctx context.Context, up Upload) (IngestResult, error) {
	if strings.TrimSpace(up.OwnerID) == "" {
		return IngestResult{}, errs.Validation("ingest", "owner id is empty")
	}
	if strings.TrimSpace(up.SourceName) == "" {
		return IngestResult{}, errs.Validation("ingest", "source name is empty")
	}
	if len(up.Data) == 0 {
		return IngestResult{}, errs.Validation("ingest", "document is empty")
	}
	log := p.log.WithUser(up.OwnerID).WithField("source_name", up.SourceName)
	log.Info("starting ingestion")

	text, err := p.extract(ctx, up)
	if err != nil {
		return IngestResult{}, err
	}

	chunks, err := p.chunk(text)
	if err != nil {
		return IngestResult{}, err
	}
	if len(chunks) == 0 {
		return IngestResult{}, errs.E(errs.KindExtraction, "ingest.split", errors.New("document contains no text"))
	}
	log.WithField("chunks", len(chunks)).Debug("document split")

	records := p.tag(chunks, up)

	written, err := p.store(ctx, records)
	if err != nil || ctx.Err() != nil {
		p.compensate(ctx, log, written)
		if ctxErr := ctx.Err(); ctxErr != nil {
			log.Warn("ingestion cancelled")
			return IngestResult{}, ctxErr
		}
		log.WithError(models.ErrorInfo{Type: errs.KindOf(err).String(), Message: err.Error()}).Error("ingestion failed")
		return IngestResult{}, err
	}

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.Chunk.ID
	}
	log.WithField("chunks", len(ids)).Info("ingestion finished")
	return IngestResult{ChunkCount: len(ids), ChunkIDs: ids}, nil
}

// extract stages the upload, reads its text and removes the staged copy on every path.
func (p *IndexingPipeline) extract(ctx context.Context, up Upload) (string, error) {
	key, err := p.artifacts.Stage(ctx, up.OwnerID, up.SourceName, up.Data)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", errs.E(errs.KindIndex, "ingest.stage", err)
	}
	defer func() {
		rmCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if err := p.artifacts.Remove(rmCtx, key); err != nil {
			p.log.WithField("artifact", key).WithError(models.ErrorInfo{Type: "artifact", Message: err.Error()}).Warn("failed to remove staged upload")
		}
	}()

	if p.cfg.ExtractionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.ExtractionTimeout)
		defer cancel()
	}

	artifact, err := p.artifacts.Open(ctx, key)
	if err != nil {
		return "", errs.E(errs.KindIndex, "ingest.open", err)
	}
	defer artifact.Close()

	text, err := p.loader.Load(ctx, artifact, artifact.Size())
	if err != nil {
		var typed *errs.Error
		if errors.As(err, &typed) {
			return "", err
		}
		return "", errs.E(errs.KindExtraction, "ingest.extract", err)
	}
	return text, nil
}

func (p *IndexingPipeline) chunk(text string) ([]string, error) {
	pieces, err := p.splitter.Split(normalizer.Normalize(text))
	if err != nil {
		return nil, err
	}
	chunks := pieces[:0]
	for _, c := range pieces {
		if strings.TrimSpace(c) != "" {
			chunks = append(chunks, c)
		}
	}
	return chunks, nil
}

// tag stamps every chunk with its owner and provenance before anything leaves the process.
func (p *IndexingPipeline) tag(chunks []string, up Upload) []schema.Record {
	uploadedAt := p.now().UTC()
	records := make([]schema.Record, len(chunks))
	for i, text := range chunks {
		records[i] = schema.Record{Chunk: schema.Chunk{
			ID:            p.newID(),
			Text:          text,
			OwnerID:       up.OwnerID,
			SourceName:    up.SourceName,
			SequenceIndex: i,
			UploadedAt:    uploadedAt,
		}}
	}
	return records
}

// store embeds and upserts records batch by batch, at most MaxConcurrency batches at a
// time. It returns the ids of every batch whose upsert was attempted.
//
// Calls already in flight run on a context detached from cancellation so that the set of
// possibly written ids is known when store returns. Once any batch fails or ctx is done,
// no further batch starts.
func (p *IndexingPipeline) store(ctx context.Context, records []schema.Record) ([]string, error) {
	work := context.WithoutCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxConcurrency)

	var (
		mu      sync.Mutex
		written []string
	)
	for start := 0; start < len(records); start += p.cfg.BatchSize {
		if gctx.Err() != nil {
			break
		}
		batch := records[start:min(start+p.cfg.BatchSize, len(records))]
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			texts := make([]string, len(batch))
			for i, r := range batch {
				texts[i] = r.Chunk.Text
			}
			vecs, err := p.embedder.EmbedBatch(work, texts)
			if err != nil {
				return errs.E(errs.KindEmbedding, "ingest.embed", err)
			}
			if len(vecs) != len(batch) {
				return errs.E(errs.KindEmbedding, "ingest.embed", fmt.Errorf("got %d vectors for %d chunks", len(vecs), len(batch)))
			}
			if gctx.Err() != nil {
				return nil
			}

			out := make([]schema.Record, len(batch))
			ids := make([]string, len(batch))
			for i, r := range batch {
				out[i] = schema.Record{Chunk: r.Chunk, Embedding: vecs[i]}
				ids[i] = r.Chunk.ID
			}
			mu.Lock()
			written = append(written, ids...)
			mu.Unlock()

			if err := p.vectorStore.Upsert(work, out); err != nil {
				return errs.E(errs.KindIndex, "ingest.upsert", err)
			}
			return nil
		})
	}
	err := g.Wait()
	return written, err
}

// compensate deletes ids on a detached context. A failed delete is logged; the caller
// still returns the original error.
func (p *IndexingPipeline) compensate(ctx context.Context, log *logger.Logger, ids []string) {
	if len(ids) == 0 {
		return
	}
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := p.vectorStore.Delete(delCtx, ids); err != nil {
		log.WithField("chunk_ids", ids).
			WithError(models.ErrorInfo{Type: errs.KindIndex.String(), Message: err.Error()}).
			Error("compensating delete failed, orphaned chunks remain")
		return
	}
	log.WithField("chunks", len(ids)).Info("rolled back partially indexed document")
}
