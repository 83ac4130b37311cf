// Package service ties the ingestion, retrieval and answer pipelines to the caller's
// verified identity and records what each user uploaded.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"DocChat/backend/go/internal/identity"
	"DocChat/backend/go/internal/models"
	"DocChat/backend/go/internal/rag_service/rag/errs"
	"DocChat/backend/go/internal/rag_service/rag/pipeline"
	"DocChat/backend/go/internal/rag_service/rag/schema"
	"DocChat/backend/go/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	bookkeepingTimeout = 5 * time.Second
	listLimit          = 100
)

// Ingester runs the ingestion pipeline.
type Ingester interface {
	Run(ctx context.Context, up pipeline.Upload) (pipeline.IngestResult, error)
}

// Retriever runs the retrieval pipeline.
type Retriever interface {
	Run(ctx context.Context, q schema.Query, k int) (schema.RetrievedContext, error)
}

// Answerer composes an answer from retrieved context.
type Answerer interface {
	Run(ctx context.Context, query string, rc schema.RetrievedContext) (string, error)
}

// UploadRepository persists upload records.
type UploadRepository interface {
	CreateUpload(ctx context.Context, rec *models.UploadRecord) error
	ListUploadsByUser(ctx context.Context, userID string, limit int) ([]models.UploadRecord, error)
}

// EventPublisher announces finished ingestions.
type EventPublisher interface {
	PublishIngestion(ctx context.Context, event *models.IngestionEvent) error
}

// NoopPublisher drops events. It is used when Kafka is not configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishIngestion(context.Context, *models.IngestionEvent) error { return nil }

// Source identifies a chunk an answer was grounded on.
type Source struct {
	SourceName    string  `json:"source_name"`
	SequenceIndex int     `json:"sequence_index"`
	Score         float32 `json:"score"`
}

// Answer is the result of Ask.
type Answer struct {
	Text    string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Service is the document question-answering service.
type Service struct {
	ingester  Ingester
	retriever Retriever
	answerer  Answerer
	uploads   UploadRepository
	events    EventPublisher
	topK      int
	log       *logger.Logger
	now       func() time.Time
}

// NewService creates a Service. A nil events publisher means NoopPublisher.
func NewService(ingester Ingester, retriever Retriever, answerer Answerer, uploads UploadRepository, events EventPublisher, topK int, log *logger.Logger) *Service {
	if events == nil {
		events = NoopPublisher{}
	}
	return &Service{
		ingester:  ingester,
		retriever: retriever,
		answerer:  answerer,
		uploads:   uploads,
		events:    events,
		topK:      topK,
		log:       log,
		now:       time.Now,
	}
}

// Upload ingests a PDF for the caller. Ingestion outcomes other than validation failures
// and cancellation are recorded and published.
func (s *Service) Upload(ctx context.Context, fileName string, data []byte) (*models.UploadRecord, error) {
	id, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	rec := &models.UploadRecord{
		UserID:      id.ID,
		FileName:    fileName,
		ContentHash: hex.EncodeToString(sum[:]),
		SizeBytes:   int64(len(data)),
		UploadedAt:  s.now().UTC(),
	}

	res, err := s.ingester.Run(ctx, pipeline.Upload{Data: data, OwnerID: id.ID, SourceName: fileName})
	if err != nil && (errors.Is(err, errs.ErrValidation) || ctx.Err() != nil) {
		return nil, err
	}

	details := map[string]any{}
	var errorKind string
	if err != nil {
		errorKind = errs.KindOf(err).String()
		rec.Status = models.UploadFailed
		details["error_kind"] = errorKind
	} else {
		rec.Status = models.UploadIngested
		rec.ChunkCount = res.ChunkCount
		details["chunk_ids"] = res.ChunkIDs
	}
	if b, mErr := json.Marshal(details); mErr == nil {
		rec.Details = datatypes.JSON(b)
	}

	s.bookkeep(ctx, rec, errorKind)
	return rec, err
}

// bookkeep stores the record and publishes the event. Neither changes the outcome of the
// upload, so failures are only logged.
func (s *Service) bookkeep(ctx context.Context, rec *models.UploadRecord, errorKind string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bookkeepingTimeout)
	defer cancel()
	log := s.log.WithUser(rec.UserID).WithField("file_name", rec.FileName)

	if err := s.uploads.CreateUpload(ctx, rec); err != nil {
		log.WithError(models.ErrorInfo{Type: "database", Message: err.Error()}).Error("failed to save upload record")
	}

	event := &models.IngestionEvent{
		EventID:    uuid.NewString(),
		UserID:     rec.UserID,
		FileName:   rec.FileName,
		Status:     rec.Status,
		ChunkCount: rec.ChunkCount,
		ErrorKind:  errorKind,
		OccurredAt: rec.UploadedAt,
	}
	if err := s.events.PublishIngestion(ctx, event); err != nil {
		log.WithError(models.ErrorInfo{Type: "kafka", Message: err.Error()}).Warn("failed to publish ingestion event")
	}
}

// Ask answers question from the caller's own documents.
func (s *Service) Ask(ctx context.Context, question string) (*Answer, error) {
	id, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	rc, err := s.retriever.Run(ctx, schema.Query{Text: question, OwnerID: id.ID}, s.topK)
	if err != nil {
		return nil, err
	}
	text, err := s.answerer.Run(ctx, question, rc)
	if err != nil {
		return nil, err
	}

	sources := make([]Source, len(rc))
	for i, sc := range rc {
		sources[i] = Source{SourceName: sc.Chunk.SourceName, SequenceIndex: sc.Chunk.SequenceIndex, Score: sc.Score}
	}
	return &Answer{Text: text, Sources: sources}, nil
}

// ListUploads returns the caller's most recent uploads, newest first.
func (s *Service) ListUploads(ctx context.Context) ([]models.UploadRecord, error) {
	id, err := identity.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.uploads.ListUploadsByUser(ctx, id.ID, listLimit)
}
