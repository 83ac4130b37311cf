package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"DocChat/backend/go/internal/rag_service/rag/errs"
	"DocChat/backend/go/internal/rag_service/rag/interfaces"
	"DocChat/backend/go/internal/rag_service/rag/schema"
	"DocChat/backend/go/pkg/logger"

	"github.com/qdrant/go-client/qdrant"
)

// qdrantPoints is the subset of *qdrant.Client used by QdrantStore.
type qdrantPoints interface {
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
}

// QdrantStore implements VectorStore on a Qdrant collection. Chunk ids must be UUIDs.
type QdrantStore struct {
	log        *logger.Logger
	client     qdrantPoints
	collection string
}

// NewQdrantStore creates a new QdrantStore adapter.
func NewQdrantStore(client *qdrant.Client, collection string, log *logger.Logger) (*QdrantStore, error) {
	if client == nil {
		return nil, fmt.Errorf("qdrant client is not initialized")
	}
	return &QdrantStore{log: log, client: client, collection: collection}, nil
}

func (s *QdrantStore) Upsert(ctx context.Context, records []schema.Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(r.Chunk.ID),
			Vectors: qdrant.NewVectors(r.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				schema.MetadataKeyOwnerID:       r.Chunk.OwnerID,
				schema.MetadataKeySourceName:    r.Chunk.SourceName,
				schema.MetadataKeySequenceIndex: int64(r.Chunk.SequenceIndex),
				schema.MetadataKeyUploadedAt:    r.Chunk.UploadedAt.UnixMilli(),
				schema.MetadataKeyText:          r.Chunk.Text,
			}),
		}
	}

	s.log.WithField("collection", s.collection).WithField("count", len(points)).Debug("upserting chunks into Qdrant")
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert into Qdrant: %w", err)
	}
	return nil
}

func (s *QdrantStore) Query(ctx context.Context, embedding []float32, topK int, filter schema.Filter) ([]schema.ScoredChunk, error) {
	if topK <= 0 {
		return nil, nil
	}
	f, err := qdrantFilter(filter)
	if err != nil {
		return nil, err
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(embedding...),
		Filter:         f,
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query Qdrant: %w", err)
	}

	out := make([]schema.ScoredChunk, 0, len(points))
	for _, p := range points {
		out = append(out, schema.ScoredChunk{Chunk: pointToChunk(p), Score: p.GetScore()})
	}
	return out, nil
}

func (s *QdrantStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewID(id)
	}
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from Qdrant: %w", err)
	}
	return nil
}

// qdrantFilter turns an equality filter into keyword match conditions that must all hold.
func qdrantFilter(filter schema.Filter) (*qdrant.Filter, error) {
	if len(filter) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		if _, ok := filterFields[k]; !ok {
			return nil, errs.Configuration("qdrant.filter", "unsupported filter key %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	must := make([]*qdrant.Condition, len(keys))
	for i, k := range keys {
		must[i] = qdrant.NewMatch(k, filter[k])
	}
	return &qdrant.Filter{Must: must}, nil
}

func pointToChunk(p *qdrant.ScoredPoint) schema.Chunk {
	payload := p.GetPayload()
	return schema.Chunk{
		ID:            p.GetId().GetUuid(),
		Text:          payload[schema.MetadataKeyText].GetStringValue(),
		OwnerID:       payload[schema.MetadataKeyOwnerID].GetStringValue(),
		SourceName:    payload[schema.MetadataKeySourceName].GetStringValue(),
		SequenceIndex: int(payload[schema.MetadataKeySequenceIndex].GetIntegerValue()),
		UploadedAt:    time.UnixMilli(payload[schema.MetadataKeyUploadedAt].GetIntegerValue()).UTC(),
	}
}

// compile-time check to ensure QdrantStore implements the VectorStore interface
var _ interfaces.VectorStore = (*QdrantStore)(nil)
