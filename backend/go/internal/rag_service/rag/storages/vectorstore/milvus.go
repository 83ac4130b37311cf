package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"DocChat/backend/go/internal/database/milvus"
	"DocChat/backend/go/internal/rag_service/rag/errs"
	"DocChat/backend/go/internal/rag_service/rag/interfaces"
	"DocChat/backend/go/internal/rag_service/rag/schema"
	"DocChat/backend/go/pkg/logger"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// filterFields maps filter keys to Milvus scalar fields. Keys outside this set are rejected
// rather than silently dropped, so a filter can never widen a query.
var filterFields = map[string]string{
	schema.MetadataKeyOwnerID:    milvus.FieldOwnerID,
	schema.MetadataKeySourceName: milvus.FieldSourceName,
}

var outputFields = []string{
	milvus.FieldID,
	milvus.FieldOwnerID,
	milvus.FieldSourceName,
	milvus.FieldSequenceIndex,
	milvus.FieldUploadedAt,
	milvus.FieldText,
}

// MilvusStore implements VectorStore on a Milvus collection created by
// milvus.MilvusClient.EnsureCollection. Owner filtering is pushed into the search
// expression, so Milvus only ever ranks the caller's chunks.
type MilvusStore struct {
	log         *logger.Logger
	client      client.Client
	collection  string
	dim         int
	searchParam entity.SearchParam
}

// NewMilvusStore creates a new MilvusStore adapter.
func NewMilvusStore(milvusClient *milvus.MilvusClient, log *logger.Logger) (*MilvusStore, error) {
	if milvusClient == nil || milvusClient.Client == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}
	sp, err := milvus.SearchParam(milvusClient.Config.IndexType)
	if err != nil {
		return nil, err
	}
	return &MilvusStore{
		log:         log,
		client:      milvusClient.Client,
		collection:  milvusClient.Config.CollectionName,
		dim:         milvusClient.Config.Dim,
		searchParam: sp,
	}, nil
}

// Upsert writes records column-wise. Milvus upserts a batch in one request.
func (s *MilvusStore) Upsert(ctx context.Context, records []schema.Record) error {
	if len(records) == 0 {
		return nil
	}
	cols, err := recordColumns(records, s.dim)
	if err != nil {
		return err
	}

	s.log.WithField("collection", s.collection).WithField("count", len(records)).Debug("upserting chunks into Milvus")
	if _, err := s.client.Upsert(ctx, s.collection, "", cols...); err != nil {
		return fmt.Errorf("failed to upsert into Milvus: %w", err)
	}
	return nil
}

// Query runs a filtered COSINE search. Milvus reports COSINE similarity, higher is closer.
func (s *MilvusStore) Query(ctx context.Context, embedding []float32, topK int, filter schema.Filter) ([]schema.ScoredChunk, error) {
	if topK <= 0 {
		return nil, nil
	}
	expr, err := filterExpression(filter)
	if err != nil {
		return nil, err
	}

	results, err := s.client.Search(
		ctx, s.collection, nil, expr, outputFields,
		[]entity.Vector{entity.FloatVector(embedding)},
		milvus.FieldEmbedding, entity.COSINE, topK, s.searchParam,
		client.WithSearchQueryConsistencyLevel(entity.ClStrong),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search in Milvus: %w", err)
	}
	return searchResultsToChunks(results)
}

// Delete removes chunks by primary key.
func (s *MilvusStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = quote(id)
	}
	expr := fmt.Sprintf("%s in [%s]", milvus.FieldID, strings.Join(quoted, ","))
	if err := s.client.Delete(ctx, s.collection, "", expr); err != nil {
		return fmt.Errorf("failed to delete from Milvus: %w", err)
	}
	return nil
}

// recordColumns turns records into one column per collection field.
func recordColumns(records []schema.Record, dim int) ([]entity.Column, error) {
	n := len(records)
	ids := make([]string, n)
	owners := make([]string, n)
	sources := make([]string, n)
	seqs := make([]int64, n)
	uploaded := make([]int64, n)
	texts := make([]string, n)
	vectors := make([][]float32, n)

	for i, r := range records {
		if len(r.Embedding) != dim {
			return nil, errs.Configuration("milvus.upsert", "chunk %s: vector dimension %d does not match collection dimension %d", r.Chunk.ID, len(r.Embedding), dim)
		}
		ids[i] = r.Chunk.ID
		owners[i] = r.Chunk.OwnerID
		sources[i] = r.Chunk.SourceName
		seqs[i] = int64(r.Chunk.SequenceIndex)
		uploaded[i] = r.Chunk.UploadedAt.UnixMilli()
		texts[i] = r.Chunk.Text
		vectors[i] = r.Embedding
	}

	return []entity.Column{
		entity.NewColumnVarChar(milvus.FieldID, ids),
		entity.NewColumnVarChar(milvus.FieldOwnerID, owners),
		entity.NewColumnVarChar(milvus.FieldSourceName, sources),
		entity.NewColumnInt64(milvus.FieldSequenceIndex, seqs),
		entity.NewColumnInt64(milvus.FieldUploadedAt, uploaded),
		entity.NewColumnVarChar(milvus.FieldText, texts),
		entity.NewColumnFloatVector(milvus.FieldEmbedding, dim, vectors),
	}, nil
}

// filterExpression creates a Milvus boolean expression from an equality filter. Keys are
// sorted so the expression is deterministic.
func filterExpression(filter schema.Filter) (string, error) {
	if len(filter) == 0 {
		return "", nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conditions := make([]string, 0, len(keys))
	for _, k := range keys {
		field, ok := filterFields[k]
		if !ok {
			return "", errs.Configuration("milvus.filter", "unsupported filter key %q", k)
		}
		conditions = append(conditions, fmt.Sprintf("%s == %s", field, quote(filter[k])))
	}
	return strings.Join(conditions, " and "), nil
}

// quote renders s as a Milvus string literal.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

func searchResultsToChunks(results []client.SearchResult) ([]schema.ScoredChunk, error) {
	var out []schema.ScoredChunk
	for _, res := range results {
		if res.Err != nil {
			return nil, fmt.Errorf("milvus search result: %w", res.Err)
		}
		findColumn := func(name string) entity.Column {
			for _, field := range res.Fields {
				if field.Name() == name {
					return field
				}
			}
			return nil
		}

		ids, err := varChars(findColumn(milvus.FieldID), res.ResultCount)
		if err != nil {
			return nil, err
		}
		owners, err := varChars(findColumn(milvus.FieldOwnerID), res.ResultCount)
		if err != nil {
			return nil, err
		}
		sources, err := varChars(findColumn(milvus.FieldSourceName), res.ResultCount)
		if err != nil {
			return nil, err
		}
		texts, err := varChars(findColumn(milvus.FieldText), res.ResultCount)
		if err != nil {
			return nil, err
		}
		seqs, err := int64s(findColumn(milvus.FieldSequenceIndex), res.ResultCount)
		if err != nil {
			return nil, err
		}
		uploaded, err := int64s(findColumn(milvus.FieldUploadedAt), res.ResultCount)
		if err != nil {
			return nil, err
		}

		for i := 0; i < res.ResultCount; i++ {
			out = append(out, schema.ScoredChunk{
				Chunk: schema.Chunk{
					ID:            ids[i],
					Text:          texts[i],
					OwnerID:       owners[i],
					SourceName:    sources[i],
					SequenceIndex: int(seqs[i]),
					UploadedAt:    time.UnixMilli(uploaded[i]).UTC(),
				},
				Score: res.Scores[i],
			})
		}
	}
	return out, nil
}

func varChars(col entity.Column, n int) ([]string, error) {
	c, ok := col.(*entity.ColumnVarChar)
	if !ok {
		return nil, fmt.Errorf("milvus search result is missing a varchar column")
	}
	if len(c.Data()) < n {
		return nil, fmt.Errorf("milvus column %s has %d rows, want %d", c.Name(), len(c.Data()), n)
	}
	return c.Data(), nil
}

func int64s(col entity.Column, n int) ([]int64, error) {
	c, ok := col.(*entity.ColumnInt64)
	if !ok {
		return nil, fmt.Errorf("milvus search result is missing an int64 column")
	}
	if len(c.Data()) < n {
		return nil, fmt.Errorf("milvus column %s has %d rows, want %d", c.Name(), len(c.Data()), n)
	}
	return c.Data(), nil
}

// compile-time check to ensure MilvusStore implements the VectorStore interface
var _ interfaces.VectorStore = (*MilvusStore)(nil)
