package vectorstore

import (
	"testing"
	"time"

	"DocChat/backend/go/internal/database/milvus"
	"DocChat/backend/go/internal/rag_service/rag/schema"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterExpression(t *testing.T) {
	expr, err := filterExpression(schema.OwnerFilter("42"))
	require.NoError(t, err)
	assert.Equal(t, `owner_id == "42"`, expr)

	expr, err = filterExpression(schema.Filter{
		schema.MetadataKeySourceName: "a.pdf",
		schema.MetadataKeyOwnerID:    "42",
	})
	require.NoError(t, err)
	assert.Equal(t, `owner_id == "42" and source_name == "a.pdf"`, expr)

	// A crafted owner id cannot escape the string literal.
	expr, err = filterExpression(schema.OwnerFilter(`x" or owner_id != "`))
	require.NoError(t, err)
	assert.Equal(t, `owner_id == "x\" or owner_id != \""`, expr)

	_, err = filterExpression(schema.Filter{"folder_id": "1"})
	assert.Error(t, err)

	expr, err = filterExpression(nil)
	require.NoError(t, err)
	assert.Empty(t, expr)
}

func TestRecordColumnsRejectsWrongDimension(t *testing.T) {
	_, err := recordColumns([]schema.Record{{Chunk: schema.Chunk{ID: "a"}, Embedding: []float32{1, 2}}}, 3)
	assert.Error(t, err)

	cols, err := recordColumns([]schema.Record{{Chunk: schema.Chunk{ID: "a", OwnerID: "o"}, Embedding: []float32{1, 2, 3}}}, 3)
	require.NoError(t, err)
	assert.Len(t, cols, 7)
	assert.Equal(t, milvus.FieldEmbedding, cols[6].Name())
}

func TestSearchResultsToChunks(t *testing.T) {
	uploaded := time.UnixMilli(1700000000123).UTC()
	res := client.SearchResult{
		ResultCount: 2,
		Scores:      []float32{0.9, 0.5},
		Fields: client.ResultSet{
			entity.NewColumnVarChar(milvus.FieldID, []string{"c1", "c2"}),
			entity.NewColumnVarChar(milvus.FieldOwnerID, []string{"42", "42"}),
			entity.NewColumnVarChar(milvus.FieldSourceName, []string{"a.pdf", "a.pdf"}),
			entity.NewColumnVarChar(milvus.FieldText, []string{"first", "second"}),
			entity.NewColumnInt64(milvus.FieldSequenceIndex, []int64{0, 1}),
			entity.NewColumnInt64(milvus.FieldUploadedAt, []int64{uploaded.UnixMilli(), uploaded.UnixMilli()}),
		},
	}

	got, err := searchResultsToChunks([]client.SearchResult{res})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, schema.Chunk{ID: "c1", Text: "first", OwnerID: "42", SourceName: "a.pdf", SequenceIndex: 0, UploadedAt: uploaded}, got[0].Chunk)
	assert.Equal(t, float32(0.5), got[1].Score)

	res.Fields = res.Fields[:2]
	_, err = searchResultsToChunks([]client.SearchResult{res})
	assert.Error(t, err)
}
