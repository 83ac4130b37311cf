package milvus

import (
	"testing"

	"DocChat/backend/go/internal/config"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionSchema(t *testing.T) {
	s := CollectionSchema(&config.MilvusConfig{CollectionName: "chunks", Dim: 768, TextMaxLength: 4096})

	assert.Equal(t, "chunks", s.CollectionName)
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{FieldID, FieldOwnerID, FieldSourceName, FieldSequenceIndex, FieldUploadedAt, FieldText, FieldEmbedding}, names)

	assert.True(t, s.Fields[0].PrimaryKey)
	emb := s.Fields[len(s.Fields)-1]
	assert.Equal(t, entity.FieldTypeFloatVector, emb.DataType)
	assert.Equal(t, "768", emb.TypeParams[entity.TypeParamDim])
}

func TestBuildIndexUsesCosine(t *testing.T) {
	for _, typ := range []string{"HNSW", "IVF_FLAT", "AUTOINDEX", ""} {
		idx, err := BuildIndex(typ)
		require.NoError(t, err, typ)
		assert.Equal(t, string(entity.COSINE), idx.Params()["metric_type"], typ)

		_, err = SearchParam(typ)
		require.NoError(t, err, typ)
	}
}

func TestUnknownIndexType(t *testing.T) {
	_, err := BuildIndex("DISKANN_PLUS")
	assert.Error(t, err)
	_, err = SearchParam("DISKANN_PLUS")
	assert.Error(t, err)
}
