package embeddings

import (
	"context"
	"errors"
	"testing"
	"time"

	"DocChat/backend/go/internal/rag_service/rag/caches"
	"DocChat/backend/go/pkg/logger"
	"DocChat/backend/go/pkg/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingModel struct {
	calls    int
	failures int
}

func (m *countingModel) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.failures > 0 {
		m.failures--
		return nil, errors.New("503 unavailable")
	}
	return []float32{float32(len(text))}, nil
}

func (m *countingModel) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]float32, bool, error) {
	return nil, false, errors.New("redis down")
}
func (brokenCache) Set(context.Context, string, []float32) error { return errors.New("redis down") }

func TestAdapterRetriesTransientFailures(t *testing.T) {
	m := &countingModel{failures: 2}
	a := NewAdapter(m, resilience.Policy{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond})

	vec, err := a.Embed(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3}, vec)
	assert.Equal(t, 3, m.calls)

	m.failures = 5
	_, err = a.EmbedBatch(context.Background(), []string{"x"})
	assert.Error(t, err)
}

func TestCachedEmbedsOncePerQuestion(t *testing.T) {
	m := &countingModel{}
	lc, err := caches.NewLRUCache(8, 0)
	require.NoError(t, err)
	c := NewCached(m, lc, "model", logger.Nop())

	for i := 0; i < 3; i++ {
		vec, err := c.Embed(context.Background(), "what is the capital?")
		require.NoError(t, err)
		assert.Equal(t, []float32{20}, vec)
	}
	assert.Equal(t, 1, m.calls)

	_, err = c.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 3, m.calls)
}

func TestCachedFallsBackWhenCacheFails(t *testing.T) {
	m := &countingModel{}
	c := NewCached(m, brokenCache{}, "model", logger.Nop())

	vec, err := c.Embed(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, []float32{2}, vec)
}
