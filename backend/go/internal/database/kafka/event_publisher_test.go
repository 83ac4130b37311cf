package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"DocChat/backend/go/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestPublishIngestion(t *testing.T) {
	w := &recordingWriter{}
	p := NewIngestionPublisher(w)
	event := &models.IngestionEvent{
		EventID:    "e1",
		UserID:     "42",
		FileName:   "report.pdf",
		Status:     models.UploadIngested,
		ChunkCount: 3,
		OccurredAt: time.Unix(1700000000, 0).UTC(),
	}

	require.NoError(t, p.PublishIngestion(context.Background(), event))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("42"), w.msgs[0].Key)

	var got models.IngestionEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, *event, got)
}

func TestPublishIngestionWriteError(t *testing.T) {
	p := NewIngestionPublisher(&recordingWriter{err: errors.New("broker down")})
	err := p.PublishIngestion(context.Background(), &models.IngestionEvent{UserID: "1"})
	assert.ErrorContains(t, err, "broker down")
}
