package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"DocChat/backend/go/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(logrus.InfoLevel, &buf)
	defer Init(logrus.InfoLevel)

	New("docchat_service", "trace-1", "").
		WithUser("u1").
		WithError(models.ErrorInfo{Message: "boom", Type: "index", StatusCode: 503}).
		Warn("query failed")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "query failed", line["message"])
	assert.Equal(t, "warning", line["level"])
	assert.Equal(t, "docchat_service", line["service_name"])
	assert.Equal(t, "u1", line["user_id"])
	assert.Contains(t, line, "timestamp")

	errField, ok := line["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "boom", errField["message"])
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(logrus.InfoLevel, &buf)
	defer Init(logrus.InfoLevel)

	base := New("svc", "", "")
	_ = base.WithField("component", "ingestion")
	base.Info("hello")

	assert.NotContains(t, buf.String(), "component")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput(ParseLevel("warn"), &buf)
	defer Init(logrus.InfoLevel)

	New("svc", "", "").Debug("hidden")
	New("svc", "", "").Info("hidden too")
	assert.Empty(t, buf.String())
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("loud"))
}
