package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedlode/internal/httpapi/requestid"
	"feedlode/internal/observability/logging"
)

func decodeRecord(t *testing.T, line []byte) map[string]any {
	t.Helper()
	var record map[string]any
	require.NoError(t, json.Unmarshal(line, &record))
	return record
}

func TestNewLoggerTo_EmitsJSON(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	var buf bytes.Buffer

	logger := logging.NewLoggerTo(&buf)
	logger.Info("feed processed", slog.String("feed_url", "https://a.example/feed"), slog.Int("items", 3))

	record := decodeRecord(t, buf.Bytes())
	assert.Equal(t, "INFO", record["level"])
	assert.Equal(t, "feed processed", record["msg"])
	assert.Equal(t, "https://a.example/feed", record["feed_url"])
	assert.Equal(t, float64(3), record["items"])
}

func TestNewLoggerTo_LevelFiltering(t *testing.T) {
	cases := []struct {
		level     string
		debugKept bool
		infoKept  bool
		warnKept  bool
	}{
		{"debug", true, true, true},
		{"", false, true, true},
		{"info", false, true, true},
		{"warn", false, false, true},
		{"error", false, false, false},
	}

	for _, tc := range cases {
		t.Run("LOG_LEVEL="+tc.level, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tc.level)
			var buf bytes.Buffer
			logger := logging.NewLoggerTo(&buf)

			check := func(emit func(string, ...any), kept bool, msg string) {
				buf.Reset()
				emit(msg)
				if kept {
					assert.Contains(t, buf.String(), msg)
				} else {
					assert.Empty(t, buf.String())
				}
			}
			check(logger.Debug, tc.debugKept, "debug record")
			check(logger.Info, tc.infoKept, "info record")
			check(logger.Warn, tc.warnKept, "warn record")
		})
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, logging.ParseLevel(tc.in), "input %q", tc.in)
	}
}

func TestWithRequestID_AnnotatesRecords(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	var buf bytes.Buffer
	base := logging.NewLoggerTo(&buf)

	ctx := requestid.WithRequestID(context.Background(), "req-123")
	logging.WithRequestID(ctx, base).Info("handled")

	record := decodeRecord(t, buf.Bytes())
	assert.Equal(t, "req-123", record["request_id"])
}

func TestWithRequestID_NoIDLeavesLoggerUnchanged(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	var buf bytes.Buffer
	base := logging.NewLoggerTo(&buf)

	logging.WithRequestID(context.Background(), base).Info("handled")

	record := decodeRecord(t, buf.Bytes())
	_, present := record["request_id"]
	assert.False(t, present)
}

func TestNewLoggerTo_SourceOnlyAtWarnAndAbove(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	var buf bytes.Buffer
	logging.NewLoggerTo(&buf).Warn("slow feed")

	record := decodeRecord(t, buf.Bytes())
	assert.Contains(t, record, "source")

	t.Setenv("LOG_LEVEL", "info")
	buf.Reset()
	logging.NewLoggerTo(&buf).Info("fast feed")

	record = decodeRecord(t, buf.Bytes())
	assert.NotContains(t, record, "source")
}
