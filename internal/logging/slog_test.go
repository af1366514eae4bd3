package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// records decodes the JSON lines written by a NewJSONLogger.
func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestSlogLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, "debug")
	ctx := context.Background()

	log.Debug(ctx, "attempt started", "attempt", 1)
	log.Info(ctx, "signed in", "user_id", "u1")
	log.Warn(ctx, "attempt timed out", "attempt", 2)
	log.Error(ctx, "profile provisioning failed", "user_id", "u1")

	recs := records(t, &buf)
	require.Len(t, recs, 4)

	want := []struct{ level, msg string }{
		{"DEBUG", "attempt started"},
		{"INFO", "signed in"},
		{"WARN", "attempt timed out"},
		{"ERROR", "profile provisioning failed"},
	}
	for i, w := range want {
		assert.Equal(t, w.level, recs[i]["level"])
		assert.Equal(t, w.msg, recs[i]["msg"])
	}
	assert.Equal(t, float64(2), recs[2]["attempt"])
}

func TestSlogLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, "info").With("module", "exchange").With("op", "sign_in")

	log.Info(context.Background(), "exchange succeeded", "attempts", 1)

	recs := records(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "exchange", recs[0]["module"])
	assert.Equal(t, "sign_in", recs[0]["op"])
	assert.Equal(t, float64(1), recs[0]["attempts"])
}

func TestNewSlogLogger_TextHandler(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	log.Info(context.Background(), "hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "k=v")
}

func TestNewJSONLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, "warn")
	ctx := context.Background()

	log.Info(ctx, "hidden")
	log.Warn(ctx, "shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nope"))
}

func TestDiscard_DoesNotPanic(t *testing.T) {
	log := Discard()
	ctx := context.TODO()
	log.Debug(ctx, "x")
	log.Info(ctx, "x")
	log.With("a", 1).Error(ctx, "x")
}

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"jane.doe@x.com", "j***@x.com"},
		{"a@b.com", "a***@b.com"},
		{"noatsign", "***"},
		{"@x.com", "***"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskEmail(tt.in))
		})
	}
}
