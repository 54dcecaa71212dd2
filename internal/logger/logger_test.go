package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return New(&Config{Level: "debug", Format: "json", Output: buf, ServiceName: "test"})
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", lines[len(lines)-1], err)
	}
	return entry
}

func TestContextFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := newBufferLogger(&buf).WithContext(context.Background())
	ctx = SetRequestID(ctx, "req-1")
	ctx = SetSearchID(ctx, "search-1")
	ctx = SetSubreddit(ctx, "funny")

	CtxInfo(ctx, "fetched %d posts", 3)

	entry := lastLine(t, &buf)
	if entry["message"] != "fetched 3 posts" || entry["level"] != "info" {
		t.Errorf("unexpected entry: %v", entry)
	}
	for key, want := range map[string]string{
		"service":      "test",
		FieldRequestID: "req-1",
		FieldSearchID:  "search-1",
		FieldSubreddit: "funny",
	} {
		if entry[key] != want {
			t.Errorf("%s = %v, want %s", key, entry[key], want)
		}
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("expected timestamp key")
	}

	if GetRequestID(ctx) != "req-1" || GetSearchID(ctx) != "search-1" {
		t.Error("expected IDs to be readable from context")
	}
}

func TestEntryMetricFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := newBufferLogger(&buf).WithContext(context.Background())

	With(Fields{FieldStatus: 200}).WithCount(7).WithDuration(time.Now()).Warn(ctx, "done")

	entry := lastLine(t, &buf)
	if entry["level"] != "warning" {
		t.Errorf("level = %v", entry["level"])
	}
	if entry[FieldCount] != float64(7) || entry[FieldStatus] != float64(200) {
		t.Errorf("unexpected metric fields: %v", entry)
	}
	if _, ok := entry[FieldDurationMs]; !ok {
		t.Error("expected duration_ms")
	}
}

func TestEnsureContext(t *testing.T) {
	var first, second bytes.Buffer
	ctx := newBufferLogger(&first).WithContext(context.Background())

	ctx = newBufferLogger(&second).EnsureContext(ctx)
	CtxInfo(ctx, "hello")

	if first.Len() == 0 || second.Len() != 0 {
		t.Error("expected the existing context logger to be kept")
	}

	bare := newBufferLogger(&second).EnsureContext(context.Background())
	CtxInfo(bare, "hello")
	if second.Len() == 0 {
		t.Error("expected the fallback logger to be attached")
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != GetDefault() {
		t.Error("expected default logger for a bare context")
	}
	if GetRequestID(context.Background()) != "" {
		t.Error("expected empty request ID for a bare context")
	}
}
