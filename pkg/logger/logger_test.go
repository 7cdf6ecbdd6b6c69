package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json log line, got %q: %v", buf.String(), err)
	}
	buf.Reset()
	return entry
}

func TestCriticalLevelName(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo, "json")

	log.Critical("store unavailable")
	entry := decodeLine(t, &buf)
	if entry["level"] != "CRITICAL" {
		t.Fatalf("expected CRITICAL level, got %v", entry["level"])
	}
}

func TestBusinessErrorIsWarnAndSkipsNil(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo, "json").With("component", "families")

	log.BusinessError("families.save: forbidden", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected nothing logged for nil error, got %q", buf.String())
	}

	log.BusinessError("families.save: forbidden", errors.New("other cras"), "family_id", "f1")
	entry := decodeLine(t, &buf)
	if entry["level"] != "WARN" || entry["err"] != "other cras" || entry["component"] != "families" || entry["family_id"] != "f1" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	if got := parseLevel("", "development"); got != slog.LevelDebug {
		t.Fatalf("expected debug in development, got %v", got)
	}
	if got := parseLevel("", "production"); got != slog.LevelInfo {
		t.Fatalf("expected info in production, got %v", got)
	}
	if got := parseLevel(" Fatal ", "production"); got != LevelCritical {
		t.Fatalf("expected critical, got %v", got)
	}
	if got := parseFormat("", "development"); got != "text" {
		t.Fatalf("expected text in development, got %q", got)
	}
	if got := parseFormat("xml", "production"); got != "json" {
		t.Fatalf("expected json fallback, got %q", got)
	}
}

func TestContextLogger(t *testing.T) {
	fallback := Nop()
	if FromContext(context.Background(), fallback) != fallback {
		t.Fatalf("expected fallback logger")
	}

	scoped := Nop().With("request_id", "r1")
	ctx := WithContext(context.Background(), scoped)
	if FromContext(ctx, fallback) != scoped {
		t.Fatalf("expected scoped logger")
	}
}
