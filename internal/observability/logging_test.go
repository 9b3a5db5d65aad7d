package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	ctx = WithBuildID(ctx, "build-123")
	ctx = WithStage(ctx, "render")
	ctx = WithTrigger(ctx, "docs")

	lc := GetContext(ctx)
	if lc.BuildID != "build-123" {
		t.Errorf("expected build-123, got %s", lc.BuildID)
	}
	if lc.Stage != "render" {
		t.Errorf("expected render, got %s", lc.Stage)
	}
	if lc.Trigger != "docs" {
		t.Errorf("expected docs, got %s", lc.Trigger)
	}
}

func TestStageOverrides(t *testing.T) {
	ctx := WithStage(context.Background(), "load")
	ctx = WithStage(ctx, "validate")
	if got := GetContext(ctx).Stage; got != "validate" {
		t.Errorf("expected validate, got %s", got)
	}
}

func TestInfoContextIncludesAttributes(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := WithStage(WithBuildID(context.Background(), "b-1"), "render")
	InfoContext(ctx, "rendered", slog.String("format", "vuepress"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["msg"] != "rendered" {
		t.Errorf("unexpected msg %v", entry["msg"])
	}
	if entry["build_id"] != "b-1" {
		t.Errorf("expected build_id b-1, got %v", entry["build_id"])
	}
	if entry["stage"] != "render" {
		t.Errorf("expected stage render, got %v", entry["stage"])
	}
	if entry["format"] != "vuepress" {
		t.Errorf("expected format vuepress, got %v", entry["format"])
	}
}

func TestDebugContextWithoutValues(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	DebugContext(context.Background(), "hidden")
	WarnContext(context.Background(), "shown")

	out := buf.String()
	if bytes.Contains([]byte(out), []byte("hidden")) {
		t.Errorf("debug message should be filtered: %q", out)
	}
	if !bytes.Contains([]byte(out), []byte("shown")) {
		t.Errorf("warn message missing: %q", out)
	}
}
