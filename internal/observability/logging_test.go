package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestWithBuildID(t *testing.T) {
	ctx := WithBuildID(context.Background(), "build-123")

	lc := GetContext(ctx)
	if lc.BuildID != "build-123" {
		t.Errorf("expected build-123, got %s", lc.BuildID)
	}
}

func TestContextValuesAccumulate(t *testing.T) {
	ctx := WithBuildID(context.Background(), "b1")
	ctx = WithStage(ctx, "walk")
	ctx = WithPath(ctx, "posts/hello.md")

	lc := GetContext(ctx)
	if lc.BuildID != "b1" || lc.Stage != "walk" || lc.Path != "posts/hello.md" {
		t.Errorf("unexpected log context: %+v", lc)
	}
}

func TestEmptyContext(t *testing.T) {
	lc := GetContext(context.Background())
	if lc != (LogContext{}) {
		t.Errorf("expected empty log context, got %+v", lc)
	}
}

func TestInfoContextIncludesAttributes(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(prev)

	ctx := WithStage(WithBuildID(context.Background(), "b42"), "render")
	InfoContext(ctx, "pages written", slog.Int("count", 3))
	DebugContext(ctx, "debug line")

	out := buf.String()
	for _, want := range []string{"build.id=b42", "stage=render", "count=3", "debug line"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output: %s", want, out)
		}
	}
}
