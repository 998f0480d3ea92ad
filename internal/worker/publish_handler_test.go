package worker

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/hibiken/asynq"

	"poovi/internal/portfolio"
	"poovi/internal/tasks"
)

func newHandlerUnderTest(t *testing.T) *PublishRenderHandler {
	t.Helper()
	store := portfolio.NewFileStore(filepath.Join(t.TempDir(), "portfolios.json"))
	renderer, err := portfolio.NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPublishRenderHandler(store, renderer, nil, nil, logger)
}

func TestProcessTaskSkipsMissingPortfolio(t *testing.T) {
	h := newHandlerUnderTest(t)

	task, err := tasks.NewPublishRenderTask("gone", "corr-1")
	if err != nil {
		t.Fatalf("build task: %v", err)
	}

	// 已删除的作品集不算失败，任务直接完成，不触发重试。
	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("missing portfolio should be skipped, got %v", err)
	}
}

func TestProcessTaskRejectsGarbagePayload(t *testing.T) {
	h := newHandlerUnderTest(t)

	task := asynq.NewTask(tasks.TypePublishRender, []byte("{not json"))
	if err := h.ProcessTask(context.Background(), task); err == nil {
		t.Fatalf("malformed payload should error")
	}
}

func TestPublicPageObjectKey(t *testing.T) {
	if got := publicPageObjectKey("abc-123"); got != "public-pages/abc-123.html" {
		t.Fatalf("unexpected object key %q", got)
	}
}
