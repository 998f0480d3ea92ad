package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"poovi/internal/catalog"
	"poovi/internal/errcode"
	"poovi/internal/portfolio"
	"poovi/internal/storage"
	"poovi/internal/tasks"
)

// PublishRenderHandler 消费公开页面预渲染任务：作品集被设为公开后，
// 把公开视图渲染为静态 HTML 上传到对象存储，作为可分享的产物。
// 线上 /portfolio/:link 路由仍然按需渲染，预渲染只是加速与归档用途。
type PublishRenderHandler struct {
	store       portfolio.Store
	renderer    *portfolio.Renderer
	storage     *storage.Client
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewPublishRenderHandler 创建任务处理器。
func NewPublishRenderHandler(
	store portfolio.Store,
	renderer *portfolio.Renderer,
	storageClient *storage.Client,
	redisClient *redis.Client,
	logger *slog.Logger,
) *PublishRenderHandler {
	return &PublishRenderHandler{
		store:       store,
		renderer:    renderer,
		storage:     storageClient,
		redisClient: redisClient,
		logger:      logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *PublishRenderHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.PublishRenderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("portfolio_id", payload.PortfolioID),
	)
	log.Info("starting publish render task")

	record, err := h.store.GetByID(ctx, payload.PortfolioID)
	if err != nil {
		if errors.Is(err, portfolio.ErrNotFound) {
			log.Warn("portfolio not found, skipping task")
			return nil
		}
		log.Error("load portfolio failed", slog.Any("error", err))
		return err
	}

	log = log.With(slog.Uint64("user_id", uint64(record.OwnerID)))

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}
		notify := PublishRenderNotifyMessage{
			Status:        "error",
			PortfolioID:   record.ID,
			ShareLink:     record.ShareLink,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := h.publishNotify(ctx, record.OwnerID, notify); err != nil {
			log.Error("publish error notification failed", slog.Any("error", err))
		}
	}()

	// 记录在任务入队后又被设回私有：清理已渲染的产物即可。
	if !record.IsPublic {
		log.Info("portfolio no longer public, removing rendered page")
		if err := h.storage.DeleteObject(ctx, publicPageObjectKey(record.ShareLink)); err != nil {
			log.Error("delete rendered page failed", slog.Any("error", err))
			return err
		}
		return nil
	}

	var data portfolio.Data
	_ = json.Unmarshal(record.Data, &data)
	var style catalog.Style
	_ = json.Unmarshal(record.Style, &style)

	view, err := h.renderer.Render(record.TemplateID, data, style)
	if err != nil {
		log.Error("render public page failed", slog.Any("error", err))
		return err
	}
	if view.TemplateUnavailable {
		// 模板已下架也是可展示的终态，照常上传。
		log.Warn("template unavailable, uploading fallback page")
	}

	html := []byte(view.HTML)
	objectKey := publicPageObjectKey(record.ShareLink)
	if _, err := h.storage.UploadFile(ctx, objectKey, strings.NewReader(string(html)), int64(len(html)), "text/html; charset=utf-8"); err != nil {
		log.Error("upload rendered page failed", slog.Any("error", err))
		return err
	}

	notify := PublishRenderNotifyMessage{
		Status:        "completed",
		PortfolioID:   record.ID,
		ShareLink:     record.ShareLink,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if err := h.publishNotify(ctx, record.OwnerID, notify); err != nil {
		log.Error("publish completion notification failed", slog.Any("error", err))
		return err
	}

	log.Info("publish render task completed", slog.String("object_key", objectKey))
	return nil
}

func (h *PublishRenderHandler) publishNotify(ctx context.Context, userID uint, msg PublishRenderNotifyMessage) error {
	if userID == 0 {
		// 本地后端没有账号，无人可通知。
		return nil
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notify message: %w", err)
	}
	channel := fmt.Sprintf("user_notify:%d", userID)
	if err := h.redisClient.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}

func publicPageObjectKey(shareLink string) string {
	return "public-pages/" + shareLink + ".html"
}

// isFinalAsynqAttempt 判断当前是否为该任务的最后一次重试。
func isFinalAsynqAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	max, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return true
	}
	return retried >= max
}
