package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"poovi/internal/api/middleware"
	"poovi/internal/catalog"
	"poovi/internal/portfolio"
	"poovi/internal/tasks"
)

// PortfolioHandler 负责作品集的增删改查。
type PortfolioHandler struct {
	store       portfolio.Store
	asynqClient *asynq.Client
	logger      *slog.Logger
}

// NewPortfolioHandler 构造 PortfolioHandler。asynqClient 可以为 nil，
// 此时发布不会触发后台渲染任务。
func NewPortfolioHandler(store portfolio.Store, asynqClient *asynq.Client, logger *slog.Logger) *PortfolioHandler {
	return &PortfolioHandler{
		store:       store,
		asynqClient: asynqClient,
		logger:      logger,
	}
}

type createPortfolioRequest struct {
	TemplateID int             `json:"template_id" binding:"required"`
	Name       string          `json:"name" binding:"required,max=120"`
	Data       json.RawMessage `json:"data"`
	Style      json.RawMessage `json:"style"`
}

type portfolioListItem struct {
	ID           string    `json:"id"`
	TemplateID   int       `json:"template_id"`
	TemplateName string    `json:"template_name"`
	Name         string    `json:"name"`
	ShareLink    string    `json:"share_link"`
	IsPublic     bool      `json:"is_public"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type portfolioResponse struct {
	ID           string          `json:"id"`
	TemplateID   int             `json:"template_id"`
	TemplateName string          `json:"template_name"`
	Name         string          `json:"name"`
	Data         json.RawMessage `json:"data"`
	Style        json.RawMessage `json:"style"`
	ShareLink    string          `json:"share_link"`
	IsPublic     bool            `json:"is_public"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func newPortfolioResponse(rec portfolio.Record) portfolioResponse {
	return portfolioResponse{
		ID:           rec.ID,
		TemplateID:   rec.TemplateID,
		TemplateName: rec.TemplateName,
		Name:         rec.Name,
		Data:         rec.Data,
		Style:        rec.Style,
		ShareLink:    rec.ShareLink,
		IsPublic:     rec.IsPublic,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}

// CreatePortfolio 基于目录里的模板新建一份作品集。
func (h *PortfolioHandler) CreatePortfolio(c *gin.Context) {
	var req createPortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	tpl, ok := catalog.Get(req.TemplateID)
	if !ok {
		BadRequest(c, "unknown template")
		return
	}

	rec, err := h.store.Create(c.Request.Context(), userID, tpl.ID, tpl.Name, req.Name, req.Data, req.Style)
	if err != nil {
		h.respondStoreError(c, err, "create portfolio")
		return
	}

	c.JSON(http.StatusCreated, newPortfolioResponse(rec))
}

// ListPortfolios 返回当前用户的所有作品集，按最近更新排序。
func (h *PortfolioHandler) ListPortfolios(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	records, err := h.store.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		h.respondStoreError(c, err, "list portfolios")
		return
	}

	items := make([]portfolioListItem, 0, len(records))
	for _, rec := range records {
		items = append(items, portfolioListItem{
			ID:           rec.ID,
			TemplateID:   rec.TemplateID,
			TemplateName: rec.TemplateName,
			Name:         rec.Name,
			ShareLink:    rec.ShareLink,
			IsPublic:     rec.IsPublic,
			UpdatedAt:    rec.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, items)
}

// GetPortfolio 返回单份作品集的完整内容，仅限持有者访问。
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	rec, err := h.store.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondStoreError(c, err, "get portfolio")
		return
	}

	if rec.OwnerID != 0 && rec.OwnerID != userID {
		Forbidden(c, "access denied")
		return
	}

	c.JSON(http.StatusOK, newPortfolioResponse(rec))
}

type updatePortfolioRequest struct {
	Name     *string         `json:"name"`
	Data     json.RawMessage `json:"data"`
	Style    json.RawMessage `json:"style"`
	IsPublic *bool           `json:"is_public"`
}

// UpdatePortfolio 局部更新作品集；切换公开状态会触发公共页面重渲染。
func (h *PortfolioHandler) UpdatePortfolio(c *gin.Context) {
	var req updatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id := c.Param("id")
	patch := portfolio.Update{
		Name:     req.Name,
		Data:     req.Data,
		Style:    req.Style,
		IsPublic: req.IsPublic,
	}
	if patch.Empty() {
		BadRequest(c, "empty update")
		return
	}

	ctx := c.Request.Context()
	if err := h.store.Update(ctx, userID, id, patch); err != nil {
		h.respondStoreError(c, err, "update portfolio")
		return
	}

	rec, err := h.store.GetByID(ctx, id)
	if err != nil {
		h.respondStoreError(c, err, "reload portfolio")
		return
	}

	if req.IsPublic != nil {
		h.enqueuePublishRender(c, rec.ID)
	}

	c.JSON(http.StatusOK, newPortfolioResponse(rec))
}

// DeletePortfolio 删除一份作品集。
func (h *PortfolioHandler) DeletePortfolio(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	if err := h.store.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.respondStoreError(c, err, "delete portfolio")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PortfolioHandler) enqueuePublishRender(c *gin.Context, portfolioID string) {
	if h.asynqClient == nil {
		return
	}

	task, err := tasks.NewPublishRenderTask(portfolioID, middleware.GetCorrelationID(c))
	if err != nil {
		h.loggerFromContext(c).Error("build publish render task", slog.Any("error", err))
		return
	}
	if _, err := h.asynqClient.EnqueueContext(c.Request.Context(), task, asynq.MaxRetry(5)); err != nil {
		// 入队失败不阻塞编辑请求，公共页面会在下一次发布时补齐。
		h.loggerFromContext(c).Error("enqueue publish render task",
			slog.String("portfolio_id", portfolioID),
			slog.Any("error", err),
		)
	}
}

func (h *PortfolioHandler) respondStoreError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, portfolio.ErrNotFound):
		NotFound(c, "portfolio not found")
	case errors.Is(err, portfolio.ErrForbidden):
		Forbidden(c, "access denied")
	case errors.Is(err, portfolio.ErrValidation):
		BadRequest(c, err.Error())
	case portfolio.IsTransient(err):
		h.loggerFromContext(c).Warn(action+" transient failure", slog.Any("error", err))
		ServiceUnavailable(c, "storage temporarily unavailable")
	default:
		h.loggerFromContext(c).Error(action+" failed", slog.Any("error", err))
		Internal(c, "internal error")
	}
}

func (h *PortfolioHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}
