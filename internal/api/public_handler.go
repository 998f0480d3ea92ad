package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"poovi/internal/api/middleware"
	"poovi/internal/catalog"
	"poovi/internal/portfolio"
)

// PublicHandler 通过分享链接对外提供已发布的作品集页面。
type PublicHandler struct {
	store    portfolio.Store
	renderer *portfolio.Renderer
	logger   *slog.Logger
}

func NewPublicHandler(store portfolio.Store, renderer *portfolio.Renderer, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{
		store:    store,
		renderer: renderer,
		logger:   logger,
	}
}

const publicNotFoundPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Portfolio not found</title></head>
<body style="font-family:sans-serif;text-align:center;padding:4rem">
<h1>Portfolio not found</h1>
<p>This portfolio does not exist or is no longer public.</p>
</body>
</html>
`

// ViewPortfolio 渲染公开页面。私有记录与不存在的链接返回同一个 404，
// 避免泄露链接是否有效。
func (h *PublicHandler) ViewPortfolio(c *gin.Context) {
	link := c.Param("link")
	if link == "" {
		c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte(publicNotFoundPage))
		return
	}

	rec, err := h.store.GetByShareLink(c.Request.Context(), link)
	if err != nil {
		if errors.Is(err, portfolio.ErrNotFound) {
			c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte(publicNotFoundPage))
			return
		}
		h.loggerFromContext(c).Error("public lookup failed", slog.String("link", link), slog.Any("error", err))
		c.String(http.StatusServiceUnavailable, "temporarily unavailable")
		return
	}

	var data portfolio.Data
	var style catalog.Style
	// 存量记录的 JSON 可能残缺，残缺字段由渲染器的默认值兜底。
	_ = json.Unmarshal(rec.Data, &data)
	_ = json.Unmarshal(rec.Style, &style)

	view, err := h.renderer.Render(rec.TemplateID, data, style)
	if err != nil {
		h.loggerFromContext(c).Error("render public page failed", slog.String("link", link), slog.Any("error", err))
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(view.HTML))
}

func (h *PublicHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
