package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"poovi/internal/catalog"
)

// TemplateHandler 负责内置模板目录的 API。
type TemplateHandler struct{}

func NewTemplateHandler() *TemplateHandler {
	return &TemplateHandler{}
}

type templateListItem struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Color      string  `json:"color"`
	Rating     float64 `json:"rating"`
	UsageCount int     `json:"usage_count"`
}

type templateDetailResponse struct {
	ID           int           `json:"id"`
	Name         string        `json:"name"`
	Category     string        `json:"category"`
	Description  string        `json:"description"`
	Color        string        `json:"color"`
	DefaultStyle catalog.Style `json:"default_style"`
	Rating       float64       `json:"rating"`
	UsageCount   int           `json:"usage_count"`
}

// GET /v1/templates
// 列表：支持 ?q= 子串搜索与 ?category= 过滤，两者可叠加。
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	templates := catalog.Search(c.Query("q"))

	if category := c.Query("category"); category != "" && category != "All" {
		filtered := templates[:0]
		for _, t := range templates {
			if t.Category == category {
				filtered = append(filtered, t)
			}
		}
		templates = filtered
	}

	items := make([]templateListItem, 0, len(templates))
	for _, t := range templates {
		items = append(items, templateListItem{
			ID:         t.ID,
			Name:       t.Name,
			Category:   t.Category,
			Color:      t.Color,
			Rating:     t.Rating,
			UsageCount: t.UsageCount,
		})
	}
	c.JSON(http.StatusOK, items)
}

// GET /v1/templates/categories
func (h *TemplateHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, catalog.Categories())
}

// GET /v1/templates/:id
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		BadRequest(c, "invalid template id")
		return
	}

	tpl, ok := catalog.Get(id)
	if !ok {
		NotFound(c, "template not found")
		return
	}

	c.JSON(http.StatusOK, templateDetailResponse{
		ID:           tpl.ID,
		Name:         tpl.Name,
		Category:     tpl.Category,
		Description:  tpl.Description,
		Color:        tpl.Color,
		DefaultStyle: tpl.DefaultStyle,
		Rating:       tpl.Rating,
		UsageCount:   tpl.UsageCount,
	})
}
