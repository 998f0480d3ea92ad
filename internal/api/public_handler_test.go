package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"poovi/internal/portfolio"
)

func newPublicHandlerUnderTest(t *testing.T) (*PublicHandler, portfolio.Store) {
	t.Helper()
	store := portfolio.NewFileStore(filepath.Join(t.TempDir(), "portfolios.json"))
	renderer, err := portfolio.NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return NewPublicHandler(store, renderer, nil), store
}

func doPublicRequest(t *testing.T, h *PublicHandler, link string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/portfolio/"+link, nil)
	c.Params = gin.Params{{Key: "link", Value: link}}

	h.ViewPortfolio(c)
	return w
}

func TestViewPortfolio(t *testing.T) {
	h, store := newPublicHandlerUnderTest(t)

	data, _ := json.Marshal(portfolio.Data{Name: "Priya Patel", Bio: "I ship things."})
	rec, err := store.Create(context.Background(), 0, 1, "Modern Minimal", "Shared", data, nil)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := doPublicRequest(t, h, rec.ShareLink)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected html, got %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Priya Patel") || !strings.Contains(body, "I ship things.") {
		t.Fatalf("portfolio content missing from page")
	}
}

func TestViewPortfolioUnknownLink(t *testing.T) {
	h, _ := newPublicHandlerUnderTest(t)

	w := doPublicRequest(t, h, "no-such-link")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "no longer public") {
		t.Fatalf("expected the terminal not-found page")
	}
}

func TestViewPortfolioRetiredTemplate(t *testing.T) {
	h, store := newPublicHandlerUnderTest(t)

	// 模板 999 已不在目录中：页面降级为"模板不可用"，而不是 5xx。
	rec, err := store.Create(context.Background(), 0, 999, "Legacy", "Old", nil, nil)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := doPublicRequest(t, h, rec.ShareLink)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(strings.ToLower(w.Body.String()), "unavailable") {
		t.Fatalf("expected unavailable page, got %s", w.Body.String())
	}
}
