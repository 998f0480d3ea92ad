package portfolio

import (
	"strings"
	"testing"

	"poovi/internal/catalog"
)

func TestRenderFillsDefaultsForSparseData(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	view, err := r.Render(1, Data{Name: "Priya Patel"}, catalog.Style{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if view.TemplateUnavailable {
		t.Fatalf("template 1 should be renderable")
	}

	html := string(view.HTML)
	if !strings.Contains(html, "Priya Patel") {
		t.Fatalf("provided field missing from page")
	}
	// 缺省字段回退到占位内容而不是空白。
	if !strings.Contains(html, DefaultData().Title) {
		t.Fatalf("missing field should fall back to placeholder")
	}
	tpl, _ := catalog.Get(1)
	if !strings.Contains(html, tpl.DefaultStyle.PrimaryColor) {
		t.Fatalf("template default style missing from page")
	}
}

func TestRenderAppliesStyleOverride(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	view, err := r.Render(1, Data{}, catalog.Style{PrimaryColor: "#abcdef"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(view.HTML)
	if !strings.Contains(html, "#abcdef") {
		t.Fatalf("style override not applied")
	}
	tpl, _ := catalog.Get(1)
	if !strings.Contains(html, tpl.DefaultStyle.SecondaryColor) {
		t.Fatalf("unset style fields should keep template defaults")
	}
}

func TestRenderUnknownTemplateIsTerminalPage(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	view, err := r.Render(999, DefaultData(), catalog.Style{})
	if err != nil {
		t.Fatalf("unknown template must not be an error: %v", err)
	}
	if !view.TemplateUnavailable {
		t.Fatalf("expected the unavailable page")
	}
	if strings.Contains(string(view.HTML), DefaultData().Name) {
		t.Fatalf("unavailable page should not leak portfolio content")
	}
}

func TestRenderEscapesUserContent(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	view, err := r.Render(1, Data{Bio: `<script>alert("x")</script>`}, catalog.Style{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(string(view.HTML), "<script>alert") {
		t.Fatalf("user content must be escaped")
	}
}
