package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "portfolios.json"))
}

func TestFileStoreCreateAndRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	data := json.RawMessage(`{"name":"Ravi"}`)
	rec, err := store.Create(ctx, 0, 3, "Tech Pro", "My Portfolio", data, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID == "" || rec.ShareLink == "" {
		t.Fatalf("expected generated identifiers, got %+v", rec)
	}
	if rec.ID == rec.ShareLink {
		t.Fatalf("id and share link should differ")
	}
	if !rec.IsPublic {
		t.Fatalf("local backend records are public on creation")
	}
	if string(rec.Style) != "{}" {
		t.Fatalf("nil style should default to empty object, got %s", rec.Style)
	}

	got, err := store.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.Name != "My Portfolio" || string(got.Data) != `{"name":"Ravi"}` {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestFileStoreCreateIdentifiersDistinct(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	ids := make(map[string]struct{})
	links := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		rec, err := store.Create(ctx, 0, 1, "Modern Minimal", fmt.Sprintf("portfolio %d", i), nil, nil)
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if _, seen := ids[rec.ID]; seen {
			t.Fatalf("duplicate id on record %d: %s", i, rec.ID)
		}
		if _, seen := links[rec.ShareLink]; seen {
			t.Fatalf("duplicate share link on record %d: %s", i, rec.ShareLink)
		}
		ids[rec.ID] = struct{}{}
		links[rec.ShareLink] = struct{}{}
	}
}

func TestFileStoreCreateRejectsBlankName(t *testing.T) {
	store := newTestFileStore(t)
	_, err := store.Create(context.Background(), 0, 1, "Modern Minimal", "   ", nil, nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFileStoreShareLinkResolvesIDToo(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	rec, err := store.Create(ctx, 0, 1, "Modern Minimal", "Shared", nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := store.GetByShareLink(ctx, rec.ShareLink); err != nil {
		t.Fatalf("lookup by share link: %v", err)
	}
	// 本地后端同样接受记录 ID 作为公开链接。
	if _, err := store.GetByShareLink(ctx, rec.ID); err != nil {
		t.Fatalf("lookup by id: %v", err)
	}
	if _, err := store.GetByShareLink(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFileStoreUpdate(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	rec, err := store.Create(ctx, 0, 1, "Modern Minimal", "Before", nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "After"
	isPublic := false
	patch := Update{
		Name:     &name,
		Data:     json.RawMessage(`{"bio":"updated"}`),
		IsPublic: &isPublic,
	}
	if err := store.Update(ctx, 0, rec.ID, patch); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Name != "After" || got.IsPublic {
		t.Fatalf("patch not applied: %+v", got)
	}
	if string(got.Data) != `{"bio":"updated"}` {
		t.Fatalf("data not replaced: %s", got.Data)
	}
	if string(got.Style) != "{}" {
		t.Fatalf("untouched style should survive, got %s", got.Style)
	}
	if got.UpdatedAt.Before(rec.UpdatedAt) {
		t.Fatalf("updated_at went backwards: %v -> %v", rec.UpdatedAt, got.UpdatedAt)
	}

	blank := "  "
	if err := store.Update(ctx, 0, rec.ID, Update{Name: &blank}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := store.Update(ctx, 0, "missing", Update{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFileStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	rec, err := store.Create(ctx, 0, 1, "Modern Minimal", "Gone", nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Delete(ctx, 0, rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetByID(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := store.Delete(ctx, 0, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should report not found, got %v", err)
	}
}

func TestFileStoreListOrdering(t *testing.T) {
	ctx := context.Background()
	store := newTestFileStore(t)

	first, err := store.Create(ctx, 0, 1, "Modern Minimal", "first", nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	second, err := store.Create(ctx, 0, 2, "Creative Bold", "second", nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	name := "first again"
	if err := store.Update(ctx, 0, first.ID, Update{Name: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}

	records, err := store.ListByOwner(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != first.ID || records[1].ID != second.ID {
		t.Fatalf("expected most recently updated first, got %s then %s", records[0].ID, records[1].ID)
	}
}

func TestFileStoreCorruptFileTreatedAsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "portfolios.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	store := NewFileStore(path)
	records, err := store.ListByOwner(ctx, 0)
	if err != nil {
		t.Fatalf("list over corrupt file: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("corrupt file should read as empty, got %d records", len(records))
	}

	// 下一次写入覆盖损坏内容。
	if _, err := store.Create(ctx, 0, 1, "Modern Minimal", "fresh", nil, nil); err != nil {
		t.Fatalf("create over corrupt file: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	var parsed []Record
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("store file should be valid json again: %v", err)
	}
	if len(parsed) != 1 {
		t.Fatalf("expected 1 record, got %d", len(parsed))
	}
}

func TestFileStoreMissingFileReadsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "portfolios.json"))
	records, err := store.ListByOwner(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty, got %d", len(records))
	}
}
