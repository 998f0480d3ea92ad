package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"poovi/internal/database"
)

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.Portfolio{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewGormStore(db)
}

func TestGormStoreCreateDefaultsPrivate(t *testing.T) {
	ctx := context.Background()
	store := newTestGormStore(t)

	rec, err := store.Create(ctx, 7, 1, "Modern Minimal", "Mine", json.RawMessage(`{"name":"Asha"}`), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.IsPublic {
		t.Fatalf("account-backed records must start private")
	}
	if rec.OwnerID != 7 {
		t.Fatalf("owner not recorded: %+v", rec)
	}
	if rec.ID == "" || rec.ShareLink == "" || rec.ID == rec.ShareLink {
		t.Fatalf("bad identifiers: %+v", rec)
	}
}

func TestGormStoreCreateIdentifiersDistinct(t *testing.T) {
	ctx := context.Background()
	store := newTestGormStore(t)

	ids := make(map[string]struct{})
	links := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		rec, err := store.Create(ctx, 1, 1, "Modern Minimal", fmt.Sprintf("portfolio %d", i), nil, nil)
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

func TestGormStoreCreateRejectsBlankName(t *testing.T) {
	store := newTestGormStore(t)
	_, err := store.Create(context.Background(), 1, 1, "Modern Minimal", "", nil, nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGormStoreShareLinkGatedByPublicFlag(t *testing.T) {
	ctx := context.Background()
	store := newTestGormStore(t)

	rec, err := store.Create(ctx, 1, 1, "Modern Minimal", "Gated", nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 私有记录在公开路径上等同于不存在。
	if _, err := store.GetByShareLink(ctx, rec.ShareLink); !errors.Is(err, ErrNotFound) {
		t.Fatalf("private record should not resolve, got %v", err)
	}

	isPublic := true
	if err := store.Update(ctx, 1, rec.ID, Update{IsPublic: &isPublic}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	got, err := store.GetByShareLink(ctx, rec.ShareLink)
	if err != nil {
		t.Fatalf("public lookup: %v", err)
	}
	if got.ID != rec.ID {
		t.Fatalf("resolved wrong record: %+v", got)
	}

	// 账号后端的公开路径只认分享链接，不认记录 ID。
	if _, err := store.GetByShareLink(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("record id must not work as share link, got %v", err)
	}

	isPublic = false
	if err := store.Update(ctx, 1, rec.ID, Update{IsPublic: &isPublic}); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if _, err := store.GetByShareLink(ctx, rec.ShareLink); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unpublished record should stop resolving, got %v", err)
	}
}

func TestGormStoreOwnershipEnforced(t *testing.T) {
	ctx := context.Background()
	store := newTestGormStore(t)

	rec, err := store.Create(ctx, 1, 1, "Modern Minimal", "Owned", nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before, err := store.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	name := "hijacked"
	if err := store.Update(ctx, 2, rec.ID, Update{Name: &name}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for foreign update, got %v", err)
	}
	if err := store.Delete(ctx, 2, rec.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for foreign delete, got %v", err)
	}

	// 记录应原样保留，包括 updated_at。
	got, err := store.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Name != "Owned" {
		t.Fatalf("record mutated by rejected update: %+v", got)
	}
	if !got.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatalf("updated_at changed by rejected calls: %v -> %v", before.UpdatedAt, got.UpdatedAt)
	}

	if err := store.Delete(ctx, 1, rec.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := store.GetByID(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestGormStoreUpdateUnknownID(t *testing.T) {
	store := newTestGormStore(t)
	name := "whatever"
	if err := store.Update(context.Background(), 1, "missing", Update{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGormStoreListByOwner(t *testing.T) {
	ctx := context.Background()
	store := newTestGormStore(t)

	first, err := store.Create(ctx, 1, 1, "Modern Minimal", "first", nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := store.Create(ctx, 1, 2, "Creative Bold", "second", nil, nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Create(ctx, 2, 3, "Tech Pro", "other user", nil, nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	name := "first again"
	if err := store.Update(ctx, 1, first.ID, Update{Name: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}

	records, err := store.ListByOwner(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records for owner 1, got %d", len(records))
	}
	if records[0].ID != first.ID {
		t.Fatalf("expected most recently updated first, got %s", records[0].ID)
	}
	for _, r := range records {
		if r.OwnerID != 1 {
			t.Fatalf("foreign record leaked into listing: %+v", r)
		}
	}
}
