package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"poovi/internal/database"
)

// GormStore 是账号后端：多设备、记录归属于账号、分享受 IsPublic 门控。
// 数据库层面的失败（连接、超时）包装为 TransientError 供调用方重试。
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 构造账号后端存储。
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

const createCollisionRetries = 5

// Create 写入一条新记录。ID 与分享链接在本存储内碰撞检查后分配；
// IsPublic 默认为 false，需要显式 Update 才对公开路径可见。
func (s *GormStore) Create(ctx context.Context, ownerID uint, templateID int, templateName, name string, data, style json.RawMessage) (Record, error) {
	if strings.TrimSpace(name) == "" {
		return Record{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if data == nil {
		data = json.RawMessage("{}")
	}
	if style == nil {
		style = json.RawMessage("{}")
	}

	var model database.Portfolio
	for attempt := 0; ; attempt++ {
		id := newOpaqueID()
		shareLink := newOpaqueID()

		now := time.Now().UTC()
		model = database.Portfolio{
			ID:           id,
			UserID:       ownerID,
			TemplateID:   templateID,
			TemplateName: templateName,
			Name:         name,
			Data:         datatypes.JSON(data),
			Style:        datatypes.JSON(style),
			ShareLink:    shareLink,
			IsPublic:     false,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		err := s.db.WithContext(ctx).Create(&model).Error
		if err == nil {
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < createCollisionRetries {
			continue
		}
		return Record{}, &TransientError{Err: fmt.Errorf("create portfolio: %w", err)}
	}

	return recordFromModel(model), nil
}

// Update 应用部分更新。非所有者返回 ErrForbidden，记录保持不变。
func (s *GormStore) Update(ctx context.Context, ownerID uint, id string, patch Update) error {
	model, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if model.UserID != ownerID {
		return ErrForbidden
	}
	if patch.Empty() {
		return nil
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		updates["name"] = *patch.Name
	}
	if patch.Data != nil {
		updates["data"] = datatypes.JSON(patch.Data)
	}
	if patch.Style != nil {
		updates["style"] = datatypes.JSON(patch.Style)
	}
	if patch.IsPublic != nil {
		updates["is_public"] = *patch.IsPublic
	}

	if err := s.db.WithContext(ctx).Model(&database.Portfolio{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return &TransientError{Err: fmt.Errorf("update portfolio: %w", err)}
	}
	return nil
}

// Delete 删除记录。非所有者返回 ErrForbidden。
func (s *GormStore) Delete(ctx context.Context, ownerID uint, id string) error {
	model, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if model.UserID != ownerID {
		return ErrForbidden
	}
	if err := s.db.WithContext(ctx).Delete(&database.Portfolio{}, "id = ?", id).Error; err != nil {
		return &TransientError{Err: fmt.Errorf("delete portfolio: %w", err)}
	}
	return nil
}

// GetByID 按 ID 取回记录，不做所有权检查；仅供编辑器路径使用。
func (s *GormStore) GetByID(ctx context.Context, id string) (Record, error) {
	model, err := s.load(ctx, id)
	if err != nil {
		return Record{}, err
	}
	return recordFromModel(model), nil
}

// GetByShareLink 是公开路径唯一允许的查找：只解析 IsPublic 为真的记录。
func (s *GormStore) GetByShareLink(ctx context.Context, shareLink string) (Record, error) {
	var model database.Portfolio
	err := s.db.WithContext(ctx).
		Where("share_link = ? AND is_public = ?", shareLink, true).
		First(&model).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Record{}, ErrNotFound
	case err != nil:
		return Record{}, &TransientError{Err: fmt.Errorf("query share link: %w", err)}
	}
	return recordFromModel(model), nil
}

// ListByOwner 返回账号名下的全部记录，按 updated_at 倒序。
func (s *GormStore) ListByOwner(ctx context.Context, ownerID uint) ([]Record, error) {
	var models []database.Portfolio
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&models).Error; err != nil {
		return nil, &TransientError{Err: fmt.Errorf("list portfolios: %w", err)}
	}
	records := make([]Record, 0, len(models))
	for _, m := range models {
		records = append(records, recordFromModel(m))
	}
	return records, nil
}

func (s *GormStore) load(ctx context.Context, id string) (database.Portfolio, error) {
	var model database.Portfolio
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return database.Portfolio{}, ErrNotFound
	case err != nil:
		return database.Portfolio{}, &TransientError{Err: fmt.Errorf("query portfolio: %w", err)}
	}
	return model, nil
}

func recordFromModel(m database.Portfolio) Record {
	return Record{
		ID:           m.ID,
		OwnerID:      m.UserID,
		TemplateID:   m.TemplateID,
		TemplateName: m.TemplateName,
		Name:         m.Name,
		Data:         json.RawMessage(m.Data),
		Style:        json.RawMessage(m.Style),
		ShareLink:    m.ShareLink,
		IsPublic:     m.IsPublic,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
