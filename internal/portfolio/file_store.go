package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileStore 是本地后端：整个集合是磁盘上的单个 JSON 文档，
// 每次变更都整体读-改-写。进程内用互斥锁串行化访问；
// 不提供跨进程锁。这里没有账号概念，也没有隐私门控——
// 创建即生成可用的分享链接，任何已知 id/链接都可解析。
//
// 损坏的存储文件按"无数据"处理并在下次写入时被覆盖，绝不让
// 解析失败向上冒泡成崩溃。本后端没有可重试失败类别。
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore 构造指向给定文件的本地存储。文件允许尚不存在。
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Create 追加一条新记录并立即持久化。
func (s *FileStore) Create(_ context.Context, ownerID uint, templateID int, templateName, name string, data, style json.RawMessage) (Record, error) {
	if strings.TrimSpace(name) == "" {
		return Record{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if data == nil {
		data = json.RawMessage("{}")
	}
	if style == nil {
		style = json.RawMessage("{}")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadLocked()

	id := s.uniqueIDLocked(records, func(r Record) string { return r.ID })
	shareLink := s.uniqueIDLocked(records, func(r Record) string { return r.ShareLink })

	now := time.Now().UTC()
	record := Record{
		ID:           id,
		OwnerID:      ownerID,
		TemplateID:   templateID,
		TemplateName: templateName,
		Name:         name,
		Data:         data,
		Style:        style,
		ShareLink:    shareLink,
		IsPublic:     true, // 本地后端没有隐私门控
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	records = append(records, record)

	if err := s.saveLocked(records); err != nil {
		return Record{}, err
	}
	return record, nil
}

// Update 应用部分更新。本后端忽略 ownerID：单设备存储没有账号。
func (s *FileStore) Update(_ context.Context, _ uint, id string, patch Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadLocked()
	idx := indexByID(records, id)
	if idx < 0 {
		return ErrNotFound
	}
	if patch.Empty() {
		return nil
	}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		records[idx].Name = *patch.Name
	}
	if patch.Data != nil {
		records[idx].Data = patch.Data
	}
	if patch.Style != nil {
		records[idx].Style = patch.Style
	}
	if patch.IsPublic != nil {
		records[idx].IsPublic = *patch.IsPublic
	}
	records[idx].UpdatedAt = time.Now().UTC()

	return s.saveLocked(records)
}

// Delete 删除记录并持久化。
func (s *FileStore) Delete(_ context.Context, _ uint, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadLocked()
	idx := indexByID(records, id)
	if idx < 0 {
		return ErrNotFound
	}
	records = append(records[:idx], records[idx+1:]...)
	return s.saveLocked(records)
}

// GetByID 按 ID 查找。
func (s *FileStore) GetByID(_ context.Context, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadLocked()
	if idx := indexByID(records, id); idx >= 0 {
		return records[idx], nil
	}
	return Record{}, ErrNotFound
}

// GetByShareLink 按分享链接查找。本后端无隐私门控，
// id 与分享链接在公开路径上同样可用。
func (s *FileStore) GetByShareLink(_ context.Context, shareLink string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.loadLocked() {
		if r.ShareLink == shareLink || r.ID == shareLink {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

// ListByOwner 返回全部记录（本后端忽略 ownerID），按 UpdatedAt 倒序。
func (s *FileStore) ListByOwner(_ context.Context, _ uint) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.loadLocked()
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})
	return records, nil
}

// loadLocked 读取整个集合。文件缺失或内容损坏都退化为空集合。
func (s *FileStore) loadLocked() []Record {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil
	}
	return records
}

// saveLocked 原子写入：先写临时文件再 rename，避免写一半的文档。
func (s *FileStore) saveLocked(records []Record) error {
	if records == nil {
		records = []Record{}
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode portfolios: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".poovi-*.json")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close store file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

func (s *FileStore) uniqueIDLocked(records []Record, key func(Record) string) string {
	for {
		candidate := newOpaqueID()
		collision := false
		for _, r := range records {
			if key(r) == candidate {
				collision = true
				break
			}
		}
		if !collision {
			return candidate
		}
	}
}

func indexByID(records []Record, id string) int {
	for i, r := range records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

var _ Store = (*FileStore)(nil)
