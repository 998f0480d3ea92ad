package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"poovi/internal/catalog"
)

// ErrCommitInFlight 表示上一次 Commit 尚未结束。
// 调用方必须在一次提交完成前禁止重入提交。
var ErrCommitInFlight = errors.New("commit already in flight")

// Session 是可变的编辑会话状态：在模板/已存记录与持久化快照
// 之间架桥。Session 不是并发安全的，宿主层持有唯一的可变引用。
type Session struct {
	TemplateID    int
	TemplateName  string
	PortfolioName string

	Data  Data
	Style catalog.Style

	// 首次成功保存后记下存储分配的标识，后续提交走更新而非再次创建。
	recordID   string
	shareLink  string
	ownerID    uint
	committing bool
}

// NewSessionFromTemplate 以占位人物数据与模板默认样式为种子开启新会话。
// 模板不存在时返回 false。
func NewSessionFromTemplate(templateID int) (*Session, bool) {
	tpl, ok := catalog.Get(templateID)
	if !ok {
		return nil, false
	}
	return &Session{
		TemplateID:    tpl.ID,
		TemplateName:  tpl.Name,
		PortfolioName: "My Portfolio",
		Data:          DefaultData(),
		Style:         tpl.DefaultStyle,
	}, true
}

// NewSessionFromRecord 以已存记录为种子开启会话：记录数据逐字段
// 合并在默认值之上，记录样式合并在模板默认样式之上。
// 模板已从目录下架时，样式以记录自身内容为准。
func NewSessionFromRecord(record Record) *Session {
	var data Data
	// 存储层保证 Data 是 JSON 文档，但内容不受信；解析失败按空数据处理。
	_ = json.Unmarshal(record.Data, &data)

	var override catalog.Style
	_ = json.Unmarshal(record.Style, &override)

	base := catalog.Style{}
	if tpl, ok := catalog.Get(record.TemplateID); ok {
		base = tpl.DefaultStyle
	}

	return &Session{
		TemplateID:    record.TemplateID,
		TemplateName:  record.TemplateName,
		PortfolioName: record.Name,
		Data:          data.MergeOverDefaults(),
		Style:         override.MergeOver(base),
		recordID:      record.ID,
		shareLink:     record.ShareLink,
		ownerID:       record.OwnerID,
	}
}

// RecordID 返回会话当前绑定的记录 ID（尚未保存时为空）。
func (s *Session) RecordID() string { return s.recordID }

// ShareLink 返回首次保存后分配的分享链接。
func (s *Session) ShareLink() string { return s.shareLink }

// SetOwner 绑定会话的归属账号（账号后端必需，本地后端可为 0）。
func (s *Session) SetOwner(ownerID uint) { s.ownerID = ownerID }

// SetField 修改一个标量内容字段。未知字段名被忽略。
func (s *Session) SetField(name, value string) {
	switch name {
	case "name":
		s.Data.Name = value
	case "title":
		s.Data.Title = value
	case "email":
		s.Data.Email = value
	case "phone":
		s.Data.Phone = value
	case "location":
		s.Data.Location = value
	case "bio":
		s.Data.Bio = value
	case "linkedin":
		s.Data.LinkedIn = value
	case "github":
		s.Data.GitHub = value
	case "twitter":
		s.Data.Twitter = value
	}
}

// SetStyle 整体替换样式覆盖。
func (s *Session) SetStyle(style catalog.Style) { s.Style = style }

// AddSkill 在技能列表末尾追加一个空位。
func (s *Session) AddSkill() { s.Data.Skills = append(s.Data.Skills, "") }

// SetSkill 修改指定位置的技能，越界忽略。
func (s *Session) SetSkill(index int, value string) {
	if index >= 0 && index < len(s.Data.Skills) {
		s.Data.Skills[index] = value
	}
}

// RemoveSkill 删除指定位置的技能，保持其余条目的相对顺序。
func (s *Session) RemoveSkill(index int) {
	if index >= 0 && index < len(s.Data.Skills) {
		s.Data.Skills = append(s.Data.Skills[:index], s.Data.Skills[index+1:]...)
	}
}

// AddExperience 追加一条空的工作经历。
func (s *Session) AddExperience() {
	s.Data.Experience = append(s.Data.Experience, Experience{})
}

// UpdateExperience 对指定经历应用补丁：空字段保持原值。
func (s *Session) UpdateExperience(index int, patch Experience) {
	if index < 0 || index >= len(s.Data.Experience) {
		return
	}
	entry := &s.Data.Experience[index]
	if patch.Company != "" {
		entry.Company = patch.Company
	}
	if patch.Role != "" {
		entry.Role = patch.Role
	}
	if patch.Duration != "" {
		entry.Duration = patch.Duration
	}
}

// RemoveExperience 删除指定经历，保持其余顺序。
func (s *Session) RemoveExperience(index int) {
	if index >= 0 && index < len(s.Data.Experience) {
		s.Data.Experience = append(s.Data.Experience[:index], s.Data.Experience[index+1:]...)
	}
}

// AddEducation 追加一条空的教育经历。
func (s *Session) AddEducation() {
	s.Data.Education = append(s.Data.Education, Education{})
}

// UpdateEducation 对指定教育经历应用补丁：空字段保持原值。
func (s *Session) UpdateEducation(index int, patch Education) {
	if index < 0 || index >= len(s.Data.Education) {
		return
	}
	entry := &s.Data.Education[index]
	if patch.Degree != "" {
		entry.Degree = patch.Degree
	}
	if patch.Institution != "" {
		entry.Institution = patch.Institution
	}
	if patch.Year != "" {
		entry.Year = patch.Year
	}
}

// RemoveEducation 删除指定教育经历，保持其余顺序。
func (s *Session) RemoveEducation(index int) {
	if index >= 0 && index < len(s.Data.Education) {
		s.Data.Education = append(s.Data.Education[:index], s.Data.Education[index+1:]...)
	}
}

// AddProject 追加一个空项目条目。
func (s *Session) AddProject() {
	s.Data.Projects = append(s.Data.Projects, Project{})
}

// UpdateProject 对指定项目应用补丁：空字段保持原值。
func (s *Session) UpdateProject(index int, patch Project) {
	if index < 0 || index >= len(s.Data.Projects) {
		return
	}
	entry := &s.Data.Projects[index]
	if patch.Title != "" {
		entry.Title = patch.Title
	}
	if patch.Description != "" {
		entry.Description = patch.Description
	}
	if patch.URL != "" {
		entry.URL = patch.URL
	}
}

// RemoveProject 删除指定项目，保持其余顺序。
func (s *Session) RemoveProject(index int) {
	if index >= 0 && index < len(s.Data.Projects) {
		s.Data.Projects = append(s.Data.Projects[:index], s.Data.Projects[index+1:]...)
	}
}

// Snapshot 把会话规范化为待持久化的两份不透明文档。
// 空白技能被丢弃；样式即便与模板默认值相同也原样保留。
func (s *Session) Snapshot() (Data, catalog.Style) {
	data := s.Data
	skills := make([]string, 0, len(data.Skills))
	for _, skill := range data.Skills {
		if strings.TrimSpace(skill) != "" {
			skills = append(skills, skill)
		}
	}
	data.Skills = skills
	return data, s.Style
}

// Commit 持久化会话：无后备记录时创建，否则更新。
// 首次创建成功后记下返回的 ID/分享链接，再次提交即为更新
// （首次保存后幂等）。提交进行中拒绝重入。
func (s *Session) Commit(ctx context.Context, store Store) (Record, error) {
	if s.committing {
		return Record{}, ErrCommitInFlight
	}
	s.committing = true
	defer func() { s.committing = false }()

	data, style := s.Snapshot()
	rawData, err := json.Marshal(data)
	if err != nil {
		return Record{}, fmt.Errorf("encode data snapshot: %w", err)
	}
	rawStyle, err := json.Marshal(style)
	if err != nil {
		return Record{}, fmt.Errorf("encode style snapshot: %w", err)
	}

	if s.recordID == "" {
		record, err := store.Create(ctx, s.ownerID, s.TemplateID, s.TemplateName, s.PortfolioName, rawData, rawStyle)
		if err != nil {
			return Record{}, err
		}
		s.recordID = record.ID
		s.shareLink = record.ShareLink
		return record, nil
	}

	name := s.PortfolioName
	patch := Update{Name: &name, Data: rawData, Style: rawStyle}
	if err := store.Update(ctx, s.ownerID, s.recordID, patch); err != nil {
		return Record{}, err
	}
	return store.GetByID(ctx, s.recordID)
}
