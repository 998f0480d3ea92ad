package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 表示系统中的账号信息。
type User struct {
	gorm.Model
	Email        string      `gorm:"uniqueIndex;size:255"`
	PasswordHash string      `gorm:"size:255"`
	Portfolios   []Portfolio `gorm:"constraint:OnDelete:CASCADE"`
}

// Profile 表示账号的个人资料，按账号一对一存在。
// 首次访问时隐式创建；仅随账号一起删除。
type Profile struct {
	gorm.Model
	UserID    uint   `gorm:"uniqueIndex"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	FirstName string `gorm:"size:128"`
	LastName  string `gorm:"size:128"`
	Email     string `gorm:"size:255"`
	Bio       string `gorm:"size:2048"`
	Location  string `gorm:"size:255"`
	Website   string `gorm:"size:512"`
	PhotoURL  string `gorm:"size:512"`
}

// Portfolio 表示一份已保存的作品集记录。
// Data 与 Style 是不透明的 JSONB 文档，存储层从不解释其内容；
// 字段语义只由编辑会话与公开渲染器负责。
type Portfolio struct {
	ID           string `gorm:"primaryKey;size:64"`
	UserID       uint   `gorm:"index"`
	TemplateID   int
	TemplateName string         `gorm:"size:255"`
	Name         string         `gorm:"size:255"`
	Data         datatypes.JSON `gorm:"type:jsonb"`
	Style        datatypes.JSON `gorm:"type:jsonb"`
	ShareLink    string         `gorm:"uniqueIndex;size:64"`
	IsPublic     bool           `gorm:"default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
