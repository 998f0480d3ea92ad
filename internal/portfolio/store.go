package portfolio

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"
)

// 存储层的错误分类。调用方通过 errors.Is / IsTransient 区分处理。
var (
	// ErrNotFound 表示记录不存在。永远不是致命错误，上层应呈现空态。
	ErrNotFound = errors.New("portfolio not found")
	// ErrForbidden 表示调用方不是记录的所有者（仅账号后端）。
	ErrForbidden = errors.New("not the portfolio owner")
	// ErrValidation 表示输入在写入前即被拒绝，无任何部分写入。
	ErrValidation = errors.New("invalid portfolio input")
)

// TransientError 包装可重试的传输层失败（网络后端不可达等）。
// 重试策略是调用方的事，存储层只负责区分出这一类。
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient store failure: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient 判断错误是否属于可重试的传输层失败。
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// Record 是存储层视角下的一份作品集。
// Data 与 Style 保持为原始 JSON：存储层从不解释其内容。
type Record struct {
	ID           string          `json:"id"`
	OwnerID      uint            `json:"ownerId,omitempty"`
	TemplateID   int             `json:"templateId"`
	TemplateName string          `json:"templateName"`
	Name         string          `json:"name"`
	Data         json.RawMessage `json:"data"`
	Style        json.RawMessage `json:"style"`
	ShareLink    string          `json:"shareLink"`
	IsPublic     bool            `json:"isPublic"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Update 描述一次部分更新：nil 字段保持不变。
type Update struct {
	Name     *string
	Data     json.RawMessage
	Style    json.RawMessage
	IsPublic *bool
}

// Empty 报告该补丁是否不改变任何字段。
func (u Update) Empty() bool {
	return u.Name == nil && u.Data == nil && u.Style == nil && u.IsPublic == nil
}

// Store 是两个后端共享的记录存储契约。
//
// GetByID 不做所有权检查，仅供编辑器重新加载自己的记录使用；
// 公开路径必须走 GetByShareLink，账号后端只在 IsPublic 为真时解析。
// 文件后端是单设备本地存储，没有账号概念，任何已知的
// id/share link 都可解析（见 FileStore 的说明）。
type Store interface {
	Create(ctx context.Context, ownerID uint, templateID int, templateName, name string, data, style json.RawMessage) (Record, error)
	Update(ctx context.Context, ownerID uint, id string, patch Update) error
	Delete(ctx context.Context, ownerID uint, id string) error
	GetByID(ctx context.Context, id string) (Record, error)
	GetByShareLink(ctx context.Context, shareLink string) (Record, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]Record, error)
}

const idRandomLen = 7

// newOpaqueID 生成记录 ID / 分享链接使用的不透明标识：
// 毫秒时间戳的 base36 形式拼接随机位。调用方仍需在存储内做碰撞检查。
func newOpaqueID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + randomBase36(idRandomLen)
}

func randomBase36(n int) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	buf := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand 失败时退化为时间噪声，唯一性仍由碰撞重试兜底。
			v = big.NewInt(time.Now().UnixNano() % int64(len(alphabet)))
		}
		buf[i] = alphabet[v.Int64()]
	}
	return string(buf)
}
