package domain

import (
	"context"
	"errors"
)

// ErrVersionConflict 更新时版本不匹配
var ErrVersionConflict = errors.New("note version conflict")

// UserRepository 用户仓储接口
type UserRepository interface {
	// GetByUID 根据UID获取用户
	GetByUID(ctx context.Context, uid int64) (*User, error)

	// GetByEmail 根据邮箱获取用户
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Create 创建用户
	Create(ctx context.Context, user *User) (*User, error)

	// GetAllUIDs 获取所有用户UID
	GetAllUIDs(ctx context.Context) ([]int64, error)
}

// NoteRepository 笔记仓储接口
// 所有方法都按 uid 过滤，其他用户的笔记视为不存在
type NoteRepository interface {
	// GetByID 根据ID获取笔记（含标签）
	GetByID(ctx context.Context, id, uid int64) (*Note, error)

	// Create 创建笔记并按顺序关联标签
	Create(ctx context.Context, note *Note, tagIDs []int64, uid int64) (*Note, error)

	// Update 在一个事务内写入快照、裁剪历史并应用更新
	// 版本不匹配时返回 ErrVersionConflict
	Update(ctx context.Context, id, uid int64, update NoteUpdate, keepHistory int) (*Note, error)

	// Delete 删除笔记及其标签关联和历史
	Delete(ctx context.Context, id, uid int64) error

	// List 按条件列出笔记（含标签）
	List(ctx context.Context, uid int64, query NoteListQuery) ([]*Note, error)
}

// TagRepository 标签仓储接口
type TagRepository interface {
	// GetByID 根据ID获取标签
	GetByID(ctx context.Context, id, uid int64) (*Tag, error)

	// GetByName 根据名称获取标签
	GetByName(ctx context.Context, name string, uid int64) (*Tag, error)

	// Create 创建标签
	Create(ctx context.Context, tag *Tag) (*Tag, error)

	// List 按名称升序列出标签
	List(ctx context.Context, uid int64) ([]*Tag, error)

	// FilterOwned 返回 ids 中属于该用户的部分，保持原顺序
	FilterOwned(ctx context.Context, ids []int64, uid int64) ([]int64, error)

	// Delete 删除标签并解除该用户笔记上的关联
	Delete(ctx context.Context, id, uid int64) error
}

// NoteHistoryRepository 笔记历史仓储接口
type NoteHistoryRepository interface {
	// ListByNoteID 按时间倒序列出历史
	ListByNoteID(ctx context.Context, noteID, uid int64) ([]*NoteHistory, error)

	// OwnersOverLimit 返回有笔记历史超过 keep 条的用户 UID
	OwnersOverLimit(ctx context.Context, keep int) ([]int64, error)

	// TrimOwner 删除该用户每篇笔记超出 keep 条的旧历史，返回删除条数
	TrimOwner(ctx context.Context, uid int64, keep int) (int64, error)
}

// ErrDuplicated 唯一约束冲突
var ErrDuplicated = errors.New("record already exists")
