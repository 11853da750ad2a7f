package domain

import "time"

// Note 笔记领域模型
// Tags 保持关联顺序
type Note struct {
	ID        int64
	UID       int64
	Title     string
	Content   string
	Tags      []*Tag
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TagIDs 返回笔记关联的标签 ID
func (n *Note) TagIDs() []int64 {
	ids := make([]int64, 0, len(n.Tags))
	for _, t := range n.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}

// Sort fields accepted by NoteListQuery
// NoteListQuery 支持的排序字段
const (
	NoteSortCreatedAt = "createdAt"
	NoteSortUpdatedAt = "updatedAt"
	NoteSortTitle     = "title"
)

// NoteListQuery 笔记列表查询条件
type NoteListQuery struct {
	// Search 标题或内容的子串，不区分大小写
	Search string
	// TagIDs 任意一个匹配即可
	TagIDs []int64
	// SortBy createdAt / updatedAt / title，其他值按 updatedAt
	SortBy string
	// Asc 为 false 时降序
	Asc bool
}

// NormalizedSort 返回生效的排序字段
func (q NoteListQuery) NormalizedSort() string {
	switch q.SortBy {
	case NoteSortCreatedAt, NoteSortTitle, NoteSortUpdatedAt:
		return q.SortBy
	}
	return NoteSortUpdatedAt
}

// NoteUpdate 笔记更新内容，nil 字段保持不变
type NoteUpdate struct {
	Title   *string
	Content *string
	TagIDs  *[]int64
	// Version 期望的当前版本，nil 表示不校验
	Version *int64
}
