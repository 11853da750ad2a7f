package dto

import (
	"github.com/haierkeys/note-keeper-service/pkg/timex"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// NoteDTO Note data transfer object, history is never embedded
// NoteDTO 笔记数据传输对象，不包含历史
type NoteDTO struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Tags      []*TagDTO  `json:"tags"`
	Owner     int64      `json:"owner"`
	Version   int64      `json:"version"`
	CreatedAt timex.Time `json:"createdAt"`
	UpdatedAt timex.Time `json:"updatedAt"`
}

// NoteCreateRequest Request parameters for creating a note
// 创建笔记请求参数
type NoteCreateRequest struct {
	Title   string  `json:"title" form:"title" binding:"required,notblank,max=500"`
	Content string  `json:"content" form:"content"`
	Tags    []int64 `json:"tags" form:"tags"`
}

// NoteUpdateRequest Request parameters for updating a note, absent fields stay unchanged
// 更新笔记请求参数，未提供的字段保持不变
type NoteUpdateRequest struct {
	Title   *string  `json:"title" form:"title" binding:"omitempty,max=500"`
	Content *string  `json:"content" form:"content"`
	Tags    *[]int64 `json:"tags" form:"tags"`
	// Version expected current version, a mismatch is rejected
	// Version 期望的当前版本，不一致时拒绝更新
	Version *int64 `json:"version" form:"version"`
}

// NoteListRequest Query parameters for listing notes
// 笔记列表查询参数
type NoteListRequest struct {
	Search string `json:"search" form:"search"`
	Sort   string `json:"sort" form:"sort"`   // createdAt / updatedAt / title
	Order  string `json:"order" form:"order"` // asc / desc
	Tags   string `json:"tags" form:"tags"`   // comma separated tag ids // 逗号分隔的标签 ID
}

// NoteHistoryDTO Snapshot of a note before an update
// NoteHistoryDTO 笔记更新前的快照
type NoteHistoryDTO struct {
	Title   string     `json:"title"`
	Content string     `json:"content"`
	SavedAt timex.Time `json:"savedAt"`
}

// NoteHistoryDiffDTO Diffs from a snapshot to the current note
// NoteHistoryDiffDTO 从快照到当前笔记的差异
type NoteHistoryDiffDTO struct {
	Index        int                   `json:"index"`
	SavedAt      timex.Time            `json:"savedAt"`
	TitleDiffs   []diffmatchpatch.Diff `json:"titleDiffs"`
	ContentDiffs []diffmatchpatch.Diff `json:"contentDiffs"`
}
