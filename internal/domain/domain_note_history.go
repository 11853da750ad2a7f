package domain

import "time"

// MaxNoteHistory 每篇笔记最多保留的历史快照数
const MaxNoteHistory = 10

// NoteHistory 笔记更新前的快照
type NoteHistory struct {
	ID      int64
	NoteID  int64
	UID     int64
	Title   string
	Content string
	SavedAt time.Time
}
