package model

import "github.com/haierkeys/note-keeper-service/pkg/timex"

const TableNameNoteHistory = "note_history"

// NoteHistory mapped from table <note_history>
type NoteHistory struct {
	ID      int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id" form:"id"`
	NoteID  int64      `gorm:"column:note_id;not null;index:idx_note_history_note" json:"noteId" form:"noteId"`
	UID     int64      `gorm:"column:uid;not null" json:"uid" form:"uid"`
	Title   string     `gorm:"column:title;size:500;not null" json:"title" form:"title"`
	Content string     `gorm:"column:content;type:text" json:"content" form:"content"`
	SavedAt timex.Time `gorm:"column:saved_at" json:"savedAt" form:"savedAt"`
}

// TableName NoteHistory's table name
func (*NoteHistory) TableName() string {
	return TableNameNoteHistory
}
