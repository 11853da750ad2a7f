package model

const TableNameNoteTag = "note_tag"

// NoteTag mapped from table <note_tag>
type NoteTag struct {
	ID       int64 `gorm:"column:id;primaryKey;autoIncrement" json:"id" form:"id"`
	NoteID   int64 `gorm:"column:note_id;not null;uniqueIndex:idx_note_tag,priority:1" json:"noteId" form:"noteId"`
	TagID    int64 `gorm:"column:tag_id;not null;uniqueIndex:idx_note_tag,priority:2;index:idx_note_tag_tag" json:"tagId" form:"tagId"`
	UID      int64 `gorm:"column:uid;not null;index:idx_note_tag_tag" json:"uid" form:"uid"`
	Position int   `gorm:"column:position;not null;default:0" json:"position" form:"position"`
}

// TableName NoteTag's table name
func (*NoteTag) TableName() string {
	return TableNameNoteTag
}
