package model

import "github.com/haierkeys/note-keeper-service/pkg/timex"

const TableNameNote = "note"

// Note mapped from table <note>
type Note struct {
	ID      int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id" form:"id"`
	UID     int64  `gorm:"column:uid;not null;index:idx_note_uid_updated,priority:1" json:"uid" form:"uid"`
	Title   string `gorm:"column:title;size:500;not null" json:"title" form:"title"`
	Content string `gorm:"column:content;type:text" json:"content" form:"content"`
	// 小写副本，仅用于搜索
	SearchTitle   string     `gorm:"column:search_title;size:500;not null;default:''" json:"-" form:"-"`
	SearchContent string     `gorm:"column:search_content;type:text" json:"-" form:"-"`
	Version       int64      `gorm:"column:version;not null;default:1" json:"version" form:"version"`
	CreatedAt     timex.Time `gorm:"column:created_at;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt     timex.Time `gorm:"column:updated_at;autoUpdateTime:false;index:idx_note_uid_updated,priority:2" json:"updatedAt" form:"updatedAt"`
}

// TableName Note's table name
func (*Note) TableName() string {
	return TableNameNote
}
