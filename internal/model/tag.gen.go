package model

import "github.com/haierkeys/note-keeper-service/pkg/timex"

const TableNameTag = "tag"

// Tag mapped from table <tag>
type Tag struct {
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id" form:"id"`
	UID       int64      `gorm:"column:uid;not null;uniqueIndex:idx_tag_uid_name,priority:1" json:"uid" form:"uid"`
	Name      string     `gorm:"column:name;size:50;not null;uniqueIndex:idx_tag_uid_name,priority:2" json:"name" form:"name"`
	CreatedAt timex.Time `gorm:"column:created_at;autoCreateTime:false" json:"createdAt" form:"createdAt"`
}

// TableName Tag's table name
func (*Tag) TableName() string {
	return TableNameTag
}
