package model

import "github.com/haierkeys/note-keeper-service/pkg/timex"

const TableNameUser = "user"

// User mapped from table <user>
type User struct {
	UID       int64      `gorm:"column:uid;primaryKey;autoIncrement" json:"uid" form:"uid"`
	Email     string     `gorm:"column:email;size:255;not null;uniqueIndex:idx_user_email" json:"email" form:"email"`
	Name      string     `gorm:"column:name;size:255;not null" json:"name" form:"name"`
	Password  string     `gorm:"column:password;size:255;not null" json:"password" form:"password"`
	CreatedAt timex.Time `gorm:"column:created_at;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt timex.Time `gorm:"column:updated_at;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
}

// TableName User's table name
func (*User) TableName() string {
	return TableNameUser
}
