// Package model 定义数据模型
package model

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// All 返回所有需要迁移的模型
func All() []interface{} {
	return []interface{}{
		&User{},
		&Note{},
		&NoteTag{},
		&NoteHistory{},
		&Tag{},
	}
}

// AutoMigrate 迁移指定模型，key 为空时迁移全部
func AutoMigrate(db *gorm.DB, key string) error {
	switch key {
	case "":
		return errors.Wrap(db.AutoMigrate(All()...), "auto migrate")
	case "User":
		return db.AutoMigrate(&User{})
	case "Note":
		return db.AutoMigrate(&Note{}, &NoteTag{})
	case "NoteHistory":
		return db.AutoMigrate(&NoteHistory{})
	case "Tag":
		return db.AutoMigrate(&Tag{})
	}
	return errors.Errorf("unknown model %q", key)
}
