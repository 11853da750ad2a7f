package domain

import "time"

// Tag 标签领域模型，Name 已转为小写
type Tag struct {
	ID        int64
	UID       int64
	Name      string
	CreatedAt time.Time
}
