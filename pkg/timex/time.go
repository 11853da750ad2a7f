// Package timex provides a time type shared by models and DTOs
// Package timex 提供模型与 DTO 共用的时间类型
package timex

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm/schema"
)

// Layout JSON layout, millisecond precision in UTC
// Layout JSON 格式，UTC 毫秒精度
const Layout = "2006-01-02T15:04:05.000Z07:00"

// Time wraps time.Time so it can be stored by gorm and rendered consistently
// Time 封装 time.Time，便于 gorm 存储和统一输出
type Time time.Time

// scanLayouts formats accepted when a driver hands back text
// scanLayouts 驱动返回文本时支持的格式
var scanLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Now current time in UTC, truncated to milliseconds so it survives a database round trip
// Now 当前 UTC 时间，截断到毫秒以保证数据库往返一致
func Now() Time {
	return Time(time.Now().UTC().Truncate(time.Millisecond))
}

// GormDataType lets every dialect pick its native time column
// GormDataType 由各数据库方言选择原生时间列类型
func (Time) GormDataType() string {
	return string(schema.Time)
}

func (t Time) Time() time.Time {
	return time.Time(t)
}

func (t Time) IsZero() bool {
	return time.Time(t).IsZero()
}

func (t Time) Unix() int64 {
	return time.Time(t).Unix()
}

func (t Time) UnixMilli() int64 {
	return time.Time(t).UnixMilli()
}

func (t Time) UnixMicro() int64 {
	return time.Time(t).UnixMicro()
}

func (t Time) UnixNano() int64 {
	return time.Time(t).UnixNano()
}

func (t Time) String() string {
	return time.Time(t).UTC().Format(Layout)
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.String() + `"`), nil
}

func (t *Time) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*t = Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*t = Time(parsed.UTC())
	return nil
}

// Value implements driver.Valuer
// Value 实现 driver.Valuer
func (t Time) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return time.Time(t).UTC(), nil
}

// Scan implements sql.Scanner
// Scan 实现 sql.Scanner
func (t *Time) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*t = Time{}
		return nil
	case time.Time:
		*t = Time(v.UTC())
		return nil
	case int64:
		*t = Time(time.Unix(v, 0).UTC())
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	}
	return fmt.Errorf("timex: cannot scan %T", value)
}

func (t *Time) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*t = Time{}
		return nil
	}
	for _, layout := range scanLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = Time(parsed.UTC())
			return nil
		}
	}
	return fmt.Errorf("timex: cannot parse %q", s)
}
