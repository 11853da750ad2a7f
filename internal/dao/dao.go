// Package dao 实现数据访问层
package dao

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haierkeys/note-keeper-service/internal/domain"
	"github.com/haierkeys/note-keeper-service/internal/model"
	"github.com/haierkeys/note-keeper-service/pkg/util"

	"github.com/glebarez/sqlite"
	"github.com/haierkeys/gormTracing"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Type sqlite / mysql / postgres
	Type            string
	Path            string
	UserName        string
	Password        string
	Host            string
	Port            int
	Name            string
	AutoMigrate     bool
	Charset         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime string
	ConnMaxIdleTime string
	RunMode         string
}

// Dao 数据访问对象，持有数据库连接
type Dao struct {
	Db     *gorm.DB
	config *DatabaseConfig
	logger *zap.Logger
}

// DaoOption Dao 可选配置
type DaoOption func(*Dao)

// WithConfig 设置数据库配置
func WithConfig(c *DatabaseConfig) DaoOption {
	return func(d *Dao) {
		d.config = c
	}
}

// WithLogger 设置日志器
func WithLogger(l *zap.Logger) DaoOption {
	return func(d *Dao) {
		d.logger = l
	}
}

// New 创建 Dao
func New(db *gorm.DB, opts ...DaoOption) *Dao {
	d := &Dao{Db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DB 返回带上下文的会话
func (d *Dao) DB(ctx context.Context) *gorm.DB {
	return d.Db.WithContext(ctx)
}

// Transaction 在事务内执行 fn
func (d *Dao) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.Db.WithContext(ctx).Transaction(fn)
}

// Logger 返回日志器
func (d *Dao) Logger() *zap.Logger {
	return d.logger
}

// NewDBEngineWithConfig 按配置打开数据库并完成迁移
func NewDBEngineWithConfig(c *DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(c)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Silent
	if c.RunMode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true, // 使用单数表名
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", c.Type)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql.DB")
	}

	if c.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(parseDurationOr(c.ConnMaxLifetime, 30*time.Minute))
	sqlDB.SetConnMaxIdleTime(parseDurationOr(c.ConnMaxIdleTime, 10*time.Minute))

	_ = db.Use(&gormTracing.OpentracingPlugin{})

	if c.AutoMigrate {
		if err := model.AutoMigrate(db, ""); err != nil {
			return nil, err
		}
		if err := fillSearchColumns(db); err != nil {
			return nil, errors.Wrap(err, "fill note search columns")
		}
	}

	return db, nil
}

func dialectorFor(c *DatabaseConfig) (gorm.Dialector, error) {
	switch c.Type {
	case "", "sqlite":
		if c.Path != ":memory:" && !strings.HasPrefix(c.Path, "file:") {
			if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
				return nil, errors.Wrap(err, "create database dir")
			}
		}
		return sqlite.Open(sqliteDSN(c.Path)), nil
	case "mysql":
		charset := c.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		host := c.Host
		if c.Port > 0 {
			host = fmt.Sprintf("%s:%d", c.Host, c.Port)
		}
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=true&loc=UTC",
			c.UserName, c.Password, host, c.Name, charset)), nil
	case "postgres", "postgresql":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			c.Host, c.UserName, c.Password, c.Name)
		if c.Port > 0 {
			dsn += fmt.Sprintf(" port=%d", c.Port)
		}
		return postgres.Open(dsn), nil
	}
	return nil, errors.Errorf("unsupported database type %q", c.Type)
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func parseDurationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := util.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// translateError 将数据库错误映射为领域错误
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique constraint") {
		return domain.ErrDuplicated
	}
	return err
}
