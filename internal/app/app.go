package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/note-keeper-service/internal/dao"
	"github.com/haierkeys/note-keeper-service/internal/domain"
	"github.com/haierkeys/note-keeper-service/internal/service"
	pkgapp "github.com/haierkeys/note-keeper-service/pkg/app"
	"github.com/haierkeys/note-keeper-service/pkg/writequeue"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB
	Dao    *dao.Dao

	// 并发控制组件
	writeQueueMgr *writequeue.Manager

	// Repository 层
	UserRepo        domain.UserRepository
	NoteRepo        domain.NoteRepository
	TagRepo         domain.TagRepository
	NoteHistoryRepo domain.NoteHistoryRepository

	// Service 层
	UserService service.UserService
	NoteService service.NoteService
	TagService  service.TagService

	TokenManager pkgapp.TokenManager

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// NewApp 创建应用容器实例
// cfg、logger、db 均为必需
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		DB:         db,
		shutdownCh: make(chan struct{}),
	}

	wqConfig := cfg.GetWriteQueueConfig()
	a.writeQueueMgr = writequeue.New(wqConfig, logger)

	a.Dao = dao.New(db, dao.WithConfig(cfg.DaoConfig()), dao.WithLogger(logger))

	a.TokenManager = pkgapp.NewTokenManager(pkgapp.TokenConfig{
		SecretKey: cfg.Security.AuthTokenKey,
		Issuer:    pkgapp.DefaultTokenIssuer,
		Expiry:    cfg.GetTokenExpiry(),
	})

	a.UserRepo = dao.NewUserRepository(a.Dao)
	a.NoteRepo = dao.NewNoteRepository(a.Dao)
	a.TagRepo = dao.NewTagRepository(a.Dao)
	a.NoteHistoryRepo = dao.NewNoteHistoryRepository(a.Dao)

	svcConfig := &service.ServiceConfig{
		User: service.UserServiceConfig{
			RegisterIsEnable: cfg.User.RegisterIsEnable,
		},
		App: service.AppServiceConfig{
			HistoryKeepVersions: domain.HistoryLimit(cfg.App.HistoryKeepVersions),
		},
	}

	a.UserService = service.NewUserService(a.UserRepo, a.TokenManager, logger, svcConfig)
	a.NoteService = service.NewNoteService(a.NoteRepo, a.TagRepo, a.NoteHistoryRepo, a.writeQueueMgr, logger, &svcConfig.App)
	a.TagService = service.NewTagService(a.TagRepo, a.writeQueueMgr, logger)

	logger.Info("App container initialized successfully",
		zap.Int("writeQueueCapacity", wqConfig.QueueCapacity),
		zap.Int("historyKeepVersions", svcConfig.App.HistoryKeepVersions))

	return a, nil
}

// DaoConfig 转换为 DAO 层的数据库配置
func (c *AppConfig) DaoConfig() *dao.DatabaseConfig {
	return &dao.DatabaseConfig{
		Type:            c.Database.Type,
		Path:            c.Database.Path,
		UserName:        c.Database.UserName,
		Password:        c.Database.Password,
		Host:            c.Database.Host,
		Port:            c.Database.Port,
		Name:            c.Database.Name,
		AutoMigrate:     c.Database.AutoMigrate,
		Charset:         c.Database.Charset,
		MaxIdleConns:    c.Database.MaxIdleConns,
		MaxOpenConns:    c.Database.MaxOpenConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
		ConnMaxIdleTime: c.Database.ConnMaxIdleTime,
		RunMode:         c.Server.RunMode,
	}
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Version 获取版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// GetAuthTokenKey 获取 Token 密钥
func (a *App) GetAuthTokenKey() string {
	return a.config.Security.AuthTokenKey
}

// ExecuteWrite 通过 Write Queue 串行化执行写操作
func (a *App) ExecuteWrite(ctx context.Context, uid int64, fn func(ctx context.Context) error) error {
	return a.writeQueueMgr.Execute(ctx, uid, fn)
}

// WriteQueueCount 当前存活的用户写队列数量
func (a *App) WriteQueueCount() int {
	return a.writeQueueMgr.QueueCount()
}

// Close 关闭数据库连接
func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	a.logger.Info("Database connection closed")
	return nil
}

// Shutdown 优雅关闭应用容器
// 顺序：Write Queue Manager -> Database
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	a.shutdownOnce.Do(func() {
		close(a.shutdownCh)
		a.logger.Info("App container shutting down...")

		if ctx == nil {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
			defer cancel()
		}

		var errs []error
		if wqErr := a.writeQueueMgr.Shutdown(ctx); wqErr != nil {
			a.logger.Warn("write queue manager shutdown error", zap.Error(wqErr))
			errs = append(errs, fmt.Errorf("write queue manager shutdown: %w", wqErr))
		}
		if closeErr := a.Close(); closeErr != nil {
			errs = append(errs, closeErr)
		}

		if len(errs) > 0 {
			err = fmt.Errorf("shutdown completed with %d errors: %v", len(errs), errs)
			return
		}
		a.logger.Info("App container shutdown completed successfully")
	})
	return err
}

// IsShuttingDown 检查应用是否正在关闭
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}
