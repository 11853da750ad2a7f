package service

import (
	"context"
	"errors"

	"github.com/haierkeys/note-keeper-service/pkg/code"
	"github.com/haierkeys/note-keeper-service/pkg/logger"
	"github.com/haierkeys/note-keeper-service/pkg/writequeue"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WriteExecutor serializes write operations of one owner
// WriteExecutor 串行化同一所有者的写操作
type WriteExecutor interface {
	Execute(ctx context.Context, uid int64, fn func(ctx context.Context) error) error
}

// executeWrite 通过写队列执行，未配置时直接执行
func executeWrite(ctx context.Context, w WriteExecutor, uid int64, fn func(ctx context.Context) error) error {
	if w == nil {
		return fn(ctx)
	}
	return w.Execute(ctx, uid, fn)
}

// storeError 将仓储错误映射为业务错误码
// notFound 为 nil 时记录不存在也按数据库错误处理
func storeError(lg *zap.Logger, method string, uid int64, err error, notFound *code.Code) error {
	var c *code.Code
	switch {
	case errors.As(err, &c):
		return c
	case notFound != nil && errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, writequeue.ErrWriteQueueFull),
		errors.Is(err, writequeue.ErrWriteTimeout),
		errors.Is(err, writequeue.ErrWriteQueueClosed):
		lg.Warn("write queue rejected operation",
			zap.String(logger.FieldMethod, method),
			zap.Int64(logger.FieldUID, uid),
			zap.Error(err))
		return code.ErrorWriteQueueBusy
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return code.ErrorServerInternal.WithDetails(err.Error())
	}
	lg.Error("store operation failed",
		zap.String(logger.FieldMethod, method),
		zap.Int64(logger.FieldUID, uid),
		zap.Error(err))
	return code.ErrorDBQuery
}
