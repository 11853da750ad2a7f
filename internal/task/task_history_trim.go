package task

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/haierkeys/note-keeper-service/internal/app"
	"github.com/haierkeys/note-keeper-service/internal/domain"
	"github.com/haierkeys/note-keeper-service/pkg/logger"

	"go.uber.org/zap"
)

func init() {
	Register(NewHistoryTrimTask)
}

// HistoryTrimTask 按当前配置裁剪每篇笔记的历史记录
// 调低 app.history-keep-versions 后，已有的多余快照由该任务删除
type HistoryTrimTask struct {
	app *app.App
}

// Name 返回任务名称
func (t *HistoryTrimTask) Name() string {
	return "NoteHistoryTrim"
}

func (t *HistoryTrimTask) Spec() string {
	return t.app.Config().App.MaintenanceCron
}

// IsStartupRun 是否立即执行一次
func (t *HistoryTrimTask) IsStartupRun() bool {
	return true
}

// Run trims owner by owner, each inside that owner's write queue
// Run 逐个用户裁剪，每个用户的裁剪都在其写队列中执行
func (t *HistoryTrimTask) Run(ctx context.Context) error {
	start := time.Now()
	keep := domain.HistoryLimit(t.app.Config().App.HistoryKeepVersions)
	repo := t.app.NoteHistoryRepo

	uids, err := repo.OwnersOverLimit(ctx, keep)
	if err != nil {
		return err
	}

	var removed atomic.Int64
	failed := 0
	for _, uid := range uids {
		err := t.app.ExecuteWrite(ctx, uid, func(ctx context.Context) error {
			n, err := repo.TrimOwner(ctx, uid, keep)
			removed.Add(n)
			return err
		})
		if err != nil {
			failed++
			t.app.Logger().Warn("task log",
				zap.String(logger.FieldTask, t.Name()),
				zap.Int64(logger.FieldUID, uid),
				zap.Error(err))
		}
	}

	t.app.Logger().Info("task log",
		zap.String(logger.FieldTask, t.Name()),
		zap.Int("keep", keep),
		zap.Int("owners", len(uids)),
		zap.Int("failed", failed),
		zap.Int64("removed", removed.Load()),
		zap.Duration(logger.FieldDuration, time.Since(start)),
		zap.String("msg", "success"))
	if failed > 0 {
		return fmt.Errorf("history trim failed for %d of %d owners", failed, len(uids))
	}
	return nil
}

// NewHistoryTrimTask 创建历史裁剪任务，未配置 maintenance-cron 时不启用
func NewHistoryTrimTask(a *app.App) (Task, error) {
	if a.Config().App.MaintenanceCron == "" {
		return nil, nil
	}
	return &HistoryTrimTask{app: a}, nil
}
