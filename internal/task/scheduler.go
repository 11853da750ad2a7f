package task

import (
	"context"
	"sync"

	"github.com/haierkeys/note-keeper-service/pkg/logger"
	"github.com/haierkeys/note-keeper-service/pkg/safe_close"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task 定义任务接口
type Task interface {
	Name() string                  // 任务名称
	Run(ctx context.Context) error // 执行任务
	Spec() string                  // cron 表达式，支持 @every 1h 等描述符；为空时不定时执行
	IsStartupRun() bool            // 是否立即执行一次
}

// Scheduler 任务调度器
type Scheduler struct {
	logger *zap.Logger
	tasks  []Task
	sc     *safe_close.SafeClose
	cron   *cron.Cron
	wg     sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler 创建任务调度器
func NewScheduler(lg *zap.Logger, sc *safe_close.SafeClose) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{lg: lg}
	return &Scheduler{
		logger: lg,
		tasks:  make([]Task, 0),
		sc:     sc,
		cron: cron.New(
			cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
			cron.WithChain(cron.SkipIfStillRunning(cl)),
			cron.WithLogger(cl),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddTask 添加任务，cron 表达式无效时返回错误
func (s *Scheduler) AddTask(task Task) error {
	if spec := task.Spec(); spec != "" {
		if _, err := s.cron.AddFunc(spec, func() { s.run(task, "loopRun") }); err != nil {
			return errors.Wrapf(err, "schedule task %s", task.Name())
		}
	}
	s.tasks = append(s.tasks, task)
	return nil
}

// Start 启动所有任务
// 收到关闭信号后取消正在执行的任务并等待其退出
func (s *Scheduler) Start() {
	if len(s.tasks) == 0 {
		s.logger.Info("no tasks to schedule")
		return
	}

	s.logger.Info("tasks starting ", zap.Int("count", len(s.tasks)))

	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()

		for _, task := range s.tasks {
			if task.IsStartupRun() {
				s.wg.Add(1)
				go func(task Task) {
					defer s.wg.Done()
					s.run(task, "startupRun")
				}(task)
			}
		}
		s.cron.Start()

		<-closeSignal
		s.cancel()
		<-s.cron.Stop().Done()
		s.wg.Wait()
		s.logger.Info("tasks stopped", zap.Int("count", len(s.tasks)))
	})
}

// run 执行一次任务，捕获 panic
func (s *Scheduler) run(task Task, kind string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panic",
				zap.String(logger.FieldTask, task.Name()),
				zap.String("type", kind),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()

	if s.ctx.Err() != nil {
		return
	}

	s.logger.Debug("task running", zap.String(logger.FieldTask, task.Name()), zap.String("type", kind))
	if err := task.Run(s.ctx); err != nil {
		s.logger.Error("task running error",
			zap.String(logger.FieldTask, task.Name()),
			zap.String("type", kind),
			zap.Error(err))
	}
}

// cronLogger 将 cron 日志转发到 zap
type cronLogger struct {
	lg *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.lg.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.lg.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
