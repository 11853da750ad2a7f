// Package writequeue serializes write operations per owner
// Package writequeue 按所有者串行化写操作
//
// Every owner gets a FIFO queue drained by one worker goroutine, so note
// updates of the same owner never interleave their history snapshots.
// 每个所有者拥有一个由单个 worker 消费的 FIFO 队列，同一所有者的笔记更新不会交错写入历史快照。
package writequeue

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrWriteQueueFull owner queue is full
	// ErrWriteQueueFull 所有者队列已满
	ErrWriteQueueFull = errors.New("write queue is full")
	// ErrWriteQueueClosed manager is shut down
	// ErrWriteQueueClosed 管理器已关闭
	ErrWriteQueueClosed = errors.New("write queue is closed")
	// ErrWriteTimeout operation did not finish in time
	// ErrWriteTimeout 写操作超时
	ErrWriteTimeout = errors.New("write operation timeout")
)

// Config write queue configuration
// Config 写队列配置
type Config struct {
	// QueueCapacity per-owner queue capacity
	// QueueCapacity 每个所有者的队列容量
	QueueCapacity int
	// WriteTimeout upper bound a caller waits for its operation
	// WriteTimeout 调用方等待写操作的最长时间
	WriteTimeout time.Duration
	// IdleTimeout idle queues are released after this duration
	// IdleTimeout 队列空闲超过该时长后被回收
	IdleTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		QueueCapacity: 100,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   10 * time.Minute,
	}
}

type writeOp struct {
	ctx    context.Context
	fn     func(ctx context.Context) error
	result chan error
}

type ownerQueue struct {
	ch       chan writeOp
	lastUsed time.Time
}

// Manager owns the queues of all owners
// Manager 管理所有所有者的写队列
type Manager struct {
	config Config
	logger *zap.Logger

	mu     sync.Mutex
	queues map[int64]*ownerQueue
	closed bool

	workers sync.WaitGroup
	stop    chan struct{}
	janitor sync.WaitGroup
}

// New creates a manager; zero config fields fall back to DefaultConfig
// New 创建管理器，配置零值字段使用默认值
func New(cfg Config, logger *zap.Logger) *Manager {
	def := DefaultConfig()
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = def.QueueCapacity
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = def.IdleTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		config: cfg,
		logger: logger,
		queues: make(map[int64]*ownerQueue),
		stop:   make(chan struct{}),
	}

	m.janitor.Add(1)
	go m.reapIdle()

	return m
}

// Execute runs fn on the owner's queue and waits for its result
// Execute 在所有者队列上执行 fn 并等待结果
func (m *Manager) Execute(ctx context.Context, uid int64, fn func(ctx context.Context) error) error {
	op := writeOp{ctx: ctx, fn: fn, result: make(chan error, 1)}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrWriteQueueClosed
	}
	q := m.queues[uid]
	if q == nil {
		q = &ownerQueue{ch: make(chan writeOp, m.config.QueueCapacity)}
		m.queues[uid] = q
		m.workers.Add(1)
		go m.work(uid, q.ch)
	}
	q.lastUsed = time.Now()

	select {
	case q.ch <- op:
	default:
		m.mu.Unlock()
		m.logger.Warn("write queue full", zap.Int64("uid", uid))
		return ErrWriteQueueFull
	}
	m.mu.Unlock()

	timer := time.NewTimer(m.config.WriteTimeout)
	defer timer.Stop()

	select {
	case err := <-op.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrWriteTimeout
	}
}

func (m *Manager) work(uid int64, ch chan writeOp) {
	defer m.workers.Done()
	for op := range ch {
		if err := op.ctx.Err(); err != nil {
			op.result <- err
			continue
		}
		op.result <- m.run(uid, op)
	}
}

func (m *Manager) run(uid int64, op writeOp) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("write operation panic", zap.Int64("uid", uid), zap.Any("panic", r))
			err = errors.New("write operation panic")
		}
	}()
	return op.fn(op.ctx)
}

func (m *Manager) reapIdle() {
	defer m.janitor.Done()

	interval := m.config.IdleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for uid, q := range m.queues {
				if len(q.ch) == 0 && now.Sub(q.lastUsed) > m.config.IdleTimeout {
					close(q.ch)
					delete(m.queues, uid)
				}
			}
			m.mu.Unlock()
		}
	}
}

// QueueCount number of live owner queues
// QueueCount 当前存活的队列数量
func (m *Manager) QueueCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues)
}

// Shutdown stops accepting work and waits for queued operations to drain
// Shutdown 停止接收新操作，并等待已排队的操作执行完毕
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.stop)
	for uid, q := range m.queues {
		close(q.ch)
		delete(m.queues, uid)
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.janitor.Wait()
		m.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("write queue manager stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
