// Package safe_close coordinates graceful shutdown of long running goroutines
// Package safe_close 协调长期运行 goroutine 的优雅关闭
package safe_close

import (
	"sync"
)

// SafeClose broadcasts one close signal and waits for every attached worker
// SafeClose 广播一次关闭信号，并等待所有挂载的 worker 退出
type SafeClose struct {
	closeSignal chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup

	mu  sync.Mutex
	err error
}

func NewSafeClose() *SafeClose {
	return &SafeClose{
		closeSignal: make(chan struct{}),
	}
}

// Attach runs fn in a goroutine; fn must call done when it returns
// Attach 在 goroutine 中运行 fn，fn 返回时必须调用 done
func (s *SafeClose) Attach(fn func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var once sync.Once
	done := func() { once.Do(s.wg.Done) }
	go fn(done, s.closeSignal)
}

// SendCloseSignal closes the signal channel, the first non-nil err is kept
// SendCloseSignal 关闭信号通道，保留第一个非 nil 错误
func (s *SafeClose) SendCloseSignal(err error) {
	s.mu.Lock()
	if err != nil && s.err == nil {
		s.err = err
	}
	s.mu.Unlock()

	s.closeOnce.Do(func() {
		close(s.closeSignal)
	})
}

// CloseSignal returns the channel closed on shutdown
// CloseSignal 返回关闭时被关闭的通道
func (s *SafeClose) CloseSignal() <-chan struct{} {
	return s.closeSignal
}

// WaitClosed blocks until every attached worker called done
// WaitClosed 阻塞直到所有挂载的 worker 调用 done
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
