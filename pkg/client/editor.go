package client

import (
	"context"
	"sync"
	"time"

	"github.com/haierkeys/note-keeper-service/internal/dto"
	"github.com/haierkeys/note-keeper-service/pkg/logger"

	"go.uber.org/zap"
)

// DefaultQuietPeriod 自动保存的静默时间
const DefaultQuietPeriod = 3000 * time.Millisecond

// defaultSaveTimeout 定时器触发的保存请求超时
const defaultSaveTimeout = 30 * time.Second

// NoteStore is the part of Client used by an Editor
// NoteStore Editor 依赖的客户端接口
type NoteStore interface {
	GetNote(ctx context.Context, id int64) (*dto.NoteDTO, error)
	UpdateNote(ctx context.Context, id int64, req *dto.NoteUpdateRequest) (*dto.NoteDTO, error)
}

var _ NoteStore = (*Client)(nil)

// Draft 编辑中的标题和内容
type Draft struct {
	Title   string
	Content string
}

// EditorOption 编辑器选项
type EditorOption func(*Editor)

// WithQuietPeriod 设置自动保存的静默时间
func WithQuietPeriod(d time.Duration) EditorOption {
	return func(e *Editor) {
		if d > 0 {
			e.quiet = d
		}
	}
}

// WithOnSaved 每次保存结果被采用后回调
func WithOnSaved(fn func(*dto.NoteDTO)) EditorOption {
	return func(e *Editor) {
		e.onSaved = fn
	}
}

// WithEditorLogger 设置日志器
func WithEditorLogger(lg *zap.Logger) EditorOption {
	return func(e *Editor) {
		e.logger = lg
	}
}

// Editor editing session of one note
//
// The draft changes synchronously on every edit. A single timer is cancelled and
// rescheduled on each edit, so a burst of edits produces one save after the quiet
// period. SaveNow cancels the pending timer and saves at once. Saves are serialized
// and carry the last known version; a response is applied only when it is newer
// than the last applied one.
//
// Editor 单篇笔记的编辑会话
// 每次编辑同步修改草稿，并取消重建唯一的定时器，连续编辑只在静默期后保存一次。
// SaveNow 取消待触发的定时器并立即保存。保存串行执行并携带最新版本号，只采用比已采用结果更新的响应。
type Editor struct {
	store   NoteStore
	noteID  int64
	quiet   time.Duration
	onSaved func(*dto.NoteDTO)
	logger  *zap.Logger

	saveMu sync.Mutex // 串行化保存

	mu      sync.Mutex
	draft   Draft
	note    *dto.NoteDTO
	timer   *time.Timer
	gen     uint64 // 定时器代数，过期的回调不执行
	seq     uint64 // 最后发出的请求序号
	applied uint64 // 最后采用的响应序号
	lastErr error
	closed  bool
}

// NewEditor 创建编辑会话，调用 Load 加载笔记
func NewEditor(store NoteStore, noteID int64, opts ...EditorOption) *Editor {
	e := &Editor{
		store:  store,
		noteID: noteID,
		quiet:  DefaultQuietPeriod,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load fetches the note and replaces the draft, it never schedules a save
// Load 加载笔记并替换草稿，不会触发保存
func (e *Editor) Load(ctx context.Context) error {
	e.mu.Lock()
	e.stopTimerLocked()
	e.seq++
	seq := e.seq
	e.mu.Unlock()

	note, err := e.store.GetNote(ctx, e.noteID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.lastErr = err
		return err
	}
	if seq <= e.applied {
		e.adoptLocked(note)
		return nil
	}
	e.applied = seq
	e.adoptLocked(note)
	e.draft = Draft{Title: e.note.Title, Content: e.note.Content}
	e.lastErr = nil
	return nil
}

// SetTitle 修改标题并重新计时
func (e *Editor) SetTitle(title string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft.Title = title
	e.scheduleLocked()
}

// SetContent 修改内容并重新计时
func (e *Editor) SetContent(content string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft.Content = content
	e.scheduleLocked()
}

// SaveNow cancels the pending autosave and saves the current draft
// SaveNow 取消待触发的自动保存并立即保存当前草稿
func (e *Editor) SaveNow(ctx context.Context) (*dto.NoteDTO, error) {
	e.mu.Lock()
	e.stopTimerLocked()
	e.mu.Unlock()
	return e.save(ctx)
}

// Draft 当前草稿
func (e *Editor) Draft() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// Note 最后采用的服务端笔记，Load 前为 nil
func (e *Editor) Note() *dto.NoteDTO {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.note
}

// Err 最近一次请求的错误
func (e *Editor) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Pending 是否有待触发的自动保存
func (e *Editor) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timer != nil
}

// Close 停止定时器，之后的编辑不再触发保存
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.stopTimerLocked()
}

// adoptLocked keeps the server note with the highest version, whichever response brought it
// adoptLocked 保留版本号最高的服务端笔记，与响应到达顺序无关
func (e *Editor) adoptLocked(note *dto.NoteDTO) {
	if e.note != nil && note.Version < e.note.Version {
		return
	}
	e.note = note
}

func (e *Editor) scheduleLocked() {
	if e.closed {
		return
	}
	e.stopTimerLocked()
	gen := e.gen
	e.timer = time.AfterFunc(e.quiet, func() { e.fire(gen) })
}

// stopTimerLocked also bumps gen so a callback that already started sees itself as stale
// stopTimerLocked 同时递增代数，已开始执行的回调会发现自己已过期
func (e *Editor) stopTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
}

func (e *Editor) fire(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || e.closed {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), defaultSaveTimeout)
	defer cancel()
	if _, err := e.save(ctx); err != nil {
		e.logger.Warn("autosave failed", zap.Int64(logger.FieldNoteID, e.noteID), zap.Error(err))
	}
}

func (e *Editor) save(ctx context.Context) (*dto.NoteDTO, error) {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.Lock()
	draft := e.draft
	req := &dto.NoteUpdateRequest{Title: &draft.Title, Content: &draft.Content}
	if e.note != nil {
		version := e.note.Version
		req.Version = &version
	}
	e.seq++
	seq := e.seq
	e.mu.Unlock()

	note, err := e.store.UpdateNote(ctx, e.noteID, req)

	e.mu.Lock()
	if err != nil {
		e.lastErr = err
		e.mu.Unlock()
		return nil, err
	}
	if seq <= e.applied {
		e.adoptLocked(note)
		e.mu.Unlock()
		return note, nil
	}
	e.applied = seq
	e.adoptLocked(note)
	e.lastErr = nil
	onSaved := e.onSaved
	e.mu.Unlock()

	if onSaved != nil {
		onSaved(note)
	}
	return note, nil
}
