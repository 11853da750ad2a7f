package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/haierkeys/note-keeper-service/internal/dto"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// SessionData persisted session, both fields are required to count as logged in
// SessionData 持久化的会话，token 与 user 缺一即视为未登录
type SessionData struct {
	Token string       `json:"token"`
	User  *dto.UserDTO `json:"user"`
}

// Store persists SessionData between runs
// Store 在多次运行之间持久化会话
type Store interface {
	Load() (*SessionData, error)
	Save(data *SessionData) error
	Clear() error
}

// Session authenticated state passed explicitly to the client
// Session 显式传递给客户端的登录状态
type Session struct {
	mu       sync.RWMutex
	store    Store
	data     SessionData
	onLogout []func()
}

// NewSession restores the session from store
// NewSession 从 store 恢复会话
func NewSession(store Store) (*Session, error) {
	s := &Session{store: store}
	data, err := store.Load()
	if err != nil {
		return s, err
	}
	if data != nil && data.Token != "" && data.User != nil {
		s.data = *data
	}
	return s, nil
}

// Token 当前令牌，未登录时为空
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data.User == nil {
		return ""
	}
	return s.data.Token
}

// User 当前用户，未登录时为 nil
func (s *Session) User() *dto.UserDTO {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data.Token == "" || s.data.User == nil {
		return nil
	}
	u := *s.data.User
	return &u
}

// IsAuthenticated 是否已登录
func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

// Login 保存令牌和用户
func (s *Session) Login(token string, user *dto.UserDTO) error {
	if token == "" || user == nil {
		return errors.New("client: login response without token or user")
	}
	s.mu.Lock()
	s.data = SessionData{Token: token, User: user}
	data := s.data
	s.mu.Unlock()
	return s.store.Save(&data)
}

// Logout clears the session and runs the logout callbacks, it is a no-op when already logged out
// Logout 清除会话并执行登出回调，已登出时不做任何事
func (s *Session) Logout() error {
	s.mu.Lock()
	if s.data.Token == "" && s.data.User == nil {
		s.mu.Unlock()
		return nil
	}
	s.data = SessionData{}
	callbacks := append([]func(){}, s.onLogout...)
	s.mu.Unlock()

	err := s.store.Clear()
	for _, fn := range callbacks {
		fn()
	}
	return err
}

// OnLogout 注册登出回调
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// MemoryStore 内存会话存储
type MemoryStore struct {
	mu   sync.Mutex
	data *SessionData
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (*SessionData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	d := *m.data
	return &d, nil
}

func (m *MemoryStore) Save(data *SessionData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := *data
	m.data = &d
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}

// FileStore JSON session file guarded by an flock on <path>.lock
// Several CLI processes may share one file
// FileStore 使用 <path>.lock 文件锁保护的 JSON 会话文件，可被多个 CLI 进程共享
type FileStore struct {
	mu   sync.Mutex // flock 只在进程之间互斥
	path string
	lock *flock.Flock
}

// NewFileStore 创建文件会话存储
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, lock: flock.New(path + ".lock")}
}

// Path 会话文件路径
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) withLock(fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return errors.Wrap(err, "create session dir")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.lock.Lock(); err != nil {
		return errors.Wrap(err, "lock session file")
	}
	defer f.lock.Unlock()
	return fn()
}

// Load 读取会话，文件不存在时返回 nil
func (f *FileStore) Load() (*SessionData, error) {
	var out *SessionData
	err := f.withLock(func() error {
		raw, err := os.ReadFile(f.path)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read session file")
		}
		var data SessionData
		if err := json.Unmarshal(raw, &data); err != nil {
			return errors.Wrap(err, "decode session file")
		}
		out = &data
		return nil
	})
	return out, err
}

// Save writes to a temp file then renames it into place
// Save 先写临时文件再重命名
func (f *FileStore) Save(data *SessionData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	return f.withLock(func() error {
		tmp := f.path + ".tmp"
		if err := os.WriteFile(tmp, raw, 0600); err != nil {
			return errors.Wrap(err, "write session file")
		}
		return errors.Wrap(os.Rename(tmp, f.path), "replace session file")
	})
}

// Clear 删除会话文件
func (f *FileStore) Clear() error {
	return f.withLock(func() error {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "remove session file")
		}
		return nil
	})
}
