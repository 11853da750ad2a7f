package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/haierkeys/note-keeper-service/internal/domain"

	"gorm.io/gorm"
)

// mockUserRepo in-memory domain.UserRepository
type mockUserRepo struct {
	domain.UserRepository
	mu      sync.Mutex
	users   map[string]*domain.User
	nextUID int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[string]*domain.User{}}
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUID(ctx context.Context, uid int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.UID == uid {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Email]; ok {
		return nil, domain.ErrDuplicated
	}
	m.nextUID++
	u := *user
	u.UID = m.nextUID
	m.users[u.Email] = &u
	return &u, nil
}

// mockTagRepo in-memory domain.TagRepository
type mockTagRepo struct {
	domain.TagRepository
	tags   map[int64]*domain.Tag
	nextID int64
}

func newMockTagRepo() *mockTagRepo {
	return &mockTagRepo{tags: map[int64]*domain.Tag{}}
}

func (m *mockTagRepo) GetByName(ctx context.Context, name string, uid int64) (*domain.Tag, error) {
	for _, t := range m.tags {
		if t.UID == uid && t.Name == name {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTagRepo) Create(ctx context.Context, tag *domain.Tag) (*domain.Tag, error) {
	m.nextID++
	t := *tag
	t.ID = m.nextID
	t.CreatedAt = time.Now()
	m.tags[t.ID] = &t
	return &t, nil
}

func (m *mockTagRepo) List(ctx context.Context, uid int64) ([]*domain.Tag, error) {
	var out []*domain.Tag
	for _, t := range m.tags {
		if t.UID == uid {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockTagRepo) FilterOwned(ctx context.Context, ids []int64, uid int64) ([]int64, error) {
	out := []int64{}
	for _, id := range ids {
		if t, ok := m.tags[id]; ok && t.UID == uid {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *mockTagRepo) Delete(ctx context.Context, id, uid int64) error {
	if t, ok := m.tags[id]; ok && t.UID == uid {
		delete(m.tags, id)
		return nil
	}
	return gorm.ErrRecordNotFound
}

// mockNoteRepo in-memory domain.NoteRepository and domain.NoteHistoryRepository
type mockNoteRepo struct {
	domain.NoteRepository
	tags      *mockTagRepo
	notes     map[int64]*domain.Note
	history   map[int64][]*domain.NoteHistory
	nextID    int64
	lastQuery domain.NoteListQuery
	listErr   error
}

func newMockNoteRepo(tags *mockTagRepo) *mockNoteRepo {
	return &mockNoteRepo{
		tags:    tags,
		notes:   map[int64]*domain.Note{},
		history: map[int64][]*domain.NoteHistory{},
	}
}

func (m *mockNoteRepo) resolveTags(ids []int64) []*domain.Tag {
	out := []*domain.Tag{}
	for _, id := range ids {
		if t, ok := m.tags.tags[id]; ok {
			out = append(out, t)
		}
	}
	return out
}

func (m *mockNoteRepo) GetByID(ctx context.Context, id, uid int64) (*domain.Note, error) {
	n, ok := m.notes[id]
	if !ok || n.UID != uid {
		return nil, gorm.ErrRecordNotFound
	}
	c := *n
	return &c, nil
}

func (m *mockNoteRepo) Create(ctx context.Context, note *domain.Note, tagIDs []int64, uid int64) (*domain.Note, error) {
	m.nextID++
	n := *note
	n.ID = m.nextID
	n.UID = uid
	n.Version = 1
	n.Tags = m.resolveTags(tagIDs)
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt
	m.notes[n.ID] = &n
	c := n
	return &c, nil
}

func (m *mockNoteRepo) Update(ctx context.Context, id, uid int64, update domain.NoteUpdate, keep int) (*domain.Note, error) {
	n, ok := m.notes[id]
	if !ok || n.UID != uid {
		return nil, gorm.ErrRecordNotFound
	}
	if update.Version != nil && *update.Version != n.Version {
		return nil, domain.ErrVersionConflict
	}
	snapshot := &domain.NoteHistory{NoteID: id, UID: uid, Title: n.Title, Content: n.Content, SavedAt: time.Now()}
	m.history[id] = domain.PrependHistory(m.history[id], snapshot, keep)

	if update.Title != nil {
		n.Title = *update.Title
	}
	if update.Content != nil {
		n.Content = *update.Content
	}
	if update.TagIDs != nil {
		n.Tags = m.resolveTags(*update.TagIDs)
	}
	n.Version++
	n.UpdatedAt = time.Now()
	c := *n
	return &c, nil
}

func (m *mockNoteRepo) Delete(ctx context.Context, id, uid int64) error {
	n, ok := m.notes[id]
	if !ok || n.UID != uid {
		return gorm.ErrRecordNotFound
	}
	delete(m.notes, id)
	delete(m.history, id)
	return nil
}

func (m *mockNoteRepo) List(ctx context.Context, uid int64, query domain.NoteListQuery) ([]*domain.Note, error) {
	m.lastQuery = query
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*domain.Note
	for _, n := range m.notes {
		if n.UID == uid {
			out = append(out, n)
		}
	}
	return out, nil
}

type mockHistoryRepo struct {
	domain.NoteHistoryRepository
	notes *mockNoteRepo
}

func (m *mockHistoryRepo) ListByNoteID(ctx context.Context, noteID, uid int64) ([]*domain.NoteHistory, error) {
	return m.notes.history[noteID], nil
}
