package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/haierkeys/note-keeper-service/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// fakeStore in-memory NoteStore that records every update
type fakeStore struct {
	mu      sync.Mutex
	note    dto.NoteDTO
	updates []dto.NoteUpdateRequest
	gets    int
	pending int

	// getGate, when set, blocks GetNote until it receives a note to return
	getGate chan *dto.NoteDTO
	// updateGate, when set, holds UpdateNote until it is closed
	updateGate chan struct{}
	failAll    error
}

func newFakeStore(title, content string) *fakeStore {
	return &fakeStore{note: dto.NoteDTO{ID: 1, Title: title, Content: content, Version: 1}}
}

func (f *fakeStore) GetNote(ctx context.Context, id int64) (*dto.NoteDTO, error) {
	f.mu.Lock()
	gate := f.getGate
	f.gets++
	f.mu.Unlock()

	if gate != nil {
		select {
		case n := <-gate:
			return n, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.note
	return &n, nil
}

func (f *fakeStore) UpdateNote(ctx context.Context, id int64, req *dto.NoteUpdateRequest) (*dto.NoteDTO, error) {
	f.mu.Lock()
	gate := f.updateGate
	f.pending++
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending--
	if f.failAll != nil {
		return nil, f.failAll
	}

	cp := dto.NoteUpdateRequest{}
	if req.Title != nil {
		t := *req.Title
		cp.Title = &t
	}
	if req.Content != nil {
		c := *req.Content
		cp.Content = &c
	}
	if req.Version != nil {
		v := *req.Version
		cp.Version = &v
	}
	f.updates = append(f.updates, cp)

	if cp.Title != nil {
		f.note.Title = *cp.Title
	}
	if cp.Content != nil {
		f.note.Content = *cp.Content
	}
	f.note.Version++
	n := f.note
	return &n, nil
}

func (f *fakeStore) saves() []dto.NoteUpdateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dto.NoteUpdateRequest(nil), f.updates...)
}

func TestEditor_LoadDoesNotSchedule(t *testing.T) {
	store := newFakeStore("T", "body")
	e := NewEditor(store, 1, WithQuietPeriod(20*time.Millisecond))
	defer e.Close()

	require.NoError(t, e.Load(context.Background()))
	assert.Equal(t, Draft{Title: "T", Content: "body"}, e.Draft())
	assert.False(t, e.Pending())

	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, store.saves())
}

func TestEditor_DebounceCoalescesEdits(t *testing.T) {
	const quiet = 150 * time.Millisecond
	store := newFakeStore("T", "")
	saved := make(chan *dto.NoteDTO, 4)
	e := NewEditor(store, 1, WithQuietPeriod(quiet), WithOnSaved(func(n *dto.NoteDTO) { saved <- n }))
	defer e.Close()
	require.NoError(t, e.Load(context.Background()))

	e.SetTitle("a")
	time.Sleep(quiet / 3)
	e.SetTitle("ab")
	time.Sleep(quiet / 3)
	e.SetContent("final body")
	assert.True(t, e.Pending())

	select {
	case n := <-saved:
		assert.Equal(t, "ab", n.Title)
		assert.Equal(t, "final body", n.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("autosave did not fire")
	}

	time.Sleep(2 * quiet)
	updates := store.saves()
	require.Len(t, updates, 1)
	assert.Equal(t, "ab", *updates[0].Title)
	assert.Equal(t, int64(1), *updates[0].Version)
	assert.False(t, e.Pending())
	assert.Equal(t, int64(2), e.Note().Version)
}

func TestEditor_SaveNowCancelsPendingSave(t *testing.T) {
	const quiet = 60 * time.Millisecond
	store := newFakeStore("T", "")
	e := NewEditor(store, 1, WithQuietPeriod(quiet))
	defer e.Close()
	require.NoError(t, e.Load(context.Background()))

	e.SetContent("typed")
	require.True(t, e.Pending())

	note, err := e.SaveNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "typed", note.Content)
	assert.False(t, e.Pending())

	time.Sleep(3 * quiet)
	assert.Len(t, store.saves(), 1)
}

func TestEditor_StaleLoadIsIgnored(t *testing.T) {
	store := newFakeStore("T", "v1")
	e := NewEditor(store, 1, WithQuietPeriod(time.Hour))
	defer e.Close()

	store.mu.Lock()
	store.getGate = make(chan *dto.NoteDTO)
	store.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- e.Load(context.Background()) }()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.gets == 1
	}, time.Second, 5*time.Millisecond)

	e.SetContent("newer")
	note, err := e.SaveNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), note.Version)

	// the slow load answers with the old note after the save was applied
	store.getGate <- &dto.NoteDTO{ID: 1, Title: "T", Content: "v1", Version: 1}
	require.NoError(t, <-done)

	assert.Equal(t, "newer", e.Draft().Content)
	assert.Equal(t, int64(2), e.Note().Version)
}

func TestEditor_LoadOvertakingSaveKeepsNewestVersion(t *testing.T) {
	store := newFakeStore("T", "v1")
	e := NewEditor(store, 1, WithQuietPeriod(time.Hour))
	defer e.Close()
	require.NoError(t, e.Load(context.Background()))

	gate := make(chan struct{})
	store.mu.Lock()
	store.updateGate = gate
	store.mu.Unlock()

	e.SetContent("first")
	saved := make(chan *dto.NoteDTO, 1)
	go func() {
		n, err := e.SaveNow(context.Background())
		assert.NoError(t, err)
		saved <- n
	}()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.pending == 1
	}, time.Second, 5*time.Millisecond)

	// the reload reads the note before the save commits and answers first
	require.NoError(t, e.Load(context.Background()))
	assert.Equal(t, int64(1), e.Note().Version)

	store.mu.Lock()
	store.updateGate = nil
	store.mu.Unlock()
	close(gate)

	n := <-saved
	require.NotNil(t, n)
	assert.Equal(t, int64(2), n.Version)
	assert.Equal(t, int64(2), e.Note().Version)

	e.SetContent("second")
	n, err := e.SaveNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n.Version)

	updates := store.saves()
	require.Len(t, updates, 2)
	assert.Equal(t, int64(2), *updates[1].Version)
}

func TestEditor_CloseStopsAutosave(t *testing.T) {
	const quiet = 30 * time.Millisecond
	store := newFakeStore("T", "")
	e := NewEditor(store, 1, WithQuietPeriod(quiet))
	require.NoError(t, e.Load(context.Background()))

	e.SetContent("x")
	e.Close()
	e.SetContent("y")
	assert.False(t, e.Pending())

	time.Sleep(4 * quiet)
	assert.Empty(t, store.saves())
}

func TestEditor_SaveErrorIsKept(t *testing.T) {
	store := newFakeStore("T", "")
	store.failAll = errors.New("offline")
	e := NewEditor(store, 1, WithQuietPeriod(time.Hour))
	defer e.Close()
	require.NoError(t, e.Load(context.Background()))

	e.SetTitle("x")
	_, err := e.SaveNow(context.Background())
	require.Error(t, err)
	assert.EqualError(t, e.Err(), "offline")
	assert.Equal(t, "x", e.Draft().Title)

	store.mu.Lock()
	store.failAll = nil
	store.mu.Unlock()

	_, err = e.SaveNow(context.Background())
	require.NoError(t, err)
	assert.NoError(t, e.Err())
}

// TestEditor_StateMachine drives random edit / SaveNow sequences with a quiet period
// that never elapses. Saves only come from SaveNow and always carry the latest draft.
func TestEditor_StateMachine(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := newFakeStore("T", "")
		e := NewEditor(store, 1, WithQuietPeriod(time.Hour))
		defer e.Close()
		if err := e.Load(context.Background()); err != nil {
			rt.Fatalf("load: %v", err)
		}

		model := Draft{Title: "T"}
		saveNows := 0
		editsSinceSave := 0
		text := rapid.StringMatching(`[a-z ]{0,8}`)

		rt.Repeat(map[string]func(*rapid.T){
			"setTitle": func(rt *rapid.T) {
				s := text.Draw(rt, "title")
				e.SetTitle(s)
				model.Title = s
				editsSinceSave++
			},
			"setContent": func(rt *rapid.T) {
				s := text.Draw(rt, "content")
				e.SetContent(s)
				model.Content = s
				editsSinceSave++
			},
			"saveNow": func(rt *rapid.T) {
				note, err := e.SaveNow(context.Background())
				if err != nil {
					rt.Fatalf("save: %v", err)
				}
				saveNows++
				editsSinceSave = 0
				if note.Title != model.Title || note.Content != model.Content {
					rt.Fatalf("saved %q/%q, want %q/%q", note.Title, note.Content, model.Title, model.Content)
				}
			},
			"": func(rt *rapid.T) {
				if got := e.Draft(); got != model {
					rt.Fatalf("draft %+v, want %+v", got, model)
				}
				if got := len(store.saves()); got != saveNows {
					rt.Fatalf("%d saves, want %d", got, saveNows)
				}
				if e.Pending() != (editsSinceSave > 0) {
					rt.Fatalf("pending %v after %d edits", e.Pending(), editsSinceSave)
				}
				if saveNows > 0 && e.Note().Version != int64(saveNows+1) {
					rt.Fatalf("version %d after %d saves", e.Note().Version, saveNows)
				}
			},
		})
	})
}
