package service

import (
	"context"
	"errors"
	"testing"

	"github.com/haierkeys/note-keeper-service/internal/domain"
	"github.com/haierkeys/note-keeper-service/internal/dto"
	"github.com/haierkeys/note-keeper-service/pkg/code"
	"github.com/haierkeys/note-keeper-service/pkg/writequeue"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noteFixture struct {
	svc   NoteService
	notes *mockNoteRepo
	tags  *mockTagRepo
}

func newNoteFixture(writer WriteExecutor) *noteFixture {
	tags := newMockTagRepo()
	notes := newMockNoteRepo(tags)
	svc := NewNoteService(notes, tags, &mockHistoryRepo{notes: notes}, writer, nil, nil)
	return &noteFixture{svc: svc, notes: notes, tags: tags}
}

func strPtr(s string) *string { return &s }

func TestNoteService_CreateDropsForeignTags(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(nil)
	mine, _ := f.tags.Create(ctx, &domain.Tag{UID: 1, Name: "work"})
	theirs, _ := f.tags.Create(ctx, &domain.Tag{UID: 2, Name: "spy"})

	note, err := f.svc.Create(ctx, 1, &dto.NoteCreateRequest{
		Title: "  Hello ",
		Tags:  []int64{mine.ID, theirs.ID, mine.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", note.Title)
	assert.Equal(t, "", note.Content)
	assert.Equal(t, int64(1), note.Owner)
	require.Len(t, note.Tags, 1)
	assert.Equal(t, "work", note.Tags[0].Name)

	_, err = f.svc.Create(ctx, 1, &dto.NoteCreateRequest{Title: "   "})
	assert.ErrorIs(t, err, code.ErrorNoteTitleRequired)
}

func TestNoteService_UpdateAndHistory(t *testing.T) {
	ctx := context.Background()
	wq := writequeue.New(writequeue.Config{}, nil)
	defer wq.Shutdown(ctx)
	f := newNoteFixture(wq)

	note, err := f.svc.Create(ctx, 1, &dto.NoteCreateRequest{Title: "A"})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, 1, note.ID, &dto.NoteUpdateRequest{Content: strPtr("x")})
	require.NoError(t, err)
	updated, err := f.svc.Update(ctx, 1, note.ID, &dto.NoteUpdateRequest{Content: strPtr("y")})
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated.Version)

	history, err := f.svc.History(ctx, 1, note.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "x", history[0].Content)
	assert.Equal(t, "", history[1].Content)
	assert.Equal(t, "A", history[1].Title)

	_, err = f.svc.History(ctx, 2, note.ID)
	assert.ErrorIs(t, err, code.ErrorNoteNotFound)

	_, err = f.svc.Update(ctx, 1, note.ID, &dto.NoteUpdateRequest{Title: strPtr(" ")})
	assert.ErrorIs(t, err, code.ErrorNoteTitleRequired)

	stale := int64(1)
	_, err = f.svc.Update(ctx, 1, note.ID, &dto.NoteUpdateRequest{Content: strPtr("z"), Version: &stale})
	assert.ErrorIs(t, err, code.ErrorNoteVersionConflict)

	_, err = f.svc.Update(ctx, 1, 999, &dto.NoteUpdateRequest{Content: strPtr("z")})
	assert.ErrorIs(t, err, code.ErrorNoteNotFound)
}

func TestNoteService_HistoryDiffAndRestore(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(nil)

	note, err := f.svc.Create(ctx, 1, &dto.NoteCreateRequest{Title: "A", Content: "hello"})
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, 1, note.ID, &dto.NoteUpdateRequest{Content: strPtr("hello world")})
	require.NoError(t, err)

	diff, err := f.svc.HistoryDiff(ctx, 1, note.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, diff.Index)
	require.NotEmpty(t, diff.ContentDiffs)
	last := diff.ContentDiffs[len(diff.ContentDiffs)-1]
	assert.Equal(t, diffmatchpatch.DiffInsert, last.Type)
	assert.Equal(t, " world", last.Text)

	_, err = f.svc.HistoryDiff(ctx, 1, note.ID, 5)
	assert.ErrorIs(t, err, code.ErrorNoteHistoryNotFound)

	restored, err := f.svc.RestoreHistory(ctx, 1, note.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", restored.Content)

	history, err := f.svc.History(ctx, 1, note.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hello world", history[0].Content)
}

func TestNoteService_ListQuery(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(nil)

	_, err := f.svc.List(ctx, 1, &dto.NoteListRequest{Search: "abc", Sort: "title", Order: "ASC", Tags: "3, x,2,3"})
	require.NoError(t, err)
	assert.Equal(t, domain.NoteListQuery{Search: "abc", TagIDs: []int64{3, 2}, SortBy: "title", Asc: true}, f.notes.lastQuery)

	_, err = f.svc.List(ctx, 1, &dto.NoteListRequest{Order: "sideways"})
	require.NoError(t, err)
	assert.False(t, f.notes.lastQuery.Asc)

	_, err = f.svc.Create(ctx, 1, &dto.NoteCreateRequest{Title: "kept out"})
	require.NoError(t, err)
	f.notes.lastQuery = domain.NoteListQuery{}
	list, err := f.svc.List(ctx, 1, &dto.NoteListRequest{Tags: "abc, 0,-1"})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
	assert.Equal(t, domain.NoteListQuery{}, f.notes.lastQuery)

	f.notes.listErr = errors.New("disk on fire")
	_, err = f.svc.List(ctx, 1, &dto.NoteListRequest{})
	assert.ErrorIs(t, err, code.ErrorDBQuery)
}

func TestNoteService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newNoteFixture(nil)

	note, err := f.svc.Create(ctx, 1, &dto.NoteCreateRequest{Title: "A"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, 2, note.ID), code.ErrorNoteNotFound)
	require.NoError(t, f.svc.Delete(ctx, 1, note.ID))
	_, err = f.svc.Get(ctx, 1, note.ID)
	assert.ErrorIs(t, err, code.ErrorNoteNotFound)
}

type busyWriter struct{}

func (busyWriter) Execute(ctx context.Context, uid int64, fn func(ctx context.Context) error) error {
	return writequeue.ErrWriteQueueFull
}

func TestNoteService_WriteQueueBusy(t *testing.T) {
	f := newNoteFixture(busyWriter{})
	_, err := f.svc.Create(context.Background(), 1, &dto.NoteCreateRequest{Title: "A"})
	assert.ErrorIs(t, err, code.ErrorWriteQueueBusy)
}
