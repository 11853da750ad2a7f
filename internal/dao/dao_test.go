package dao

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/haierkeys/note-keeper-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDao(t *testing.T) *Dao {
	t.Helper()
	db, err := NewDBEngineWithConfig(&DatabaseConfig{
		Type:        "sqlite",
		Path:        filepath.Join(t.TempDir(), "test.sqlite3"),
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return New(db)
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDao(t))

	u, err := repo.Create(ctx, &domain.User{Email: "a@example.com", Name: "A", Password: "hash"})
	require.NoError(t, err)
	assert.Positive(t, u.UID)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = repo.Create(ctx, &domain.User{Email: "a@example.com", Name: "B", Password: "hash"})
	assert.ErrorIs(t, err, domain.ErrDuplicated)

	got, err := repo.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.UID, got.UID)

	_, err = repo.GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	uids, err := repo.GetAllUIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{u.UID}, uids)
}

func TestNoteRepository_UpdateKeepsTenSnapshots(t *testing.T) {
	ctx := context.Background()
	d := newTestDao(t)
	notes := NewNoteRepository(d)
	history := NewNoteHistoryRepository(d)

	n, err := notes.Create(ctx, &domain.Note{Title: "A"}, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n.Version)
	assert.Empty(t, n.Tags)

	for i := 1; i <= 12; i++ {
		n, err = notes.Update(ctx, n.ID, 1, domain.NoteUpdate{Content: strPtr(fmt.Sprintf("v%d", i))}, 10)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(13), n.Version)
	assert.Equal(t, "v12", n.Content)

	list, err := history.ListByNoteID(ctx, n.ID, 1)
	require.NoError(t, err)
	require.Len(t, list, 10)
	for k, h := range list {
		// entry k holds the state before update 12-k
		want := ""
		if 11-k > 0 {
			want = fmt.Sprintf("v%d", 11-k)
		}
		assert.Equal(t, want, h.Content, "entry %d", k)
	}
}

func TestNoteRepository_UpdateExampleSequence(t *testing.T) {
	ctx := context.Background()
	d := newTestDao(t)
	notes := NewNoteRepository(d)
	history := NewNoteHistoryRepository(d)

	n, err := notes.Create(ctx, &domain.Note{Title: "A"}, nil, 1)
	require.NoError(t, err)
	_, err = notes.Update(ctx, n.ID, 1, domain.NoteUpdate{Content: strPtr("x")}, 10)
	require.NoError(t, err)
	_, err = notes.Update(ctx, n.ID, 1, domain.NoteUpdate{Content: strPtr("y")}, 10)
	require.NoError(t, err)

	list, err := history.ListByNoteID(ctx, n.ID, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Title)
	assert.Equal(t, "x", list[0].Content)
	assert.Equal(t, "A", list[1].Title)
	assert.Equal(t, "", list[1].Content)
}

func TestNoteRepository_VersionConflictAndOwnership(t *testing.T) {
	ctx := context.Background()
	notes := NewNoteRepository(newTestDao(t))

	n, err := notes.Create(ctx, &domain.Note{Title: "A"}, nil, 1)
	require.NoError(t, err)

	_, err = notes.Update(ctx, n.ID, 1, domain.NoteUpdate{Title: strPtr("B"), Version: int64Ptr(7)}, 10)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	_, err = notes.Update(ctx, n.ID, 2, domain.NoteUpdate{Title: strPtr("B")}, 10)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = notes.GetByID(ctx, n.ID, 2)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, notes.Delete(ctx, n.ID, 2), gorm.ErrRecordNotFound)

	updated, err := notes.Update(ctx, n.ID, 1, domain.NoteUpdate{Title: strPtr("B"), Version: int64Ptr(1)}, 10)
	require.NoError(t, err)
	assert.Equal(t, "B", updated.Title)
	assert.Equal(t, int64(2), updated.Version)
}

func TestNoteRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	d := newTestDao(t)
	notes := NewNoteRepository(d)
	tags := NewTagRepository(d)

	work, err := tags.Create(ctx, &domain.Tag{UID: 1, Name: "work"})
	require.NoError(t, err)
	home, err := tags.Create(ctx, &domain.Tag{UID: 1, Name: "home"})
	require.NoError(t, err)

	a, err := notes.Create(ctx, &domain.Note{Title: "Alpha", Content: "100% done"}, []int64{work.ID, home.ID}, 1)
	require.NoError(t, err)
	b, err := notes.Create(ctx, &domain.Note{Title: "Beta", Content: "groceries"}, []int64{home.ID}, 1)
	require.NoError(t, err)
	c, err := notes.Create(ctx, &domain.Note{Title: "Gamma", Content: "misc"}, nil, 1)
	require.NoError(t, err)
	_, err = notes.Create(ctx, &domain.Note{Title: "Alpha of someone else"}, nil, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"work", "home"}, tagNames(a.Tags))

	ids := func(list []*domain.Note) []int64 {
		out := []int64{}
		for _, n := range list {
			out = append(out, n.ID)
		}
		return out
	}

	list, err := notes.List(ctx, 1, domain.NoteListQuery{Search: "ALPHA"})
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID}, ids(list))

	list, err = notes.List(ctx, 1, domain.NoteListQuery{Search: "%"})
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID}, ids(list))

	list, err = notes.List(ctx, 1, domain.NoteListQuery{Search: "_"})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = notes.List(ctx, 1, domain.NoteListQuery{TagIDs: []int64{work.ID, home.ID}, SortBy: "title", Asc: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, b.ID}, ids(list))

	list, err = notes.List(ctx, 1, domain.NoteListQuery{SortBy: "title", Asc: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, b.ID, c.ID}, ids(list))

	bogus, err := notes.List(ctx, 1, domain.NoteListQuery{SortBy: "bogus"})
	require.NoError(t, err)
	byUpdated, err := notes.List(ctx, 1, domain.NoteListQuery{SortBy: "updatedAt"})
	require.NoError(t, err)
	assert.Equal(t, ids(byUpdated), ids(bogus))
	assert.Len(t, bogus, 3)
}

func TestNoteRepository_SearchFoldsNonASCII(t *testing.T) {
	ctx := context.Background()
	notes := NewNoteRepository(newTestDao(t))

	de, err := notes.Create(ctx, &domain.Note{Title: "Ärger im Büro", Content: "Montag"}, nil, 1)
	require.NoError(t, err)
	ru, err := notes.Create(ctx, &domain.Note{Title: "заметка", Content: "Привет мир"}, nil, 1)
	require.NoError(t, err)

	cases := map[string]int64{
		"Ärger":   de.ID,
		"ärger":   de.ID,
		"BÜRO":    de.ID,
		"Привет":  ru.ID,
		"привет":  ru.ID,
		"ЗАМЕТКА": ru.ID,
	}
	for search, want := range cases {
		list, err := notes.List(ctx, 1, domain.NoteListQuery{Search: search})
		require.NoError(t, err, search)
		require.Len(t, list, 1, search)
		assert.Equal(t, want, list[0].ID, search)
	}

	_, err = notes.Update(ctx, de.ID, 1, domain.NoteUpdate{Title: strPtr("Über")}, 10)
	require.NoError(t, err)
	list, err := notes.List(ctx, 1, domain.NoteListQuery{Search: "ärger"})
	require.NoError(t, err)
	assert.Empty(t, list)
	list, err = notes.List(ctx, 1, domain.NoteListQuery{Search: "über"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, de.ID, list[0].ID)
	list, err = notes.List(ctx, 1, domain.NoteListQuery{Search: "montag"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFillSearchColumns(t *testing.T) {
	ctx := context.Background()
	d := newTestDao(t)
	notes := NewNoteRepository(d)

	n, err := notes.Create(ctx, &domain.Note{Title: "Ärger", Content: "ÜBER"}, nil, 1)
	require.NoError(t, err)
	require.NoError(t, d.Db.Exec("UPDATE note SET search_title = '', search_content = ''").Error)

	list, err := notes.List(ctx, 1, domain.NoteListQuery{Search: "ärger"})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, fillSearchColumns(d.Db))

	list, err = notes.List(ctx, 1, domain.NoteListQuery{Search: "über"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, n.ID, list[0].ID)
}

func TestTagRepository_DeleteDetachesFromOwnerNotes(t *testing.T) {
	ctx := context.Background()
	d := newTestDao(t)
	notes := NewNoteRepository(d)
	tags := NewTagRepository(d)

	mine, err := tags.Create(ctx, &domain.Tag{UID: 1, Name: "x"})
	require.NoError(t, err)
	_, err = tags.Create(ctx, &domain.Tag{UID: 1, Name: "x"})
	assert.ErrorIs(t, err, domain.ErrDuplicated)
	theirs, err := tags.Create(ctx, &domain.Tag{UID: 2, Name: "x"})
	require.NoError(t, err)

	n1, err := notes.Create(ctx, &domain.Note{Title: "n1"}, []int64{mine.ID}, 1)
	require.NoError(t, err)
	n2, err := notes.Create(ctx, &domain.Note{Title: "n2"}, []int64{theirs.ID}, 2)
	require.NoError(t, err)

	owned, err := tags.FilterOwned(ctx, []int64{theirs.ID, mine.ID, 999}, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{mine.ID}, owned)

	assert.ErrorIs(t, tags.Delete(ctx, theirs.ID, 1), gorm.ErrRecordNotFound)
	require.NoError(t, tags.Delete(ctx, mine.ID, 1))

	got, err := notes.GetByID(ctx, n1.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)

	got, err = notes.GetByID(ctx, n2.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, tagNames(got.Tags))
}

func TestNoteRepository_DeleteRemovesHistory(t *testing.T) {
	ctx := context.Background()
	d := newTestDao(t)
	notes := NewNoteRepository(d)
	history := NewNoteHistoryRepository(d)

	n, err := notes.Create(ctx, &domain.Note{Title: "A"}, nil, 1)
	require.NoError(t, err)
	_, err = notes.Update(ctx, n.ID, 1, domain.NoteUpdate{Content: strPtr("x")}, 10)
	require.NoError(t, err)

	require.NoError(t, notes.Delete(ctx, n.ID, 1))
	list, err := history.ListByNoteID(ctx, n.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNoteHistoryRepository_TrimOwner(t *testing.T) {
	ctx := context.Background()
	d := newTestDao(t)
	notes := NewNoteRepository(d)
	history := NewNoteHistoryRepository(d)

	edit := func(uid int64, times int) int64 {
		n, err := notes.Create(ctx, &domain.Note{Title: "A"}, nil, uid)
		require.NoError(t, err)
		for i := 0; i < times; i++ {
			_, err = notes.Update(ctx, n.ID, uid, domain.NoteUpdate{Content: strPtr(fmt.Sprint(i))}, 10)
			require.NoError(t, err)
		}
		return n.ID
	}
	mine := edit(1, 5)
	edit(1, 4)
	theirs := edit(2, 5)
	edit(3, 2)

	uids, err := history.OwnersOverLimit(ctx, 3)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, uids)

	removed, err := history.TrimOwner(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	list, err := history.ListByNoteID(ctx, mine, 1)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "3", list[0].Content)

	list, err = history.ListByNoteID(ctx, theirs, 2)
	require.NoError(t, err)
	assert.Len(t, list, 5)

	uids, err = history.OwnersOverLimit(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, uids)
}

func tagNames(tags []*domain.Tag) []string {
	out := []string{}
	for _, t := range tags {
		out = append(out, t.Name)
	}
	return out
}
