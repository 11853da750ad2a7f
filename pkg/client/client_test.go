package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haierkeys/note-keeper-service/internal/app"
	"github.com/haierkeys/note-keeper-service/internal/dao"
	"github.com/haierkeys/note-keeper-service/internal/dto"
	"github.com/haierkeys/note-keeper-service/internal/routers"
	"github.com/haierkeys/note-keeper-service/pkg/validator"

	"github.com/creasty/defaults"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	v := validator.NewCustomValidator()
	binding.Validator = v
	uni, err := validator.NewUniversalTranslator(v)
	require.NoError(t, err)

	cfg := &app.AppConfig{}
	require.NoError(t, defaults.Set(cfg))
	cfg.Database.Path = filepath.Join(t.TempDir(), "client.sqlite3")
	cfg.Security.AuthTokenKey = "client-test-secret"

	db, err := dao.NewDBEngineWithConfig(cfg.DaoConfig())
	require.NoError(t, err)
	a, err := app.NewApp(cfg, zap.NewNop(), db)
	require.NoError(t, err)

	srv := httptest.NewServer(routers.NewRouter(a, uni, nil))
	t.Cleanup(func() {
		srv.Close()
		_ = a.Shutdown(context.Background())
	})
	return srv
}

func TestClient_EndToEnd(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	c := New(srv.URL)

	require.NoError(t, c.Health(ctx))

	_, err := c.ListNotes(ctx, ListOptions{})
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	user, err := c.Register(ctx, "e2e@example.com", "secret1", "E2E")
	require.NoError(t, err)
	assert.Equal(t, "e2e@example.com", user.Email)
	assert.True(t, c.Session().IsAuthenticated())

	_, err = c.Register(ctx, "e2e@example.com", "secret1", "E2E")
	assert.True(t, IsConflict(err))

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)

	tags := NewTagCache(c)
	work, err := tags.Create(ctx, "Work")
	require.NoError(t, err)
	assert.Equal(t, "work", work.Name)

	ids, err := tags.Resolve(ctx, []string{"WORK"})
	require.NoError(t, err)
	assert.Equal(t, []int64{work.ID}, ids)
	_, err = tags.Resolve(ctx, []string{"missing"})
	assert.Error(t, err)

	note, err := c.CreateNote(ctx, &dto.NoteCreateRequest{Title: "Plan", Content: "draft", Tags: ids})
	require.NoError(t, err)
	require.Len(t, note.Tags, 1)

	content := "final"
	updated, err := c.UpdateNote(ctx, note.ID, &dto.NoteUpdateRequest{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	stale := int64(1)
	_, err = c.UpdateNote(ctx, note.ID, &dto.NoteUpdateRequest{Content: &content, Version: &stale})
	assert.True(t, IsConflict(err))

	history, err := c.History(ctx, note.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "draft", history[0].Content)

	diff, err := c.HistoryDiff(ctx, note.ID, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, diff.ContentDiffs)

	restored, err := c.RestoreHistory(ctx, note.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "draft", restored.Content)

	list, err := c.ListNotes(ctx, ListOptions{Search: "pla", Tags: ids})
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, tags.Delete(ctx, work.ID))
	cached, err := tags.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, cached)

	require.NoError(t, c.DeleteNote(ctx, note.ID))
	_, err = c.GetNote(ctx, note.ID)
	assert.True(t, IsNotFound(err))

	require.NoError(t, c.Logout())
	assert.False(t, c.Session().IsAuthenticated())

	_, err = c.Login(ctx, "e2e@example.com", "wrong-password")
	assert.True(t, IsUnauthorized(err))
	_, err = c.Login(ctx, "e2e@example.com", "secret1")
	require.NoError(t, err)
}

func TestClient_UnauthorizedLogsOut(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	session, err := NewSession(NewMemoryStore())
	require.NoError(t, err)
	require.NoError(t, session.Login("forged.token.value", &dto.UserDTO{ID: 1, Email: "x@example.com"}))

	var loggedOut atomic.Bool
	session.OnLogout(func() { loggedOut.Store(true) })

	c := New(srv.URL, WithSession(session))
	_, err = c.ListNotes(ctx, ListOptions{})
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid or expired token", apiErr.Message)

	assert.True(t, loggedOut.Load())
	assert.False(t, session.IsAuthenticated())

	_, err = c.ListNotes(ctx, ListOptions{})
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestClient_Lang(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, WithLang("zh"))

	_, err := c.Login(context.Background(), "nobody@example.com", "secret1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "邮箱或密码错误", apiErr.Message)
}

func TestTagCache_SingleFlight(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"a"}]`))
	}))
	defer srv.Close()

	session, _ := NewSession(NewMemoryStore())
	require.NoError(t, session.Login("t", &dto.UserDTO{ID: 1}))
	tc := NewTagCache(New(srv.URL, WithSession(session)))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tags, err := tc.List(context.Background())
			assert.NoError(t, err)
			assert.Len(t, tags, 1)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())

	_, err := tc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, session.Logout())
	_, err = tc.List(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)

	s, err := NewSession(store)
	require.NoError(t, err)
	assert.False(t, s.IsAuthenticated())

	require.NoError(t, s.Login("tok", &dto.UserDTO{ID: 7, Email: "f@example.com"}))

	restored, err := NewSession(NewFileStore(path))
	require.NoError(t, err)
	assert.Equal(t, "tok", restored.Token())
	assert.Equal(t, int64(7), restored.User().ID)

	require.NoError(t, restored.Logout())
	again, err := NewSession(NewFileStore(path))
	require.NoError(t, err)
	assert.False(t, again.IsAuthenticated())
}

func TestSession_PartialDataIsLoggedOut(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(&SessionData{Token: "tok"}))

	s, err := NewSession(store)
	require.NoError(t, err)
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User())
}
