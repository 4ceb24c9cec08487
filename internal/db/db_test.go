package db

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	supa "github.com/supabase-community/supabase-go"

	"videosummary/internal/apperrors"
	"videosummary/models"
)

func sampleSession(id string, updated time.Time) *models.VideoSession {
	s := models.NewVideoSession()
	s.ID = id
	s.Platform = models.PlatformBilibili
	s.Title = "title " + id
	s.OriginalSubtitles = []models.Subtitle{{Index: 0, StartTime: 0, End: 1, Text: "hi"}}
	s.TranslatedSubtitles["de"] = []models.Subtitle{{Index: 0, StartTime: 0, End: 1, Text: "hallo"}}
	s.ChatMessages = []models.Message{models.NewMessage(models.SenderAssistant, "welcome")}
	s.UpdatedAt = updated
	return s
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now().UTC()

	require.NoError(t, store.Upsert(ctx, sampleSession("a", now.Add(-time.Minute))))
	require.NoError(t, store.Upsert(ctx, sampleSession("b", now)))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "title a", got.Title)
	got.Title = "mutated"
	again, _ := store.Get(ctx, "a")
	assert.Equal(t, "title a", again.Title)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID, "most recently updated first")

	require.NoError(t, store.Delete(ctx, "a"))
	_, err = store.Get(ctx, "a")
	assert.True(t, apperrors.IsKind(err, apperrors.NotFound))

	assert.Error(t, store.Upsert(ctx, models.NewVideoSession()))
}

func newSupabaseTestStore(t *testing.T, h http.HandlerFunc) *SupabaseStore {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	client, err := supa.NewClient(srv.URL, "service-key", nil)
	require.NoError(t, err)
	return NewSupabaseStore(client, "", nil)
}

func TestSupabaseStore_Upsert(t *testing.T) {
	store := newSupabaseTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/sessions", r.URL.Path)
		assert.Equal(t, "id", r.URL.Query().Get("on_conflict"))
		assert.Contains(t, r.Header.Get("Prefer"), "resolution=merge-duplicates")
		assert.Equal(t, "service-key", r.Header.Get("apikey"))

		body, _ := io.ReadAll(r.Body)
		var rec models.SessionRecord
		assert.NoError(t, json.Unmarshal(body, &rec))
		assert.Equal(t, "s1", rec.ID)
		assert.Equal(t, "bilibili", rec.Platform)
		assert.JSONEq(t, `{"de":[{"index":0,"startTime":0,"end":1,"text":"hallo"}]}`, string(rec.TranslatedSubtitles))
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, store.Upsert(context.Background(), sampleSession("s1", time.Now())))
}

func TestSupabaseStore_GetAndList(t *testing.T) {
	rec, err := models.NewSessionRecord(sampleSession("s1", time.Now().UTC()))
	require.NoError(t, err)
	rows, _ := json.Marshal([]models.SessionRecord{rec})

	store := newSupabaseTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Query().Get("id") == "eq.s1":
			_, _ = w.Write(rows)
		case r.URL.Query().Get("id") == "eq.missing":
			_, _ = w.Write([]byte(`[]`))
		default:
			assert.Equal(t, "updated_at.desc.nullslast", r.URL.Query().Get("order"))
			_, _ = w.Write(rows)
		}
	})
	ctx := context.Background()

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.PlatformBilibili, got.Platform)
	assert.Equal(t, "hallo", got.TranslatedSubtitles["de"][0].Text)
	require.Len(t, got.ChatMessages, 1)

	_, err = store.Get(ctx, "missing")
	assert.True(t, apperrors.IsKind(err, apperrors.NotFound))

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSupabaseStore_ErrorsArePersistenceFailures(t *testing.T) {
	store := newSupabaseTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":"XX000","message":"boom"}`))
	})
	ctx := context.Background()

	assert.True(t, apperrors.IsKind(store.Upsert(ctx, sampleSession("s", time.Now())), apperrors.PersistenceFailure))
	_, err := store.Get(ctx, "s")
	assert.True(t, apperrors.IsKind(err, apperrors.PersistenceFailure))
	assert.True(t, apperrors.IsKind(store.Delete(ctx, "s"), apperrors.PersistenceFailure))
}
