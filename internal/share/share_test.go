package share

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videosummary/internal/apperrors"
	"videosummary/models"
)

func TestStore_SaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "shared")
	store := NewStore(dir, nil)

	snap := models.ShareSnapshot{
		ID:                "vid-1",
		Title:             "Talk",
		VideoType:         "youtube",
		OriginalSubtitles: []models.Subtitle{{Index: 0, StartTime: 0, End: 1, Text: "hi"}},
		Brief:             "- a",
	}
	id, err := store.Save(snap)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, id+".json"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "\n  \"id\": \"vid-1\""), "pretty printed with two spaces")

	got, err := store.Load(id)
	require.NoError(t, err)
	assert.Equal(t, snap.Title, got.Title)
	assert.Equal(t, snap.OriginalSubtitles, got.OriginalSubtitles)

	entries, _ := os.ReadDir(dir)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestStore_LoadErrors(t *testing.T) {
	store := NewStore(t.TempDir(), nil)

	_, err := store.Load("")
	assert.True(t, apperrors.IsKind(err, apperrors.InvalidInput))

	_, err = store.Load("../../etc/passwd")
	assert.True(t, apperrors.IsKind(err, apperrors.InvalidInput))

	_, err = store.Load("2f1c1a52-3c0e-4a8b-9d55-0c6f3f3f2a11")
	assert.True(t, apperrors.IsKind(err, apperrors.NotFound))
}
