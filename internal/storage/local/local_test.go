package local_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArnabMallick12/Video-Editor/internal/apperr"
	"github.com/ArnabMallick12/Video-Editor/internal/storage/local"
)

func newStore(t *testing.T) *local.Store {
	t.Helper()
	store, err := local.New(filepath.Join(t.TempDir(), "artifacts"), "http://localhost:8080/files", nil)
	require.NoError(t, err)
	return store
}

func TestUpload_WritesAndReturnsURL(t *testing.T) {
	store := newStore(t)

	url, err := store.Upload(context.Background(), "processed/a.mp4", strings.NewReader("video"), 5, "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/processed/a.mp4", url)

	got, err := os.ReadFile(filepath.Join(store.Dir(), "processed", "a.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "video", string(got))
}

func TestUpload_Overwrites(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.Upload(ctx, "processed/a.mp4", strings.NewReader("first"), 5, "video/mp4")
	require.NoError(t, err)
	_, err = store.Upload(ctx, "processed/a.mp4", strings.NewReader("second"), 6, "video/mp4")
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(store.Dir(), "processed", "a.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	entries, err := os.ReadDir(filepath.Join(store.Dir(), "processed"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestUpload_RejectsEscapingKey(t *testing.T) {
	store := newStore(t)

	_, err := store.Upload(context.Background(), "../outside.mp4", strings.NewReader("x"), 1, "video/mp4")
	require.Error(t, err)
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
}

func TestUpload_SizeMismatch(t *testing.T) {
	store := newStore(t)

	_, err := store.Upload(context.Background(), "processed/short.mp4", strings.NewReader("abc"), 10, "video/mp4")
	require.Error(t, err)
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
	assert.NoFileExists(t, filepath.Join(store.Dir(), "processed", "short.mp4"))
}

func TestUpload_CancelledContext(t *testing.T) {
	store := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Upload(ctx, "processed/a.mp4", strings.NewReader("x"), 1, "video/mp4")
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
}
