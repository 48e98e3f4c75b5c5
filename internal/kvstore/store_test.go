package kvstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/choirbook/internal/entities"
	"github.com/mrlokans/choirbook/internal/storage"
	"github.com/mrlokans/choirbook/internal/storage/storagetest"
)

func TestStore_MemFs(t *testing.T) {
	storagetest.RunBackendSuite(t, func(t *testing.T) storage.Backend {
		return New(afero.NewMemMapFs(), "/data")
	})
}

func TestStore_OsFs(t *testing.T) {
	storagetest.RunBackendSuite(t, func(t *testing.T) storage.Backend {
		return NewOsStore(filepath.Join(t.TempDir(), "choir_app_data"))
	})
}

func TestStore_InitReadOnlyFs(t *testing.T) {
	store := New(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/data")

	err := store.Init(context.Background())

	assert.True(t, errors.Is(err, storage.ErrBackendUnavailable), "got %v", err)
}

func TestStore_BlobLayout(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := New(fsys, "/data")
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))

	require.NoError(t, store.SaveCategories(ctx, []entities.Category{
		{ID: "c1", Name: "Hymns", Color: "#8B5CF6", DateCreated: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}))

	data, err := afero.ReadFile(fsys, "/data/choir_app_categories.json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"c1","name":"Hymns","color":"#8B5CF6","songCount":0,"dateCreated":"2024-01-01T00:00:00Z"}]`, string(data))

	exists, err := afero.Exists(fsys, "/data/choir_app_categories.json.tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_CorruptBlob(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := New(fsys, "/data")
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))

	require.NoError(t, afero.WriteFile(fsys, "/data/choir_app_songs.json", []byte("{not json"), 0o644))

	_, err := store.LoadSongs(ctx)
	assert.Error(t, err)
}

func TestStore_EmptyCollectionWritesArray(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := New(fsys, "/data")
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))

	require.NoError(t, store.SaveMembers(ctx, nil))

	data, err := afero.ReadFile(fsys, "/data/choir_app_members.json")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
