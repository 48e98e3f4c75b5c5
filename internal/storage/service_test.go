package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/choirbook/internal/database"
	"github.com/mrlokans/choirbook/internal/entities"
	"github.com/mrlokans/choirbook/internal/kvstore"
	"github.com/mrlokans/choirbook/internal/storage"
)

type backendFactory func(t *testing.T) storage.Backend

var backends = map[string]backendFactory{
	"sqlite": func(t *testing.T) storage.Backend {
		return database.NewBackend(database.Config{
			Path:     filepath.Join(t.TempDir(), "choir_app.db"),
			LogLevel: "silent",
		})
	},
	"kv": func(t *testing.T) storage.Backend {
		return kvstore.New(afero.NewMemMapFs(), "/data")
	},
}

func newService(t *testing.T, factory backendFactory) *storage.Service {
	t.Helper()
	svc := storage.NewService(factory(t))
	require.NoError(t, svc.Init(context.Background()))
	t.Cleanup(func() { svc.Close() })
	return svc
}

func forEachBackend(t *testing.T, fn func(t *testing.T, svc *storage.Service)) {
	for name, factory := range backends {
		t.Run(name, func(t *testing.T) {
			fn(t, newService(t, factory))
		})
	}
}

func countOf(t *testing.T, svc *storage.Service, name string) int {
	t.Helper()
	categories, err := svc.LoadCategories(context.Background())
	require.NoError(t, err)
	for _, c := range categories {
		if c.Name == name {
			return c.SongCount
		}
	}
	t.Fatalf("category %q not found", name)
	return 0
}

func TestService_NotInitialized(t *testing.T) {
	svc := storage.NewService(kvstore.New(afero.NewMemMapFs(), "/data"))
	ctx := context.Background()

	_, err := svc.LoadSongs(ctx)
	assert.ErrorIs(t, err, storage.ErrNotInitialized)

	_, err = svc.AddSong(ctx, entities.Song{Title: "Early"})
	assert.ErrorIs(t, err, storage.ErrNotInitialized)

	assert.ErrorIs(t, svc.ResetAllData(ctx), storage.ErrNotInitialized)
}

func TestService_NoBackend(t *testing.T) {
	err := storage.NewService(nil).Init(context.Background())
	assert.ErrorIs(t, err, storage.ErrBackendUnavailable)
}

func TestService_HymnsScenario(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *storage.Service) {
		ctx := context.Background()

		hymns, err := svc.AddCategory(ctx, entities.Category{Name: "Hymns", Color: "#8B5CF6"})
		require.NoError(t, err)
		assert.NotEmpty(t, hymns.ID)
		assert.False(t, hymns.DateCreated.IsZero())

		song, err := svc.AddSong(ctx, entities.Song{Title: "Amazing Grace", Lyrics: "Amazing grace, how sweet the sound", Category: "Hymns"})
		require.NoError(t, err)
		assert.Equal(t, hymns.ID, song.Category)

		require.NoError(t, svc.RecomputeCategoryCounts(ctx))
		assert.Equal(t, 1, countOf(t, svc, "Hymns"))

		songs, err := svc.LoadSongs(ctx)
		require.NoError(t, err)
		require.Len(t, songs, 1)
		assert.Equal(t, "Amazing Grace", songs[0].Title)
	})
}

func TestService_AddSongPrependsAndRecounts(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *storage.Service) {
		ctx := context.Background()

		_, err := svc.AddCategory(ctx, entities.Category{Name: "Anthems", Color: "#06B6D4"})
		require.NoError(t, err)

		first, err := svc.AddSong(ctx, entities.Song{Title: "First", Category: "anthems", DateAdded: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
		require.NoError(t, err)
		second, err := svc.AddSong(ctx, entities.Song{Title: "Second", Category: "Anthems", DateAdded: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)})
		require.NoError(t, err)

		songs, err := svc.LoadSongs(ctx)
		require.NoError(t, err)
		require.Len(t, songs, 2)
		assert.Equal(t, second.ID, songs[0].ID)
		assert.Equal(t, first.ID, songs[1].ID)
		assert.Equal(t, 2, countOf(t, svc, "Anthems"))
	})
}

func TestService_Uncategorized(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *storage.Service) {
		ctx := context.Background()

		_, err := svc.AddCategory(ctx, entities.Category{Name: "Hymns", Color: "#8B5CF6"})
		require.NoError(t, err)

		song, err := svc.AddSong(ctx, entities.Song{Title: "Loose Leaf", Category: "  "})
		require.NoError(t, err)
		assert.Equal(t, entities.UncategorizedLabel, song.Category)
		assert.Equal(t, 0, countOf(t, svc, "Hymns"))

		_, err = svc.AddCategory(ctx, entities.Category{Name: entities.UncategorizedLabel, Color: "#000000"})
		require.NoError(t, err)
		assert.Equal(t, 0, countOf(t, svc, entities.UncategorizedLabel))
	})
}

func TestService_CountsMatchIDOrName(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *storage.Service) {
		ctx := context.Background()

		created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, svc.SaveCategories(ctx, []entities.Category{
			{ID: "c1", Name: "Bati", Color: "#F97316", DateCreated: created},
			{ID: "c2", Name: "Anchi Hoye", Color: "#3B82F6", DateCreated: created},
		}))
		require.NoError(t, svc.SaveSongs(ctx, []entities.Song{
			{ID: "s1", Title: "By id", Category: "c1", DateAdded: created},
			{ID: "s2", Title: "By name", Category: "Bati", DateAdded: created.Add(time.Hour)},
			{ID: "s3", Title: "Unknown", Category: "Jazz", DateAdded: created.Add(2 * time.Hour)},
		}))

		require.NoError(t, svc.RecomputeCategoryCounts(ctx))
		assert.Equal(t, 2, countOf(t, svc, "Bati"))
		assert.Equal(t, 0, countOf(t, svc, "Anchi Hoye"))

		require.NoError(t, svc.RecomputeCategoryCounts(ctx))
		assert.Equal(t, 2, countOf(t, svc, "Bati"))
	})
}

func TestService_UpdateAndDeleteSong(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *storage.Service) {
		ctx := context.Background()

		hymns, err := svc.AddCategory(ctx, entities.Category{Name: "Hymns", Color: "#8B5CF6"})
		require.NoError(t, err)
		anthems, err := svc.AddCategory(ctx, entities.Category{Name: "Anthems", Color: "#06B6D4"})
		require.NoError(t, err)

		song, err := svc.AddSong(ctx, entities.Song{Title: "Draft", Category: hymns.ID})
		require.NoError(t, err)

		updated, err := svc.UpdateSong(ctx, song.ID, func(s *entities.Song) {
			s.Title = "Final"
			s.Category = "Anthems"
			s.ID = "ignored"
		})
		require.NoError(t, err)
		assert.Equal(t, song.ID, updated.ID)
		assert.Equal(t, anthems.ID, updated.Category)
		assert.Equal(t, 0, countOf(t, svc, "Hymns"))
		assert.Equal(t, 1, countOf(t, svc, "Anthems"))

		toggled, err := svc.ToggleFavorite(ctx, song.ID)
		require.NoError(t, err)
		assert.True(t, toggled.IsFavorite)

		got, err := svc.GetSong(ctx, song.ID)
		require.NoError(t, err)
		assert.Equal(t, "Final", got.Title)
		assert.True(t, got.IsFavorite)

		require.NoError(t, svc.DeleteSong(ctx, song.ID))
		assert.Equal(t, 0, countOf(t, svc, "Anthems"))

		_, err = svc.GetSong(ctx, song.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.ErrorIs(t, svc.DeleteSong(ctx, song.ID), storage.ErrNotFound)
		_, err = svc.UpdateSong(ctx, "missing", func(*entities.Song) {})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestService_MembersAndChoirs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *storage.Service) {
		ctx := context.Background()

		first, err := svc.AddMember(ctx, entities.Member{Name: "Ruth", VoicePart: entities.VoicePartAlto, DateAdded: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
		require.NoError(t, err)
		second, err := svc.AddMember(ctx, entities.Member{Name: "Abel", VoicePart: entities.VoicePartBass})
		require.NoError(t, err)

		members, err := svc.LoadMembers(ctx)
		require.NoError(t, err)
		require.Len(t, members, 2)
		assert.Equal(t, second.ID, members[0].ID)

		_, err = svc.UpdateMember(ctx, first.ID, func(m *entities.Member) { m.Notes = "section lead" })
		require.NoError(t, err)
		got, err := svc.GetMember(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "section lead", got.Notes)

		choir, err := svc.AddChoir(ctx, entities.Choir{Name: "Sunday", Type: entities.ChoirTypeA})
		require.NoError(t, err)
		assert.Equal(t, []string{}, choir.Members)

		_, err = svc.UpdateChoir(ctx, choir.ID, func(c *entities.Choir) {
			c.Members = append(c.Members, first.ID, second.ID)
		})
		require.NoError(t, err)
		stored, err := svc.GetChoir(ctx, choir.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{first.ID, second.ID}, stored.Members)

		require.NoError(t, svc.DeleteMember(ctx, second.ID))
		require.NoError(t, svc.DeleteChoir(ctx, choir.ID))
		assert.ErrorIs(t, svc.DeleteChoir(ctx, choir.ID), storage.ErrNotFound)

		members, err = svc.LoadMembers(ctx)
		require.NoError(t, err)
		assert.Len(t, members, 1)
	})
}

func TestService_UpdateAndDeleteCategory(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *storage.Service) {
		ctx := context.Background()

		category, err := svc.AddCategory(ctx, entities.Category{Name: "Hymns", Color: "#8B5CF6"})
		require.NoError(t, err)

		updated, err := svc.UpdateCategory(ctx, category.ID, func(c *entities.Category) { c.Color = "#10B981" })
		require.NoError(t, err)
		assert.Equal(t, "#10B981", updated.Color)

		require.NoError(t, svc.DeleteCategory(ctx, category.ID))
		_, err = svc.GetCategory(ctx, category.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestService_CategoryNamesAreUnique(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *storage.Service) {
		ctx := context.Background()

		hymns, err := svc.AddCategory(ctx, entities.Category{Name: "Hymns", Color: "#8B5CF6"})
		require.NoError(t, err)
		anthems, err := svc.AddCategory(ctx, entities.Category{Name: "Anthems", Color: "#06B6D4"})
		require.NoError(t, err)

		_, err = svc.AddCategory(ctx, entities.Category{Name: "hymns", Color: "#000000"})
		assert.ErrorIs(t, err, storage.ErrDuplicateName)

		_, err = svc.UpdateCategory(ctx, anthems.ID, func(c *entities.Category) { c.Name = " HYMNS " })
		assert.ErrorIs(t, err, storage.ErrDuplicateName)

		renamed, err := svc.UpdateCategory(ctx, hymns.ID, func(c *entities.Category) { c.Name = "hymns" })
		require.NoError(t, err)
		assert.Equal(t, "hymns", renamed.Name)

		categories, err := svc.LoadCategories(ctx)
		require.NoError(t, err)
		require.Len(t, categories, 2)
		assert.Equal(t, 0, countOf(t, svc, "hymns"))
	})
}

func TestService_ConcurrentCategoryAddsKeepOneName(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *storage.Service) {
		ctx := context.Background()

		var wg sync.WaitGroup
		errs := make([]error, 8)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = svc.AddCategory(ctx, entities.Category{Name: "Gospel", Color: "#10B981"})
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, storage.ErrDuplicateName)
		}
		assert.Equal(t, 1, succeeded)

		categories, err := svc.LoadCategories(ctx)
		require.NoError(t, err)
		assert.Len(t, categories, 1)
	})
}

func TestService_Settings(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *storage.Service) {
		ctx := context.Background()

		settings, err := svc.LoadSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, entities.DefaultSettings(), settings)

		settings.FontSize = 22
		require.NoError(t, svc.SaveSettings(ctx, settings))

		got, err := svc.LoadSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, 22, got.FontSize)
	})
}

func TestService_UpdateSettingsMergesConcurrentChanges(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *storage.Service) {
		ctx := context.Background()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.UpdateSettings(ctx, func(s *entities.AppSettings) { s.FontSize = 30 })
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := svc.UpdateSettings(ctx, func(s *entities.AppSettings) { s.IsDarkMode = true })
			assert.NoError(t, err)
		}()
		wg.Wait()

		got, err := svc.LoadSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, 30, got.FontSize)
		assert.True(t, got.IsDarkMode)
		assert.Equal(t, entities.DefaultSettings().FontFamily, got.FontFamily)
	})
}

func TestService_VerseRotation(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *storage.Service) {
		ctx := context.Background()

		rotate, err := svc.ShouldRotateVerse(ctx, entities.VerseRotationDaily)
		require.NoError(t, err)
		assert.True(t, rotate)

		require.NoError(t, svc.UpdateLastVerseDate(ctx))

		rotate, err = svc.ShouldRotateVerse(ctx, entities.VerseRotationWeekly)
		require.NoError(t, err)
		assert.False(t, rotate)

		rotate, err = svc.ShouldRotateVerse(ctx, entities.VerseRotationOnAppOpen)
		require.NoError(t, err)
		assert.True(t, rotate)
	})
}

func TestService_ExportImportRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *storage.Service) {
		ctx := context.Background()

		_, err := svc.AddCategory(ctx, entities.Category{Name: "Hymns", Color: "#8B5CF6"})
		require.NoError(t, err)
		_, err = svc.AddSong(ctx, entities.Song{Title: "Amazing Grace", Category: "Hymns", AudioFile: &entities.AudioFile{URI: "media/a.mp3", Name: "a.mp3", Size: 10}})
		require.NoError(t, err)
		member, err := svc.AddMember(ctx, entities.Member{Name: "Ruth", VoicePart: entities.VoicePartSoprano})
		require.NoError(t, err)
		_, err = svc.AddChoir(ctx, entities.Choir{Name: "Sunday", Type: entities.ChoirTypeB, Members: []string{member.ID}})
		require.NoError(t, err)

		before, err := svc.Snapshot(ctx)
		require.NoError(t, err)

		data, err := svc.ExportData(ctx)
		require.NoError(t, err)
		assert.Contains(t, string(data), "\n  \"songs\": [")
		assert.Contains(t, string(data), "\"exportDate\"")

		require.NoError(t, svc.ResetAllData(ctx))
		empty, err := svc.LoadSongs(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty)

		result, err := svc.ImportData(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Songs)
		assert.True(t, result.Settings)
		assert.Equal(t, []string{"songs", "members", "choirs", "settings", "categories"}, result.Replaced())

		after, err := svc.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, before.Songs, after.Songs)
		assert.Equal(t, before.Members, after.Members)
		assert.Equal(t, before.Choirs, after.Choirs)
		assert.Equal(t, before.Categories, after.Categories)
		assert.Equal(t, before.Settings, after.Settings)
	})
}

func TestService_ImportPartialAndMalformed(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *storage.Service) {
		ctx := context.Background()

		member, err := svc.AddMember(ctx, entities.Member{Name: "Ruth", VoicePart: entities.VoicePartAlto})
		require.NoError(t, err)

		result, err := svc.ImportData(ctx, []byte(`{"songs":[{"id":"s1","title":"Imported","lyrics":"","category":"Uncategorized","dateAdded":"2024-02-01T10:00:00.000Z","isFavorite":false}]}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"songs"}, result.Replaced())

		songs, err := svc.LoadSongs(ctx)
		require.NoError(t, err)
		require.Len(t, songs, 1)
		assert.Equal(t, "Imported", songs[0].Title)

		members, err := svc.LoadMembers(ctx)
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, member.ID, members[0].ID)

		_, err = svc.ImportData(ctx, []byte(`{"songs": [`))
		assert.ErrorIs(t, err, storage.ErrInvalidDocument)
		songs, err = svc.LoadSongs(ctx)
		require.NoError(t, err)
		assert.Len(t, songs, 1)

		_, err = svc.ImportData(ctx, []byte(`{"members": []}`))
		require.NoError(t, err)
		members, err = svc.LoadMembers(ctx)
		require.NoError(t, err)
		assert.Empty(t, members)
	})
}

func TestService_Stats(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *storage.Service) {
		ctx := context.Background()

		_, err := svc.AddSong(ctx, entities.Song{Title: "A", IsFavorite: true})
		require.NoError(t, err)
		_, err = svc.AddSong(ctx, entities.Song{Title: "B", AudioFile: &entities.AudioFile{URI: "b.wav", Name: "b.wav"}})
		require.NoError(t, err)
		_, err = svc.AddMember(ctx, entities.Member{Name: "Ruth", VoicePart: entities.VoicePartAlto})
		require.NoError(t, err)

		stats, err := svc.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Songs)
		assert.Equal(t, 1, stats.Favorites)
		assert.Equal(t, 1, stats.WithAudio)
		assert.Equal(t, 1, stats.Members)
		assert.Equal(t, 1, stats.VoiceParts[entities.VoicePartAlto])
		assert.Equal(t, 0, stats.VoiceParts[entities.VoicePartBass])
	})
}

// failingBackend fails every read and write after Init.
type failingBackend struct {
	storage.Backend
	err error
}

func (f failingBackend) Name() string               { return "failing" }
func (f failingBackend) Init(context.Context) error { return nil }
func (f failingBackend) Close() error               { return nil }

func (f failingBackend) LoadSongs(context.Context) ([]entities.Song, error) {
	return nil, f.err
}
func (f failingBackend) SaveSongs(context.Context, []entities.Song) error { return f.err }
func (f failingBackend) LoadCategories(context.Context) ([]entities.Category, error) {
	return nil, f.err
}
func (f failingBackend) LoadSettings(context.Context) (*entities.AppSettings, error) {
	return nil, f.err
}
func (f failingBackend) LastVerseDate(context.Context) (*time.Time, error) {
	return nil, f.err
}

func TestService_ReadFailuresDegradeWriteFailuresReturn(t *testing.T) {
	boom := errors.New("disk on fire")
	svc := storage.NewService(failingBackend{err: boom})
	ctx := context.Background()
	require.NoError(t, svc.Init(ctx))

	songs, err := svc.LoadSongs(ctx)
	require.NoError(t, err)
	assert.NotNil(t, songs)
	assert.Empty(t, songs)

	settings, err := svc.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultSettings(), settings)

	rotate, err := svc.ShouldRotateVerse(ctx, entities.VerseRotationWeekly)
	require.NoError(t, err)
	assert.True(t, rotate)

	_, err = svc.AddSong(ctx, entities.Song{Title: "Lost"})
	assert.ErrorIs(t, err, boom)
}
