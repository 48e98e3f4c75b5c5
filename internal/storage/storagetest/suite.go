// Package storagetest holds the behavioural suite every storage.Backend must
// pass. Backend packages call RunBackendSuite from their own tests.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/choirbook/internal/entities"
	"github.com/mrlokans/choirbook/internal/storage"
)

// Factory returns a fresh, uninitialized backend.
type Factory func(t *testing.T) storage.Backend

var base = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return base.Add(time.Duration(n) * 24 * time.Hour)
}

func open(t *testing.T, factory Factory) storage.Backend {
	t.Helper()
	backend := factory(t)
	require.NoError(t, backend.Init(context.Background()))
	t.Cleanup(func() { backend.Close() })
	return backend
}

func RunBackendSuite(t *testing.T, factory Factory) {
	t.Run("uninitialized backend refuses work", func(t *testing.T) {
		backend := factory(t)
		err := backend.SaveSongs(context.Background(), []entities.Song{{ID: "x", Title: "x"}})
		assert.True(t, errors.Is(err, storage.ErrNotInitialized), "got %v", err)
	})

	t.Run("init is repeatable", func(t *testing.T) {
		backend := open(t, factory)
		assert.NoError(t, backend.Init(context.Background()))
		assert.NoError(t, backend.Ping(context.Background()))
		assert.NotEmpty(t, backend.Name())
	})

	t.Run("empty store", func(t *testing.T) {
		backend := open(t, factory)
		ctx := context.Background()

		songs, err := backend.LoadSongs(ctx)
		require.NoError(t, err)
		assert.Empty(t, songs)

		members, err := backend.LoadMembers(ctx)
		require.NoError(t, err)
		assert.Empty(t, members)

		categories, err := backend.LoadCategories(ctx)
		require.NoError(t, err)
		assert.Empty(t, categories)

		choirs, err := backend.LoadChoirs(ctx)
		require.NoError(t, err)
		assert.Empty(t, choirs)

		settings, err := backend.LoadSettings(ctx)
		require.NoError(t, err)
		assert.Nil(t, settings)

		last, err := backend.LastVerseDate(ctx)
		require.NoError(t, err)
		assert.Nil(t, last)
	})

	t.Run("songs newest first with audio", func(t *testing.T) {
		backend := open(t, factory)
		ctx := context.Background()

		older := entities.Song{ID: "s1", Title: "Amazing Grace", Lyrics: "Amazing grace", Category: "c1", DateAdded: day(0)}
		newer := entities.Song{
			ID: "s2", Title: "Be Thou My Vision", Lyrics: "Be thou my vision", Category: entities.UncategorizedLabel,
			Composer: "Traditional", DateAdded: day(2), IsFavorite: true,
			AudioFile: &entities.AudioFile{URI: "media/s2.mp3", Name: "s2.mp3", Size: 2048, MimeType: "audio/mpeg", DurationMs: 183000},
		}

		require.NoError(t, backend.SaveSongs(ctx, []entities.Song{older, newer}))

		got, err := backend.LoadSongs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []entities.Song{newer, older}, got)
	})

	t.Run("save replaces the collection", func(t *testing.T) {
		backend := open(t, factory)
		ctx := context.Background()

		require.NoError(t, backend.SaveSongs(ctx, []entities.Song{
			{ID: "a", Title: "A", DateAdded: day(0)},
			{ID: "b", Title: "B", DateAdded: day(1)},
		}))
		require.NoError(t, backend.SaveSongs(ctx, []entities.Song{{ID: "c", Title: "C", DateAdded: day(2)}}))

		got, err := backend.LoadSongs(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "c", got[0].ID)

		require.NoError(t, backend.SaveSongs(ctx, []entities.Song{}))
		got, err = backend.LoadSongs(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("members", func(t *testing.T) {
		backend := open(t, factory)
		ctx := context.Background()

		alto := entities.Member{ID: "m1", Name: "Ruth", VoicePart: entities.VoicePartAlto, Email: "ruth@example.com", DateAdded: day(0)}
		bass := entities.Member{ID: "m2", Name: "Abel", VoicePart: entities.VoicePartBass, Phone: "555-0101", Notes: "section lead", DateAdded: day(1)}

		require.NoError(t, backend.SaveMembers(ctx, []entities.Member{alto, bass}))

		got, err := backend.LoadMembers(ctx)
		require.NoError(t, err)
		assert.Equal(t, []entities.Member{bass, alto}, got)
	})

	t.Run("categories by name", func(t *testing.T) {
		backend := open(t, factory)
		ctx := context.Background()

		hymns := entities.Category{ID: "c1", Name: "Hymns", Color: "#8B5CF6", SongCount: 2, DateCreated: day(0)}
		anthems := entities.Category{ID: "c2", Name: "Anthems", Color: "#06B6D4", DateCreated: day(1)}

		require.NoError(t, backend.SaveCategories(ctx, []entities.Category{hymns, anthems}))

		got, err := backend.LoadCategories(ctx)
		require.NoError(t, err)
		assert.Equal(t, []entities.Category{anthems, hymns}, got)
	})

	t.Run("choirs keep member lists", func(t *testing.T) {
		backend := open(t, factory)
		ctx := context.Background()

		first := entities.Choir{ID: "k1", Name: "Sunday", Type: entities.ChoirTypeA, Members: []string{"m1", "m2"}, DateCreated: day(0)}
		second := entities.Choir{ID: "k2", Name: "Youth", Type: entities.ChoirTypeC, Members: []string{}, DateCreated: day(3)}

		require.NoError(t, backend.SaveChoirs(ctx, []entities.Choir{first, second}))

		got, err := backend.LoadChoirs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []entities.Choir{second, first}, got)
	})

	t.Run("settings singleton", func(t *testing.T) {
		backend := open(t, factory)
		ctx := context.Background()

		want := entities.DefaultSettings()
		want.FontFamily = "Georgia"
		want.IsDarkMode = true
		require.NoError(t, backend.SaveSettings(ctx, entities.DefaultSettings()))
		require.NoError(t, backend.SaveSettings(ctx, want))

		got, err := backend.LoadSettings(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want, *got)
	})

	t.Run("last verse date", func(t *testing.T) {
		backend := open(t, factory)
		ctx := context.Background()

		require.NoError(t, backend.SetLastVerseDate(ctx, day(0)))
		require.NoError(t, backend.SetLastVerseDate(ctx, day(1)))

		got, err := backend.LastVerseDate(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, day(1).Equal(*got), "got %v", got)
	})

	t.Run("reset keeps settings", func(t *testing.T) {
		backend := open(t, factory)
		ctx := context.Background()

		require.NoError(t, backend.SaveSongs(ctx, []entities.Song{{ID: "s", Title: "S", DateAdded: day(0)}}))
		require.NoError(t, backend.SaveMembers(ctx, []entities.Member{{ID: "m", Name: "M", VoicePart: entities.VoicePartTenor, DateAdded: day(0)}}))
		require.NoError(t, backend.SaveCategories(ctx, []entities.Category{{ID: "c", Name: "C", Color: "#000000", DateCreated: day(0)}}))
		require.NoError(t, backend.SaveChoirs(ctx, []entities.Choir{{ID: "k", Name: "K", Type: entities.ChoirTypeB, Members: []string{"m"}, DateCreated: day(0)}}))
		require.NoError(t, backend.SaveSettings(ctx, entities.DefaultSettings()))

		require.NoError(t, backend.Reset(ctx))

		songs, _ := backend.LoadSongs(ctx)
		members, _ := backend.LoadMembers(ctx)
		categories, _ := backend.LoadCategories(ctx)
		choirs, _ := backend.LoadChoirs(ctx)
		assert.Empty(t, songs)
		assert.Empty(t, members)
		assert.Empty(t, categories)
		assert.Empty(t, choirs)

		settings, err := backend.LoadSettings(ctx)
		require.NoError(t, err)
		assert.NotNil(t, settings)
	})
}
