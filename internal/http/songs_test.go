package http

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/choirbook/internal/entities"
	"github.com/mrlokans/choirbook/internal/events"
	"github.com/mrlokans/choirbook/internal/storage"
)

type songsFixture struct {
	library *storage.Service
	bus     *events.Bus
	log     *eventLog
	router  http.Handler
	media   string
}

func setupSongs(t *testing.T) *songsFixture {
	t.Helper()
	f := &songsFixture{
		library: newTestLibrary(t),
		bus:     events.NewBus(),
		media:   filepath.Join(t.TempDir(), "media"),
	}
	f.log = recordEvents(f.bus)
	f.router = NewRouter(RouterConfig{Library: f.library, Bus: f.bus, MediaDir: f.media})
	return f
}

func TestSongsController_CreateSong(t *testing.T) {
	t.Run("requires a title", func(t *testing.T) {
		f := setupSongs(t)

		w := doJSON(t, f.router, "POST", "/api/songs", map[string]string{"lyrics": "la la"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "title is required")
		assert.Empty(t, f.log.names())
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		f := setupSongs(t)

		w := doJSON(t, f.router, "POST", "/api/songs", "{not json")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("stores the category id and emits songs:added", func(t *testing.T) {
		f := setupSongs(t)
		ctx := context.Background()
		hymns, err := f.library.AddCategory(ctx, entities.Category{Name: "Hymns", Color: "#8B5CF6"})
		require.NoError(t, err)

		w := doJSON(t, f.router, "POST", "/api/songs", map[string]string{
			"title":    "Amazing Grace",
			"lyrics":   "Amazing grace, how sweet the sound",
			"category": "Hymns",
		})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		song := decode[entities.Song](t, w)
		assert.NotEmpty(t, song.ID)
		assert.Equal(t, hymns.ID, song.Category)
		assert.Equal(t, []string{events.SongsAdded}, f.log.names())

		cat, err := f.library.GetCategory(ctx, hymns.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, cat.SongCount)
	})

	t.Run("defaults to uncategorized", func(t *testing.T) {
		f := setupSongs(t)

		w := doJSON(t, f.router, "POST", "/api/songs", map[string]string{"title": "Untitled hymn"})

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, entities.UncategorizedLabel, decode[entities.Song](t, w).Category)
	})
}

func TestSongsController_ListSongs(t *testing.T) {
	f := setupSongs(t)
	ctx := context.Background()
	worship, err := f.library.AddCategory(ctx, entities.Category{Name: "Worship"})
	require.NoError(t, err)
	for _, s := range []entities.Song{
		{Title: "Blessed Assurance", Category: "Hymns"},
		{Title: "Cornerstone", Category: worship.ID},
		{Title: "amazing Love", Category: worship.ID},
	} {
		_, err := f.library.AddSong(ctx, s)
		require.NoError(t, err)
	}

	t.Run("returns every song newest first", func(t *testing.T) {
		w := doJSON(t, f.router, "GET", "/api/songs", nil)

		require.Equal(t, http.StatusOK, w.Code)
		songs := decode[[]entities.Song](t, w)
		require.Len(t, songs, 3)
		assert.Equal(t, "amazing Love", songs[0].Title)
	})

	t.Run("sorts alphabetically ignoring case", func(t *testing.T) {
		w := doJSON(t, f.router, "GET", "/api/songs?sort=alphabetical", nil)

		songs := decode[[]entities.Song](t, w)
		require.Len(t, songs, 3)
		assert.Equal(t, []string{"amazing Love", "Blessed Assurance", "Cornerstone"},
			[]string{songs[0].Title, songs[1].Title, songs[2].Title})
	})

	t.Run("searches titles", func(t *testing.T) {
		w := doJSON(t, f.router, "GET", "/api/songs?q=corner", nil)

		songs := decode[[]entities.Song](t, w)
		require.Len(t, songs, 1)
		assert.Equal(t, "Cornerstone", songs[0].Title)
	})

	t.Run("filters by category name", func(t *testing.T) {
		w := doJSON(t, f.router, "GET", "/api/songs?category=worship", nil)

		assert.Len(t, decode[[]entities.Song](t, w), 2)
	})

	t.Run("filters by an unknown literal category", func(t *testing.T) {
		w := doJSON(t, f.router, "GET", "/api/songs?category=Hymns", nil)

		songs := decode[[]entities.Song](t, w)
		require.Len(t, songs, 1)
		assert.Equal(t, "Blessed Assurance", songs[0].Title)
	})
}

func TestSongsController_GetUpdateDelete(t *testing.T) {
	f := setupSongs(t)
	ctx := context.Background()
	song, err := f.library.AddSong(ctx, entities.Song{Title: "How Great Thou Art", Composer: "Carl Boberg", Lyrics: "O Lord my God\n\nThen sings my soul"})
	require.NoError(t, err)

	t.Run("get unknown song is 404", func(t *testing.T) {
		w := doJSON(t, f.router, "GET", "/api/songs/missing", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "song not found")
	})

	t.Run("get returns the song", func(t *testing.T) {
		w := doJSON(t, f.router, "GET", "/api/songs/"+song.ID, nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "How Great Thou Art", decode[entities.Song](t, w).Title)
	})

	t.Run("update changes only present fields", func(t *testing.T) {
		w := doJSON(t, f.router, "PUT", "/api/songs/"+song.ID, map[string]string{"title": "How Great Thou Art (choir)"})

		require.Equal(t, http.StatusOK, w.Code)
		updated := decode[entities.Song](t, w)
		assert.Equal(t, "How Great Thou Art (choir)", updated.Title)
		assert.Equal(t, "Carl Boberg", updated.Composer)
		assert.Equal(t, song.ID, updated.ID)
	})

	t.Run("update rejects an empty title", func(t *testing.T) {
		w := doJSON(t, f.router, "PUT", "/api/songs/"+song.ID, map[string]string{"title": " "})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("verses split on blank lines", func(t *testing.T) {
		w := doJSON(t, f.router, "GET", "/api/songs/"+song.ID+"/verses", nil)

		require.Equal(t, http.StatusOK, w.Code)
		body := decode[struct {
			Verses []string `json:"verses"`
		}](t, w)
		assert.Equal(t, []string{"O Lord my God", "Then sings my soul"}, body.Verses)
	})

	t.Run("favorite toggles", func(t *testing.T) {
		w := doJSON(t, f.router, "POST", "/api/songs/"+song.ID+"/favorite", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decode[entities.Song](t, w).IsFavorite)

		w = doJSON(t, f.router, "POST", "/api/songs/"+song.ID+"/favorite", nil)
		assert.False(t, decode[entities.Song](t, w).IsFavorite)
	})

	t.Run("delete removes the song", func(t *testing.T) {
		w := doJSON(t, f.router, "DELETE", "/api/songs/"+song.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, f.router, "DELETE", "/api/songs/"+song.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, f.log.names(), events.SongsDeleted)
	})
}

func wavBytes(t *testing.T, sampleRate, samples int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	out, err := os.Create(path)
	require.NoError(t, err)
	enc := wav.NewEncoder(out, sampleRate, 16, 1, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Data:           make([]int, samples),
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, out.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func uploadRequest(t *testing.T, path, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSongsController_UploadAudio(t *testing.T) {
	t.Run("attaches a wav file", func(t *testing.T) {
		f := setupSongs(t)
		song, err := f.library.AddSong(context.Background(), entities.Song{Title: "Warm-up"})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, uploadRequest(t, "/api/songs/"+song.ID+"/audio", "file", "warmup.wav", wavBytes(t, 8000, 16000)))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		updated := decode[entities.Song](t, w)
		require.NotNil(t, updated.AudioFile)
		assert.Equal(t, "warmup.wav", updated.AudioFile.Name)
		assert.Equal(t, int64(2000), updated.AudioFile.DurationMs)
		assert.True(t, strings.HasPrefix(updated.AudioFile.URI, f.media))
		assert.FileExists(t, updated.AudioFile.URI)
	})

	t.Run("rejects non-audio uploads", func(t *testing.T) {
		f := setupSongs(t)
		song, err := f.library.AddSong(context.Background(), entities.Song{Title: "Warm-up"})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, uploadRequest(t, "/api/songs/"+song.ID+"/audio", "file", "notes.txt", []byte("just some notes")))

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
		stored, err := f.library.GetSong(context.Background(), song.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.AudioFile)
	})

	t.Run("requires the file field", func(t *testing.T) {
		f := setupSongs(t)
		song, err := f.library.AddSong(context.Background(), entities.Song{Title: "Warm-up"})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, uploadRequest(t, "/api/songs/"+song.ID+"/audio", "upload", "a.wav", wavBytes(t, 8000, 80)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown song is 404", func(t *testing.T) {
		f := setupSongs(t)

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, uploadRequest(t, "/api/songs/nope/audio", "file", "a.wav", wavBytes(t, 8000, 80)))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
