package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/choirbook/internal/audio"
	"github.com/mrlokans/choirbook/internal/entities"
	"github.com/mrlokans/choirbook/internal/events"
	"github.com/mrlokans/choirbook/internal/storage"
	"github.com/mrlokans/choirbook/internal/verses"
)

type SongsController struct {
	store    SongStore
	bus      Publisher
	mediaDir string
}

func NewSongsController(store SongStore, bus Publisher, mediaDir string) *SongsController {
	if bus == nil {
		bus = noopPublisher{}
	}
	return &SongsController{store: store, bus: bus, mediaDir: mediaDir}
}

type songRequest struct {
	Title    *string `json:"title"`
	Lyrics   *string `json:"lyrics"`
	Category *string `json:"category"`
	Composer *string `json:"composer"`
}

// ListSongs returns songs filtered by title and category.
// GET /api/songs?q=&sort=recent|alphabetical&category=
func (sc *SongsController) ListSongs(c *gin.Context) {
	ctx := c.Request.Context()
	songs, err := sc.store.LoadSongs(ctx)
	if err != nil {
		respondStoreError(c, err, "songs", "list songs")
		return
	}

	if value := strings.TrimSpace(c.Query("category")); value != "" {
		categories, err := sc.store.LoadCategories(ctx)
		if err != nil {
			respondStoreError(c, err, "categories", "list songs")
			return
		}
		category, ok := storage.FindCategory(categories, value)
		if !ok {
			category = &entities.Category{ID: value, Name: value}
		}
		songs = storage.SongsInCategory(songs, *category, "")
	}

	songs = storage.SearchSongs(songs, c.Query("q"))
	c.JSON(http.StatusOK, storage.SortSongs(songs, storage.ParseSongSort(c.Query("sort"))))
}

// GetSong returns one song
// GET /api/songs/:id
func (sc *SongsController) GetSong(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	song, err := sc.store.GetSong(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "song", "get song")
		return
	}
	c.JSON(http.StatusOK, song)
}

// CreateSong adds a song to the top of the library
// POST /api/songs
func (sc *SongsController) CreateSong(c *gin.Context) {
	var req songRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		respondBadRequest(c, "title is required")
		return
	}

	song := entities.Song{}
	req.apply(&song)

	created, err := sc.store.AddSong(c.Request.Context(), song)
	if err != nil {
		respondStoreError(c, err, "song", "create song")
		return
	}
	sc.bus.Emit(events.SongsAdded, created)
	respondCreated(c, created)
}

// UpdateSong changes the fields present in the body
// PUT /api/songs/:id
func (sc *SongsController) UpdateSong(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req songRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		respondBadRequest(c, "title cannot be empty")
		return
	}

	updated, err := sc.store.UpdateSong(c.Request.Context(), id, req.apply)
	if err != nil {
		respondStoreError(c, err, "song", "update song")
		return
	}
	sc.bus.Emit(events.SongsUpdated, updated)
	c.JSON(http.StatusOK, updated)
}

func (r songRequest) apply(song *entities.Song) {
	if r.Title != nil {
		song.Title = strings.TrimSpace(*r.Title)
	}
	if r.Lyrics != nil {
		song.Lyrics = *r.Lyrics
	}
	if r.Category != nil {
		song.Category = *r.Category
	}
	if r.Composer != nil {
		song.Composer = strings.TrimSpace(*r.Composer)
	}
}

// DeleteSong removes a song
// DELETE /api/songs/:id
func (sc *SongsController) DeleteSong(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := sc.store.DeleteSong(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "song", "delete song")
		return
	}
	sc.bus.Emit(events.SongsDeleted, gin.H{"id": id})
	respondSuccess(c, "song deleted")
}

// ToggleFavorite flips the favorite flag
// POST /api/songs/:id/favorite
func (sc *SongsController) ToggleFavorite(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	song, err := sc.store.ToggleFavorite(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "song", "toggle favorite")
		return
	}
	sc.bus.Emit(events.SongsUpdated, song)
	c.JSON(http.StatusOK, song)
}

// GetVerses returns the lyrics split into stanzas
// GET /api/songs/:id/verses
func (sc *SongsController) GetVerses(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	song, err := sc.store.GetSong(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "song", "get verses")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":     song.ID,
		"title":  song.Title,
		"verses": verses.SplitVerses(song.Lyrics),
	})
}

// UploadAudio attaches an audio file to a song
// POST /api/songs/:id/audio (multipart field "file")
func (sc *SongsController) UploadAudio(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := sc.store.GetSong(ctx, id); err != nil {
		respondStoreError(c, err, "song", "upload audio")
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, "file is required")
		return
	}
	src, err := header.Open()
	if err != nil {
		respondInternalError(c, err, "open uploaded audio")
		return
	}
	defer src.Close()

	file, err := audio.Store(sc.mediaDir, id, header.Filename, src)
	if errors.Is(err, audio.ErrUnsupportedFormat) {
		respondError(c, http.StatusUnsupportedMediaType, "unsupported_format", err.Error())
		return
	}
	if errors.Is(err, audio.ErrInvalidSongID) {
		respondBadRequest(c, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, err, "store audio")
		return
	}

	song, err := sc.store.UpdateSong(ctx, id, func(s *entities.Song) {
		s.AudioFile = file
	})
	if err != nil {
		respondStoreError(c, err, "song", "attach audio")
		return
	}
	sc.bus.Emit(events.SongsUpdated, song)
	c.JSON(http.StatusOK, song)
}
