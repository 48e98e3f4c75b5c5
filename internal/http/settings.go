package http

import (
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/choirbook/internal/entities"
	"github.com/mrlokans/choirbook/internal/events"
	"github.com/mrlokans/choirbook/internal/verses"
)

var rotationFrequencies = []entities.VerseRotationFrequency{
	entities.VerseRotationDaily,
	entities.VerseRotationWeekly,
	entities.VerseRotationOnAppOpen,
}

type SettingsController struct {
	store SettingsStore
	bus   Publisher
	now   func() time.Time
}

func NewSettingsController(store SettingsStore, bus Publisher) *SettingsController {
	if bus == nil {
		bus = noopPublisher{}
	}
	return &SettingsController{store: store, bus: bus, now: time.Now}
}

type settingsRequest struct {
	FontSize               *int                             `json:"fontSize"`
	FontFamily             *string                          `json:"fontFamily"`
	FontColor              *string                          `json:"fontColor"`
	BackgroundColor        *string                          `json:"backgroundColor"`
	IsDarkMode             *bool                            `json:"isDarkMode"`
	VerseRotationFrequency *entities.VerseRotationFrequency `json:"verseRotationFrequency"`
}

func (r settingsRequest) apply(settings *entities.AppSettings) {
	if r.FontSize != nil {
		settings.FontSize = *r.FontSize
	}
	if r.FontFamily != nil {
		settings.FontFamily = *r.FontFamily
	}
	if r.FontColor != nil {
		settings.FontColor = *r.FontColor
	}
	if r.BackgroundColor != nil {
		settings.BackgroundColor = *r.BackgroundColor
	}
	if r.IsDarkMode != nil {
		settings.IsDarkMode = *r.IsDarkMode
	}
	if r.VerseRotationFrequency != nil {
		settings.VerseRotationFrequency = *r.VerseRotationFrequency
	}
}

// GET /api/settings
func (sc *SettingsController) GetSettings(c *gin.Context) {
	settings, err := sc.store.LoadSettings(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "settings", "get settings")
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings merges the fields present in the body into the saved settings
// PUT /api/settings
func (sc *SettingsController) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.FontSize != nil && *req.FontSize <= 0 {
		respondBadRequest(c, "fontSize must be positive")
		return
	}
	if req.VerseRotationFrequency != nil && !slices.Contains(rotationFrequencies, *req.VerseRotationFrequency) {
		respondBadRequest(c, "verseRotationFrequency must be one of daily, weekly, onAppOpen")
		return
	}

	settings, err := sc.store.UpdateSettings(c.Request.Context(), req.apply)
	if err != nil {
		respondStoreError(c, err, "settings", "update settings")
		return
	}
	sc.bus.Emit(events.SettingsUpdated, settings)
	c.JSON(http.StatusOK, settings)
}

type VerseResponse struct {
	verses.Verse
	Rotated bool `json:"rotated"`
}

// GetVerse returns the verse of the day and records a rotation when one is
// due under the saved frequency.
// GET /api/verse
func (sc *SettingsController) GetVerse(c *gin.Context) {
	ctx := c.Request.Context()
	settings, err := sc.store.LoadSettings(ctx)
	if err != nil {
		respondStoreError(c, err, "settings", "get verse")
		return
	}
	rotate, err := sc.store.ShouldRotateVerse(ctx, settings.VerseRotationFrequency)
	if err != nil {
		respondStoreError(c, err, "verse", "get verse")
		return
	}
	if rotate {
		if err := sc.store.UpdateLastVerseDate(ctx); err != nil {
			log.Printf("Failed to record verse rotation: %v", err)
			rotate = false
		}
	}
	c.JSON(http.StatusOK, VerseResponse{Verse: verses.ForDay(sc.now()), Rotated: rotate})
}
