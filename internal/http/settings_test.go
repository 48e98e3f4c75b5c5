package http

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/choirbook/internal/entities"
	"github.com/mrlokans/choirbook/internal/events"
	"github.com/mrlokans/choirbook/internal/verses"
)

func TestSettingsController(t *testing.T) {
	library := newTestLibrary(t)
	bus := events.NewBus()
	log := recordEvents(bus)
	router := NewRouter(RouterConfig{Library: library, Bus: bus})

	t.Run("defaults before anything is saved", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/settings", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, entities.DefaultSettings(), decode[entities.AppSettings](t, w))
	})

	t.Run("put merges fields", func(t *testing.T) {
		w := doJSON(t, router, "PUT", "/api/settings", map[string]any{"isDarkMode": true, "fontSize": 20})

		require.Equal(t, http.StatusOK, w.Code)
		got := decode[entities.AppSettings](t, w)
		assert.True(t, got.IsDarkMode)
		assert.Equal(t, 20, got.FontSize)
		assert.Equal(t, "System", got.FontFamily)
		assert.Equal(t, []string{events.SettingsUpdated}, log.names())

		w = doJSON(t, router, "GET", "/api/settings", nil)
		assert.Equal(t, got, decode[entities.AppSettings](t, w))
	})

	t.Run("concurrent puts keep every field", func(t *testing.T) {
		bodies := []map[string]any{
			{"fontColor": "#111111"},
			{"backgroundColor": "#EEEEEE"},
			{"fontFamily": "Serif"},
			{"verseRotationFrequency": "weekly"},
		}
		var wg sync.WaitGroup
		for _, body := range bodies {
			wg.Add(1)
			go func(body map[string]any) {
				defer wg.Done()
				w := doJSON(t, router, "PUT", "/api/settings", body)
				assert.Equal(t, http.StatusOK, w.Code)
			}(body)
		}
		wg.Wait()

		w := doJSON(t, router, "GET", "/api/settings", nil)
		got := decode[entities.AppSettings](t, w)
		assert.Equal(t, "#111111", got.FontColor)
		assert.Equal(t, "#EEEEEE", got.BackgroundColor)
		assert.Equal(t, "Serif", got.FontFamily)
		assert.Equal(t, entities.VerseRotationWeekly, got.VerseRotationFrequency)
		assert.Equal(t, 20, got.FontSize)
	})

	t.Run("rejects unknown rotation frequency", func(t *testing.T) {
		w := doJSON(t, router, "PUT", "/api/settings", map[string]any{"verseRotationFrequency": "hourly"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects non-positive font size", func(t *testing.T) {
		w := doJSON(t, router, "PUT", "/api/settings", map[string]any{"fontSize": 0})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSettingsController_GetVerse(t *testing.T) {
	library := newTestLibrary(t)
	router := NewRouter(RouterConfig{Library: library})

	w := doJSON(t, router, "GET", "/api/verse", nil)
	require.Equal(t, http.StatusOK, w.Code)
	first := decode[VerseResponse](t, w)
	assert.True(t, first.Rotated)
	assert.NotEmpty(t, first.Text)
	assert.Equal(t, verses.ForDay(time.Now()).Reference, first.Reference)

	w = doJSON(t, router, "GET", "/api/verse", nil)
	second := decode[VerseResponse](t, w)
	assert.False(t, second.Rotated, "daily rotation already happened today")
}
