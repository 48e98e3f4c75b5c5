package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/choirbook/internal/entities"
	"github.com/mrlokans/choirbook/internal/events"
)

func TestCategoriesController(t *testing.T) {
	library := newTestLibrary(t)
	bus := events.NewBus()
	log := recordEvents(bus)
	router := NewRouter(RouterConfig{Library: library, Bus: bus})
	ctx := context.Background()

	var hymns entities.Category
	t.Run("create uses the default color", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/categories", map[string]string{"name": "Hymns"})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		hymns = decode[entities.Category](t, w)
		assert.Equal(t, DefaultCategoryColor, hymns.Color)
		assert.Equal(t, 0, hymns.SongCount)
		assert.Equal(t, []string{events.CategoriesAdded}, log.names())
	})

	t.Run("duplicate names conflict", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/categories", map[string]string{"name": "hymns"})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "duplicate_name")
	})

	t.Run("create requires a name", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/categories", map[string]string{"color": "#000000"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	gospel, err := library.AddCategory(ctx, entities.Category{Name: "Gospel", Color: "#10B981"})
	require.NoError(t, err)
	_, err = library.AddSong(ctx, entities.Song{Title: "Amazing Grace", Composer: "John Newton", Category: hymns.ID})
	require.NoError(t, err)
	_, err = library.AddSong(ctx, entities.Song{Title: "Abide With Me", Composer: "Henry Lyte", Category: "Hymns"})
	require.NoError(t, err)

	t.Run("list is sorted by name and searchable", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/categories", nil)
		categories := decode[[]entities.Category](t, w)
		require.Len(t, categories, 2)
		assert.Equal(t, "Gospel", categories[0].Name)
		assert.Equal(t, 2, categories[1].SongCount)

		w = doJSON(t, router, "GET", "/api/categories?q=gos", nil)
		assert.Len(t, decode[[]entities.Category](t, w), 1)
	})

	t.Run("category songs search title and composer", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/categories/"+hymns.ID+"/songs?q=newton", nil)

		require.Equal(t, http.StatusOK, w.Code)
		body := decode[struct {
			Category entities.Category `json:"category"`
			Songs    []entities.Song   `json:"songs"`
		}](t, w)
		assert.Equal(t, "Hymns", body.Category.Name)
		require.Len(t, body.Songs, 1)
		assert.Equal(t, "Amazing Grace", body.Songs[0].Title)
	})

	t.Run("rename onto another name conflicts", func(t *testing.T) {
		w := doJSON(t, router, "PUT", "/api/categories/"+gospel.ID, map[string]string{"name": "Hymns"})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "duplicate_name")
	})

	t.Run("update color keeps the name", func(t *testing.T) {
		w := doJSON(t, router, "PUT", "/api/categories/"+gospel.ID, map[string]string{"color": "#F59E0B"})

		require.Equal(t, http.StatusOK, w.Code)
		updated := decode[entities.Category](t, w)
		assert.Equal(t, "Gospel", updated.Name)
		assert.Equal(t, "#F59E0B", updated.Color)
	})

	t.Run("recompute returns fresh counts", func(t *testing.T) {
		require.NoError(t, library.SaveCategories(ctx, []entities.Category{
			{ID: hymns.ID, Name: "Hymns", SongCount: 99},
		}))

		w := doJSON(t, router, "POST", "/api/categories/recompute", nil)

		require.Equal(t, http.StatusOK, w.Code)
		categories := decode[[]entities.Category](t, w)
		require.Len(t, categories, 1)
		assert.Equal(t, 2, categories[0].SongCount)
	})

	t.Run("delete unknown category is 404", func(t *testing.T) {
		w := doJSON(t, router, "DELETE", "/api/categories/unknown", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete removes the category", func(t *testing.T) {
		w := doJSON(t, router, "DELETE", "/api/categories/"+hymns.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, router, "GET", "/api/categories/"+hymns.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
