package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/choirbook/internal/entities"
	"github.com/mrlokans/choirbook/internal/events"
	"github.com/mrlokans/choirbook/internal/storage"
)

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#8B5CF6"

type CategoriesController struct {
	store CategoryStore
	bus   Publisher
}

func NewCategoriesController(store CategoryStore, bus Publisher) *CategoriesController {
	if bus == nil {
		bus = noopPublisher{}
	}
	return &CategoriesController{store: store, bus: bus}
}

type categoryRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func (r categoryRequest) apply(cat *entities.Category) {
	if r.Name != nil {
		cat.Name = strings.TrimSpace(*r.Name)
	}
	if r.Color != nil {
		cat.Color = strings.TrimSpace(*r.Color)
	}
}

// GET /api/categories?q=
func (cc *CategoriesController) ListCategories(c *gin.Context) {
	categories, err := cc.store.LoadCategories(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "categories", "list categories")
		return
	}
	c.JSON(http.StatusOK, storage.SearchCategories(categories, c.Query("q")))
}

// GET /api/categories/:id
func (cc *CategoriesController) GetCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	category, err := cc.store.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "category", "get category")
		return
	}
	c.JSON(http.StatusOK, category)
}

// GetCategorySongs lists the songs filed under a category, searching title
// and composer.
// GET /api/categories/:id/songs?q=
func (cc *CategoriesController) GetCategorySongs(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	category, err := cc.store.GetCategory(ctx, id)
	if err != nil {
		respondStoreError(c, err, "category", "get category songs")
		return
	}
	songs, err := cc.store.LoadSongs(ctx)
	if err != nil {
		respondStoreError(c, err, "songs", "get category songs")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"songs":    storage.SongsInCategory(songs, *category, c.Query("q")),
	})
}

// POST /api/categories
func (cc *CategoriesController) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		respondBadRequest(c, "name is required")
		return
	}

	category := entities.Category{Color: DefaultCategoryColor}
	req.apply(&category)

	created, err := cc.store.AddCategory(c.Request.Context(), category)
	if err != nil {
		respondStoreError(c, err, "category", "create category")
		return
	}
	cc.bus.Emit(events.CategoriesAdded, created)
	respondCreated(c, created)
}

// PUT /api/categories/:id
func (cc *CategoriesController) UpdateCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		respondBadRequest(c, "name cannot be empty")
		return
	}

	updated, err := cc.store.UpdateCategory(c.Request.Context(), id, req.apply)
	if err != nil {
		respondStoreError(c, err, "category", "update category")
		return
	}
	cc.bus.Emit(events.CategoriesUpdated, updated)
	c.JSON(http.StatusOK, updated)
}

// DELETE /api/categories/:id
func (cc *CategoriesController) DeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := cc.store.DeleteCategory(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "category", "delete category")
		return
	}
	cc.bus.Emit(events.CategoriesDeleted, gin.H{"id": id})
	respondSuccess(c, "category deleted")
}

// RecomputeCounts re-derives every category's song count
// POST /api/categories/recompute
func (cc *CategoriesController) RecomputeCounts(c *gin.Context) {
	ctx := c.Request.Context()
	if err := cc.store.RecomputeCategoryCounts(ctx); err != nil {
		respondStoreError(c, err, "categories", "recompute category counts")
		return
	}
	categories, err := cc.store.LoadCategories(ctx)
	if err != nil {
		respondStoreError(c, err, "categories", "recompute category counts")
		return
	}
	cc.bus.Emit(events.CategoriesUpdated, categories)
	c.JSON(http.StatusOK, categories)
}
