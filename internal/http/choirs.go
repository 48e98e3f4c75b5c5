package http

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/choirbook/internal/entities"
	"github.com/mrlokans/choirbook/internal/events"
)

var choirTypes = []entities.ChoirType{entities.ChoirTypeA, entities.ChoirTypeB, entities.ChoirTypeC}

type ChoirsController struct {
	store ChoirStore
	bus   Publisher
}

func NewChoirsController(store ChoirStore, bus Publisher) *ChoirsController {
	if bus == nil {
		bus = noopPublisher{}
	}
	return &ChoirsController{store: store, bus: bus}
}

type choirRequest struct {
	Name    *string             `json:"name"`
	Type    *entities.ChoirType `json:"type"`
	Members *[]string           `json:"members"`
}

func (r choirRequest) validate(create bool) string {
	if create && (r.Name == nil || strings.TrimSpace(*r.Name) == "") {
		return "name is required"
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return "name cannot be empty"
	}
	if create && r.Type == nil {
		return "type is required"
	}
	if r.Type != nil && !slices.Contains(choirTypes, *r.Type) {
		return "type must be one of A, B, C"
	}
	return ""
}

func (r choirRequest) apply(choir *entities.Choir) {
	if r.Name != nil {
		choir.Name = strings.TrimSpace(*r.Name)
	}
	if r.Type != nil {
		choir.Type = *r.Type
	}
	if r.Members != nil {
		choir.Members = uniqueIDs(*r.Members)
	}
}

// uniqueIDs drops blanks and repeats, keeping first-seen order.
func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// GET /api/choirs
func (cc *ChoirsController) ListChoirs(c *gin.Context) {
	choirs, err := cc.store.LoadChoirs(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "choirs", "list choirs")
		return
	}
	c.JSON(http.StatusOK, choirs)
}

// GET /api/choirs/:id
func (cc *ChoirsController) GetChoir(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	choir, err := cc.store.GetChoir(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "choir", "get choir")
		return
	}
	c.JSON(http.StatusOK, choir)
}

// POST /api/choirs
func (cc *ChoirsController) CreateChoir(c *gin.Context) {
	var req choirRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if msg := req.validate(true); msg != "" {
		respondBadRequest(c, msg)
		return
	}

	choir := entities.Choir{}
	req.apply(&choir)
	created, err := cc.store.AddChoir(c.Request.Context(), choir)
	if err != nil {
		respondStoreError(c, err, "choir", "create choir")
		return
	}
	cc.bus.Emit(events.ChoirsAdded, created)
	respondCreated(c, created)
}

// PUT /api/choirs/:id
func (cc *ChoirsController) UpdateChoir(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req choirRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if msg := req.validate(false); msg != "" {
		respondBadRequest(c, msg)
		return
	}

	updated, err := cc.store.UpdateChoir(c.Request.Context(), id, req.apply)
	if err != nil {
		respondStoreError(c, err, "choir", "update choir")
		return
	}
	cc.bus.Emit(events.ChoirsUpdated, updated)
	c.JSON(http.StatusOK, updated)
}

// DELETE /api/choirs/:id
func (cc *ChoirsController) DeleteChoir(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := cc.store.DeleteChoir(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "choir", "delete choir")
		return
	}
	cc.bus.Emit(events.ChoirsDeleted, gin.H{"id": id})
	respondSuccess(c, "choir deleted")
}
