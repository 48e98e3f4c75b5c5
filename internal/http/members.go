package http

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/choirbook/internal/entities"
	"github.com/mrlokans/choirbook/internal/events"
	"github.com/mrlokans/choirbook/internal/storage"
)

type MembersController struct {
	store MemberStore
	bus   Publisher
}

func NewMembersController(store MemberStore, bus Publisher) *MembersController {
	if bus == nil {
		bus = noopPublisher{}
	}
	return &MembersController{store: store, bus: bus}
}

type memberRequest struct {
	Name         *string             `json:"name"`
	VoicePart    *entities.VoicePart `json:"voicePart"`
	Email        *string             `json:"email"`
	Phone        *string             `json:"phone"`
	Notes        *string             `json:"notes"`
	ProfileImage *string             `json:"profileImage"`
}

func (r memberRequest) validate(create bool) string {
	if create && r.Name == nil {
		return "name is required"
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return "name cannot be empty"
	}
	if create && r.VoicePart == nil {
		return "voicePart is required"
	}
	if r.VoicePart != nil && !slices.Contains(entities.VoiceParts, *r.VoicePart) {
		return "voicePart must be one of Soprano, Alto, Tenor, Bass"
	}
	return ""
}

func (r memberRequest) apply(m *entities.Member) {
	if r.Name != nil {
		m.Name = strings.TrimSpace(*r.Name)
	}
	if r.VoicePart != nil {
		m.VoicePart = *r.VoicePart
	}
	if r.Email != nil {
		m.Email = strings.TrimSpace(*r.Email)
	}
	if r.Phone != nil {
		m.Phone = strings.TrimSpace(*r.Phone)
	}
	if r.Notes != nil {
		m.Notes = *r.Notes
	}
	if r.ProfileImage != nil {
		m.ProfileImage = *r.ProfileImage
	}
}

// ListMembers returns members, sorted by name when searching
// GET /api/members?q=
func (mc *MembersController) ListMembers(c *gin.Context) {
	members, err := mc.store.LoadMembers(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "members", "list members")
		return
	}
	if q := c.Query("q"); q != "" {
		members = storage.SearchMembers(members, q)
	}
	c.JSON(http.StatusOK, members)
}

// GET /api/members/:id
func (mc *MembersController) GetMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	member, err := mc.store.GetMember(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "member", "get member")
		return
	}
	c.JSON(http.StatusOK, member)
}

// POST /api/members
func (mc *MembersController) CreateMember(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if msg := req.validate(true); msg != "" {
		respondBadRequest(c, msg)
		return
	}

	member := entities.Member{}
	req.apply(&member)
	created, err := mc.store.AddMember(c.Request.Context(), member)
	if err != nil {
		respondStoreError(c, err, "member", "create member")
		return
	}
	mc.bus.Emit(events.MembersAdded, created)
	respondCreated(c, created)
}

// PUT /api/members/:id
func (mc *MembersController) UpdateMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if msg := req.validate(false); msg != "" {
		respondBadRequest(c, msg)
		return
	}

	updated, err := mc.store.UpdateMember(c.Request.Context(), id, req.apply)
	if err != nil {
		respondStoreError(c, err, "member", "update member")
		return
	}
	mc.bus.Emit(events.MembersUpdated, updated)
	c.JSON(http.StatusOK, updated)
}

// DELETE /api/members/:id
func (mc *MembersController) DeleteMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := mc.store.DeleteMember(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "member", "delete member")
		return
	}
	mc.bus.Emit(events.MembersDeleted, gin.H{"id": id})
	respondSuccess(c, "member deleted")
}
