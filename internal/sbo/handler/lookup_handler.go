package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/repository"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/service"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/stage"
)

// LookupHandler serves the reference data the forms are built from: orgs,
// stages, enumerations, the user directory, and the authenticated user.
type LookupHandler struct {
	orgs  *service.OrgService
	users *service.UserService
}

func NewLookupHandler(orgs *service.OrgService, users *service.UserService) *LookupHandler {
	return &LookupHandler{orgs: orgs, users: users}
}

// Orgs returns every org grouped under its parent org.
// GET /api/v1/lookup/orgs
func (h *LookupHandler) Orgs(c *gin.Context) {
	orgs, err := h.orgs.FetchAll(c.Request.Context())
	if err != nil {
		InternalError(c, "load orgs: "+err.Error())
		return
	}
	grouped := make(map[string][]string, len(entity.ParentOrgs))
	for _, parent := range h.orgs.ParentOrgs() {
		grouped[parent] = []string{}
	}
	for _, o := range orgs {
		grouped[o.ParentOrg] = append(grouped[o.ParentOrg], o.Title)
	}
	Success(c, gin.H{
		"parent_orgs": h.orgs.ParentOrgs(),
		"orgs":        grouped,
	})
}

// Enums returns the static enumerations the forms render.
// GET /api/v1/lookup/enums
func (h *LookupHandler) Enums(c *gin.Context) {
	Success(c, gin.H{
		"process_types":  []string{entity.ProcessTypeDD2579, entity.ProcessTypeISP},
		"stages":         stage.Ordered,
		"set_asides":     entity.SetAsideRecommendations,
		"rework_reasons": stage.ReworkReasons,
	})
}

// SearchUsers returns directory matches for a person-picker query.
// GET /api/v1/lookup/users?q=xxx
func (h *LookupHandler) SearchUsers(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		BadRequest(c, "search query is required")
		return
	}
	limit := 10
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 50 {
			limit = v
		}
	}
	people, err := h.users.Search(c.Request.Context(), q, limit)
	if err != nil {
		InternalError(c, "search users: "+err.Error())
		return
	}
	Success(c, gin.H{"items": people})
}

// UserByID resolves one directory id into a person reference, used when a
// stored person field carries an id the client has not seen before.
// GET /api/v1/lookup/users/:id
func (h *LookupHandler) UserByID(c *gin.Context) {
	id, ok := PathID(c)
	if !ok {
		return
	}
	p, err := h.users.Resolve(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "user not found")
			return
		}
		InternalError(c, "resolve user: "+err.Error())
		return
	}
	Success(c, p)
}

// Me returns the authenticated caller, resolved against the directory when
// possible so the front end gets a stable person reference.
// GET /api/v1/me
func (h *LookupHandler) Me(c *gin.Context) {
	claimed := GetUser(c)
	if claimed.Email != "" {
		if p, err := h.users.ResolveEmail(c.Request.Context(), claimed.Email); err == nil {
			Success(c, p)
			return
		}
	}
	Success(c, claimed)
}
