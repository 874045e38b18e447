package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/repository"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/service"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/stage"
)

// ProcessHandler serves the process list, lifecycle, and stage transitions.
// The list is backed by a per-user pager session: filters, sort, and the
// current page live server-side and survive across requests.
type ProcessHandler struct {
	svc *service.ProcessService
}

func NewProcessHandler(svc *service.ProcessService) *ProcessHandler {
	return &ProcessHandler{svc: svc}
}

type listPayload struct {
	Items   []entity.Process  `json:"items"`
	Page    int               `json:"page"`
	HasNext bool              `json:"has_next"`
	Filters map[string]string `json:"filters"`
	Sort    string            `json:"sort,omitempty"`
	SortAsc bool              `json:"sort_ascending,omitempty"`
}

func (h *ProcessHandler) list(c *gin.Context, items []entity.Process) {
	pager := h.svc.Pager(SessionKey(c))
	q := pager.Query()
	Success(c, listPayload{
		Items:   items,
		Page:    pager.CurrentPage(),
		HasNext: pager.HasNext(),
		Filters: q.Filters,
		Sort:    q.SortField,
		SortAsc: q.SortAscending,
	})
}

// List returns the caller's current page.
// GET /api/v1/processes
func (h *ProcessHandler) List(c *gin.Context) {
	pager := h.svc.Pager(SessionKey(c))
	items, err := pager.GetPage(c.Request.Context(), pager.CurrentPage())
	if err != nil {
		InternalError(c, "load processes: "+err.Error())
		return
	}
	h.list(c, items)
}

// Page moves the caller's current page forward or back.
// POST /api/v1/processes/page
func (h *ProcessHandler) Page(c *gin.Context) {
	var req struct {
		Direction string `json:"direction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "direction is required")
		return
	}

	pager := h.svc.Pager(SessionKey(c))
	var items []entity.Process
	var err error
	switch req.Direction {
	case "next":
		items, err = pager.IncrementPage(c.Request.Context())
	case "prev":
		items, err = pager.DecrementPage(c.Request.Context())
	default:
		BadRequest(c, "direction must be \"next\" or \"prev\"")
		return
	}
	if err != nil {
		InternalError(c, "load processes: "+err.Error())
		return
	}
	h.list(c, items)
}

// Filter sets or clears one filter and returns the restarted first page.
// POST /api/v1/processes/filter
func (h *ProcessHandler) Filter(c *gin.Context) {
	var req struct {
		Field string `json:"field" binding:"required"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "field is required")
		return
	}

	pager := h.svc.Pager(SessionKey(c))
	if req.Value == "" {
		pager.ClearFilter(req.Field)
	} else {
		pager.SetFilter(req.Field, req.Value)
	}
	items, err := pager.GetPage(c.Request.Context(), 1)
	if err != nil {
		InternalError(c, "load processes: "+err.Error())
		return
	}
	h.list(c, items)
}

// Sort replaces the sort state and returns the restarted first page.
// POST /api/v1/processes/sort
func (h *ProcessHandler) Sort(c *gin.Context) {
	var req struct {
		Field     string `json:"field"`
		Ascending bool   `json:"ascending"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid sort request")
		return
	}

	pager := h.svc.Pager(SessionKey(c))
	pager.SetSort(req.Field, req.Ascending)
	items, err := pager.GetPage(c.Request.Context(), 1)
	if err != nil {
		InternalError(c, "load processes: "+err.Error())
		return
	}
	h.list(c, items)
}

// Get returns one process. The caller's cached pages are consulted first;
// only a miss reaches the store.
// GET /api/v1/processes/:id
func (h *ProcessHandler) Get(c *gin.Context) {
	id, ok := PathID(c)
	if !ok {
		return
	}
	if p, ok := h.svc.Pager(SessionKey(c)).FindCachedByID(id); ok {
		Success(c, p)
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, p)
}

// Create validates and persists a new process at Buyer Review.
// POST /api/v1/processes
func (h *ProcessHandler) Create(c *gin.Context) {
	var p entity.Process
	if err := c.ShouldBindJSON(&p); err != nil {
		BadRequest(c, "invalid process payload: "+err.Error())
		return
	}
	p.ID = 0
	saved, err := h.svc.Create(c.Request.Context(), &p)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, saved)
}

// Update validates and persists field edits. The payload must carry the
// etag the caller last saw.
// PUT /api/v1/processes/:id
func (h *ProcessHandler) Update(c *gin.Context) {
	id, ok := PathID(c)
	if !ok {
		return
	}
	var p entity.Process
	if err := c.ShouldBindJSON(&p); err != nil {
		BadRequest(c, "invalid process payload: "+err.Error())
		return
	}
	p.ID = id
	if p.Etag == "" {
		BadRequest(c, "etag is required")
		return
	}
	saved, err := h.svc.Update(c.Request.Context(), &p)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, saved)
}

// Delete soft-deletes a process and its dependent records.
// DELETE /api/v1/processes/:id
func (h *ProcessHandler) Delete(c *gin.Context) {
	id, ok := PathID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"deleted": id})
}

type transitionPayload struct {
	Action       string         `json:"action" binding:"required"`
	Target       entity.Stage   `json:"target"`
	Assignee     *entity.Person `json:"assignee"`
	ReworkReason string         `json:"rework_reason"`
	Note         string         `json:"note"`
	Etag         string         `json:"etag" binding:"required"`
}

// Transition submits a Send or Rework for the process.
// POST /api/v1/processes/:id/transition
func (h *ProcessHandler) Transition(c *gin.Context) {
	id, ok := PathID(c)
	if !ok {
		return
	}
	var req transitionPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid transition payload: "+err.Error())
		return
	}

	result, err := h.svc.Transition(c.Request.Context(), service.TransitionRequest{
		ProcessID:    id,
		Action:       req.Action,
		Target:       req.Target,
		Assignee:     req.Assignee,
		ReworkReason: req.ReworkReason,
		Note:         req.Note,
		Etag:         req.Etag,
		Actor:        GetUser(c),
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, result)
}

// Targets returns the legal Send targets and the Rework target for the
// process's current stage, plus the derived default assignee for each, so
// the UI can render the transition dialog.
// GET /api/v1/processes/:id/targets
func (h *ProcessHandler) Targets(c *gin.Context) {
	id, ok := PathID(c)
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}

	type target struct {
		Stage    entity.Stage  `json:"stage"`
		Assignee entity.Person `json:"assignee"`
	}
	sends := []target{}
	for _, t := range stage.SendTargets(p.CurrentStage) {
		sends = append(sends, target{Stage: t, Assignee: stage.DefaultAssignee(t, p)})
	}
	payload := gin.H{
		"send":           sends,
		"rework_reasons": stage.ReworkReasons,
	}
	if t, ok := stage.ReworkTarget(p.CurrentStage); ok {
		payload["rework"] = target{Stage: t, Assignee: stage.DefaultAssignee(t, p)}
	}
	Success(c, payload)
}

// PCRStatus returns the latest SBA PCR email record for the process.
// GET /api/v1/processes/:id/pcr-status
func (h *ProcessHandler) PCRStatus(c *gin.Context) {
	id, ok := PathID(c)
	if !ok {
		return
	}
	rec, err := h.svc.PCRStatus(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "process not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"latest": rec})
}
