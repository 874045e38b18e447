package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/service"
)

// NoteHandler serves a process's notes.
type NoteHandler struct {
	svc *service.ProcessService
}

func NewNoteHandler(svc *service.ProcessService) *NoteHandler {
	return &NoteHandler{svc: svc}
}

// List returns the process's notes, newest first.
// GET /api/v1/processes/:id/notes
func (h *NoteHandler) List(c *gin.Context) {
	id, ok := PathID(c)
	if !ok {
		return
	}
	notes, err := h.svc.Notes(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"items": notes})
}

// Create records a user-authored note on the process.
// POST /api/v1/processes/:id/notes
func (h *NoteHandler) Create(c *gin.Context) {
	id, ok := PathID(c)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "note text is required")
		return
	}
	note, err := h.svc.AddNote(c.Request.Context(), id, req.Text, GetUser(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, note)
}
