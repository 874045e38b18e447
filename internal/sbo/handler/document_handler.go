package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/service"
)

// DocumentHandler serves process attachments backed by object storage.
// Document routes 404 cleanly when the deployment runs without a document
// store configured.
type DocumentHandler struct {
	docs      *service.DocumentService
	processes *service.ProcessService
}

func NewDocumentHandler(docs *service.DocumentService, processes *service.ProcessService) *DocumentHandler {
	return &DocumentHandler{docs: docs, processes: processes}
}

func (h *DocumentHandler) available(c *gin.Context) bool {
	if h.docs == nil {
		NotFound(c, "document storage is not configured")
		return false
	}
	return true
}

// List returns the process's documents with download links.
// GET /api/v1/processes/:id/documents
func (h *DocumentHandler) List(c *gin.Context) {
	if !h.available(c) {
		return
	}
	id, ok := PathID(c)
	if !ok {
		return
	}
	p, err := h.processes.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	docs, err := h.docs.List(c.Request.Context(), p)
	if err != nil {
		InternalError(c, "list documents: "+err.Error())
		return
	}
	Success(c, gin.H{"items": docs})
}

// Upload stores one attachment, overwriting any document with the same name.
// POST /api/v1/processes/:id/documents
func (h *DocumentHandler) Upload(c *gin.Context) {
	if !h.available(c) {
		return
	}
	id, ok := PathID(c)
	if !ok {
		return
	}
	p, err := h.processes.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "a file is required")
		return
	}
	src, err := file.Open()
	if err != nil {
		InternalError(c, "open upload: "+err.Error())
		return
	}
	defer src.Close()

	doc, err := h.docs.Upload(
		c.Request.Context(), p,
		file.Filename, src, file.Size,
		file.Header.Get("Content-Type"),
		GetUser(c),
	)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, doc)
}

// Delete removes one attachment by name.
// DELETE /api/v1/processes/:id/documents/:name
func (h *DocumentHandler) Delete(c *gin.Context) {
	if !h.available(c) {
		return
	}
	id, ok := PathID(c)
	if !ok {
		return
	}
	name := c.Param("name")
	if name == "" {
		BadRequest(c, "document name is required")
		return
	}
	p, err := h.processes.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	if err := h.docs.Delete(c.Request.Context(), p, name); err != nil {
		InternalError(c, "delete document: "+err.Error())
		return
	}
	Success(c, gin.H{"deleted": name})
}
