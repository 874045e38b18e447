// Package handler is the HTTP surface. Handlers translate between the JSON
// API and the service layer; every business decision lives below them.
package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/repository"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/service"
)

// Handlers bundles the wired HTTP handlers.
type Handlers struct {
	Process  *ProcessHandler
	Note     *NoteHandler
	Document *DocumentHandler
	Lookup   *LookupHandler
	Report   *ReportHandler
}

// NewHandlers wires the handler layer onto the services.
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Process:  NewProcessHandler(svc.Process),
		Note:     NewNoteHandler(svc.Process),
		Document: NewDocumentHandler(svc.Document, svc.Process),
		Lookup:   NewLookupHandler(svc.Org, svc.User),
		Report:   NewReportHandler(svc.Report),
	}
}

// Response is the envelope every endpoint returns.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success writes a 200 envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created writes a 201 envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error writes an error envelope; the HTTP status is the leading three
// digits of the application code.
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest rejects a malformed or illegal request.
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// NotFound reports a missing (or soft-deleted) resource.
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict reports a stale concurrency token. Distinct from BadRequest so
// the UI prompts a reload instead of a retry.
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError reports an unexpected failure.
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// ValidationFailed reports field-rule failures, carrying the per-field
// report so the UI can render messages inline.
func ValidationFailed(c *gin.Context, report interface{}) {
	c.JSON(422, Response{
		Code:    42200,
		Message: "validation failed",
		Data:    gin.H{"fields": report},
	})
}

// RespondError maps a service error onto the envelope taxonomy.
func RespondError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	var tErr *service.TransitionError
	switch {
	case errors.As(err, &vErr):
		ValidationFailed(c, vErr.Report)
	case errors.As(err, &tErr):
		BadRequest(c, tErr.Reason)
	case errors.Is(err, service.ErrInvalidDocumentName):
		BadRequest(c, err.Error())
	case errors.Is(err, repository.ErrConflict):
		Conflict(c, "the process was modified by someone else; reload and try again")
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "process not found")
	default:
		InternalError(c, err.Error())
	}
}

// GetUser returns the authenticated user as a person reference.
func GetUser(c *gin.Context) entity.Person {
	p := entity.Person{ID: entity.PersonUnresolved}
	if id, ok := c.Get("user_id"); ok {
		if v, ok := id.(int64); ok {
			p.ID = v
		}
	}
	p.Display = c.GetString("user_name")
	p.Email = c.GetString("user_email")
	return p
}

// SessionKey identifies the caller's pager session.
func SessionKey(c *gin.Context) string {
	if id, ok := c.Get("user_id"); ok {
		if v, ok := id.(int64); ok {
			return strconv.FormatInt(v, 10)
		}
	}
	return "anonymous"
}

// PathID parses the :id path segment.
func PathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		BadRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}
