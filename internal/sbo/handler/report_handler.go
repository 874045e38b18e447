package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/paging"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/service"
)

// reportFilters whitelists the query params forwarded into the export.
var reportFilters = []string{
	"process_type", "parent_org", "org", "current_stage",
	"solicitation_number", "program_name", "buyer", "current_assignee",
}

// ReportHandler streams the process-list spreadsheet export.
type ReportHandler struct {
	svc *service.ReportService
}

func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Export builds and streams the xlsx workbook. Filters mirror the listing's
// filter fields and arrive as plain query params.
// GET /api/v1/reports/processes
func (h *ReportHandler) Export(c *gin.Context) {
	q := paging.Query{Filters: map[string]string{}}
	for _, f := range reportFilters {
		if v := c.Query(f); v != "" {
			q.Filters[f] = v
		}
	}

	f, err := h.svc.Export(c.Request.Context(), q)
	if err != nil {
		InternalError(c, "build report: "+err.Error())
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("sbo-processes-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}
