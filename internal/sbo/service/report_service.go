package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/paging"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/stage"
)

const reportPageSize = 200

// ReportService exports the process list as a spreadsheet, including
// per-stage durations computed from the recorded stage windows.
type ReportService struct {
	processes ProcessStore
}

func NewReportService(processes ProcessStore) *ReportService {
	return &ReportService{processes: processes}
}

var reportHeaders = []string{
	"Solicitation Number",
	"Program Name",
	"Process Type",
	"Parent Org",
	"Org",
	"Current Stage",
	"Current Assignee",
	"Buyer",
	"Contracting Officer",
	"Small Business Professional",
	"Contract Value",
	"Set-Aside Recommendation",
	"Multiple Award",
	"Created",
	"Buyer Review Days",
	"CO Initial Review Days",
	"SBP Review Days",
	"SBA PCR Review Days",
	"CO Final Review Days",
}

// Export builds an xlsx workbook for every process matching the query.
// Caller owns closing the returned file.
func (s *ReportService) Export(ctx context.Context, q paging.Query) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Processes"
	f.SetSheetName("Sheet1", sheet)

	for col, h := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("write report header: %w", err)
		}
	}

	row := 2
	cursor := ""
	for {
		items, next, err := s.processes.FetchPage(ctx, q, cursor, reportPageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch report page: %w", err)
		}
		for i := range items {
			if err := writeReportRow(f, sheet, row, &items[i]); err != nil {
				return nil, err
			}
			row++
		}
		if next == "" {
			break
		}
		cursor = next
	}
	return f, nil
}

func writeReportRow(f *excelize.File, sheet string, row int, p *entity.Process) error {
	values := []interface{}{
		p.SolicitationNumber,
		p.ProgramName,
		p.ProcessType,
		p.ParentOrg,
		p.Org,
		string(p.CurrentStage),
		p.CurrentAssignee.Display,
		p.Buyer.Display,
		p.ContractingOfficer.Display,
		p.SmallBusinessProfessional.Display,
		p.ContractValueDollars,
		p.SetAsideRecommendation,
		p.MultipleAward,
		p.Created.Format("2006-01-02"),
	}
	for _, st := range stage.Ordered {
		if st == entity.StageCompleted {
			continue
		}
		values = append(values, stageDays(p.StageWindows[st]))
	}
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("write report row %d: %w", row, err)
		}
	}
	return nil
}

// stageDays reports whole days spent in a stage window; an open window
// counts up to now, an unentered stage is blank.
func stageDays(w entity.StageWindow) interface{} {
	if w.Start == nil {
		return ""
	}
	end := time.Now().UTC()
	if w.End != nil {
		end = *w.End
	}
	return int(end.Sub(*w.Start).Hours() / 24)
}
