package repository

import (
	"time"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
)

// ProcessRecord is the flat storage shape of a process. Person references
// are expanded into id/name/email columns and the reporting-only stage
// windows into start/end column pairs. The etag column carries the
// optimistic-concurrency token verbatim.
type ProcessRecord struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	ProcessType string `gorm:"size:16;not null"`

	SolicitationNumber     string `gorm:"size:255;not null;index"`
	ProgramName            string `gorm:"size:255;not null"`
	ParentOrg              string `gorm:"size:16;not null;index"`
	Org                    string `gorm:"size:128;not null"`
	SboDuration            int    `gorm:"not null"`
	ContractValueDollars   string `gorm:"size:32;not null"`
	SetAsideRecommendation string `gorm:"size:64"`
	MultipleAward          bool   `gorm:"not null;default:false"`

	BuyerID    int64  `gorm:"not null;default:-1"`
	BuyerName  string `gorm:"size:128"`
	BuyerEmail string `gorm:"size:256"`

	ContractingOfficerID    int64  `gorm:"not null;default:-1"`
	ContractingOfficerName  string `gorm:"size:128"`
	ContractingOfficerEmail string `gorm:"size:256"`

	SmallBusinessProfessionalID    int64  `gorm:"not null;default:-1"`
	SmallBusinessProfessionalName  string `gorm:"size:128"`
	SmallBusinessProfessionalEmail string `gorm:"size:256"`

	SBAPCRID    int64  `gorm:"column:sba_pcr_id;not null;default:-1"`
	SBAPCRName  string `gorm:"column:sba_pcr_name;size:128"`
	SBAPCREmail string `gorm:"column:sba_pcr_email;size:256"`

	CurrentAssigneeID    int64  `gorm:"not null;default:-1"`
	CurrentAssigneeName  string `gorm:"size:128;index"`
	CurrentAssigneeEmail string `gorm:"size:256"`

	CurrentStage          string    `gorm:"size:32;not null;index"`
	CurrentStageStartDate time.Time `gorm:"not null"`
	Created               time.Time `gorm:"not null;index"`
	Modified              time.Time `gorm:"not null"`

	BuyerReviewStart     *time.Time
	BuyerReviewEnd       *time.Time
	COInitialReviewStart *time.Time `gorm:"column:co_initial_review_start"`
	COInitialReviewEnd   *time.Time `gorm:"column:co_initial_review_end"`
	SBPReviewStart       *time.Time `gorm:"column:sbp_review_start"`
	SBPReviewEnd         *time.Time `gorm:"column:sbp_review_end"`
	SBAPCRReviewStart    *time.Time `gorm:"column:sba_pcr_review_start"`
	SBAPCRReviewEnd      *time.Time `gorm:"column:sba_pcr_review_end"`
	COFinalReviewStart   *time.Time `gorm:"column:co_final_review_start"`
	COFinalReviewEnd     *time.Time `gorm:"column:co_final_review_end"`

	Etag    string `gorm:"size:36;not null"`
	Deleted bool   `gorm:"not null;default:false;index"`
}

func (ProcessRecord) TableName() string {
	return "processes"
}

// NewProcessRecord maps the domain process onto its storage row.
func NewProcessRecord(p *entity.Process) ProcessRecord {
	r := ProcessRecord{
		ID:          p.ID,
		ProcessType: p.ProcessType,

		SolicitationNumber:     p.SolicitationNumber,
		ProgramName:            p.ProgramName,
		ParentOrg:              p.ParentOrg,
		Org:                    p.Org,
		SboDuration:            p.SboDuration,
		ContractValueDollars:   p.ContractValueDollars,
		SetAsideRecommendation: p.SetAsideRecommendation,
		MultipleAward:          p.MultipleAward,

		BuyerID:    p.Buyer.ID,
		BuyerName:  p.Buyer.Display,
		BuyerEmail: p.Buyer.Email,

		ContractingOfficerID:    p.ContractingOfficer.ID,
		ContractingOfficerName:  p.ContractingOfficer.Display,
		ContractingOfficerEmail: p.ContractingOfficer.Email,

		SmallBusinessProfessionalID:    p.SmallBusinessProfessional.ID,
		SmallBusinessProfessionalName:  p.SmallBusinessProfessional.Display,
		SmallBusinessProfessionalEmail: p.SmallBusinessProfessional.Email,

		SBAPCRID:    p.SBAPCR.ID,
		SBAPCRName:  p.SBAPCR.Display,
		SBAPCREmail: p.SBAPCR.Email,

		CurrentAssigneeID:    p.CurrentAssignee.ID,
		CurrentAssigneeName:  p.CurrentAssignee.Display,
		CurrentAssigneeEmail: p.CurrentAssignee.Email,

		CurrentStage:          string(p.CurrentStage),
		CurrentStageStartDate: p.CurrentStageStartDate,
		Created:               p.Created,
		Modified:              p.Modified,

		Etag:    p.Etag,
		Deleted: p.Deleted,
	}

	set := func(start, end **time.Time, s entity.Stage) {
		if w, ok := p.StageWindows[s]; ok {
			*start = w.Start
			*end = w.End
		}
	}
	set(&r.BuyerReviewStart, &r.BuyerReviewEnd, entity.StageBuyerReview)
	set(&r.COInitialReviewStart, &r.COInitialReviewEnd, entity.StageCOInitialReview)
	set(&r.SBPReviewStart, &r.SBPReviewEnd, entity.StageSBPReview)
	set(&r.SBAPCRReviewStart, &r.SBAPCRReviewEnd, entity.StageSBAPCRReview)
	set(&r.COFinalReviewStart, &r.COFinalReviewEnd, entity.StageCOFinalReview)

	return r
}

// ToProcess maps the storage row back onto the domain shape. The mapping is
// lossless: a round trip preserves every field including the etag.
func (r *ProcessRecord) ToProcess() *entity.Process {
	p := &entity.Process{
		ID:          r.ID,
		ProcessType: r.ProcessType,

		SolicitationNumber:     r.SolicitationNumber,
		ProgramName:            r.ProgramName,
		ParentOrg:              r.ParentOrg,
		Org:                    r.Org,
		SboDuration:            r.SboDuration,
		ContractValueDollars:   r.ContractValueDollars,
		SetAsideRecommendation: r.SetAsideRecommendation,
		MultipleAward:          r.MultipleAward,

		Buyer:                     entity.Person{ID: r.BuyerID, Display: r.BuyerName, Email: r.BuyerEmail},
		ContractingOfficer:        entity.Person{ID: r.ContractingOfficerID, Display: r.ContractingOfficerName, Email: r.ContractingOfficerEmail},
		SmallBusinessProfessional: entity.Person{ID: r.SmallBusinessProfessionalID, Display: r.SmallBusinessProfessionalName, Email: r.SmallBusinessProfessionalEmail},
		SBAPCR:                    entity.Person{ID: r.SBAPCRID, Display: r.SBAPCRName, Email: r.SBAPCREmail},
		CurrentAssignee:           entity.Person{ID: r.CurrentAssigneeID, Display: r.CurrentAssigneeName, Email: r.CurrentAssigneeEmail},

		CurrentStage:          entity.Stage(r.CurrentStage),
		CurrentStageStartDate: r.CurrentStageStartDate,
		Created:               r.Created,
		Modified:              r.Modified,

		Etag:    r.Etag,
		Deleted: r.Deleted,
	}

	windows := map[entity.Stage]entity.StageWindow{}
	add := func(s entity.Stage, start, end *time.Time) {
		if start != nil || end != nil {
			windows[s] = entity.StageWindow{Start: start, End: end}
		}
	}
	add(entity.StageBuyerReview, r.BuyerReviewStart, r.BuyerReviewEnd)
	add(entity.StageCOInitialReview, r.COInitialReviewStart, r.COInitialReviewEnd)
	add(entity.StageSBPReview, r.SBPReviewStart, r.SBPReviewEnd)
	add(entity.StageSBAPCRReview, r.SBAPCRReviewStart, r.SBAPCRReviewEnd)
	add(entity.StageCOFinalReview, r.COFinalReviewStart, r.COFinalReviewEnd)
	if len(windows) > 0 {
		p.StageWindows = windows
	}

	return p
}

// NoteRecord is the storage shape of a note, with the author expanded into
// id/name/email columns.
type NoteRecord struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	ProcessID   int64     `gorm:"not null;index"`
	Text        string    `gorm:"type:text;not null"`
	AuthorID    int64     `gorm:"not null;default:-1"`
	AuthorName  string    `gorm:"size:128"`
	AuthorEmail string    `gorm:"size:256"`
	Modified    time.Time `gorm:"not null;index"`
}

func (NoteRecord) TableName() string {
	return "notes"
}

func newNoteRecord(n *entity.Note) NoteRecord {
	return NoteRecord{
		ID:          n.ID,
		ProcessID:   n.ProcessID,
		Text:        n.Text,
		AuthorID:    n.Author.ID,
		AuthorName:  n.Author.Display,
		AuthorEmail: n.Author.Email,
		Modified:    n.Modified,
	}
}

func (r *NoteRecord) toNote() entity.Note {
	return entity.Note{
		ID:        r.ID,
		ProcessID: r.ProcessID,
		Text:      r.Text,
		Author:    entity.Person{ID: r.AuthorID, Display: r.AuthorName, Email: r.AuthorEmail},
		Modified:  r.Modified,
	}
}

// PCREmailRecord is the storage shape of a queued SBA PCR notification.
type PCREmailRecord struct {
	ID       int64     `gorm:"primaryKey;autoIncrement"`
	Title    string    `gorm:"size:32;not null;index"`
	Status   string    `gorm:"size:16;not null;index"`
	Modified time.Time `gorm:"not null;index"`
}

func (PCREmailRecord) TableName() string {
	return "pcr_emails"
}

func (r *PCREmailRecord) toPCREmail() entity.PCREmail {
	return entity.PCREmail{ID: r.ID, Title: r.Title, Status: r.Status, Modified: r.Modified}
}
