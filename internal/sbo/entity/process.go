package entity

import (
	"time"
)

// Stage is one of the six ordered states a process occupies.
type Stage string

const (
	StageBuyerReview     Stage = "Buyer Review"
	StageCOInitialReview Stage = "CO Initial Review"
	StageSBPReview       Stage = "SBP Review"
	StageSBAPCRReview    Stage = "SBA PCR Review"
	StageCOFinalReview   Stage = "CO Final Review"
	StageCompleted       Stage = "Completed"
)

// Process types — the two small-business coordination forms tracked by the system
const (
	ProcessTypeDD2579 = "DD2579"
	ProcessTypeISP    = "ISP"
)

// Parent organizations (MAJCOMs) — static enumeration used with Org reference data
const (
	ParentOrgACC  = "ACC"
	ParentOrgAETC = "AETC"
	ParentOrgAFMC = "AFMC"
	ParentOrgAMC  = "AMC"
	ParentOrgUSSF = "USSF"
)

// ParentOrgs lists every valid parent organization.
var ParentOrgs = []string{ParentOrgACC, ParentOrgAETC, ParentOrgAFMC, ParentOrgAMC, ParentOrgUSSF}

// Set-aside recommendations, required on DD2579 processes only
const (
	SetAsideSmallBusiness = "Small Business Set-Aside"
	SetAside8aCompetitive = "8(a) Competitive"
	SetAside8aSoleSource  = "8(a) Sole Source"
	SetAsideHUBZone       = "HUBZone"
	SetAsideSDVOSB        = "SDVOSB"
	SetAsideWOSB          = "WOSB/EDWOSB"
	SetAsideFullOpen      = "Full and Open Competition"
	SetAsideOther         = "Other"
)

// SetAsideRecommendations lists every valid set-aside value.
var SetAsideRecommendations = []string{
	SetAsideSmallBusiness,
	SetAside8aCompetitive,
	SetAside8aSoleSource,
	SetAsideHUBZone,
	SetAsideSDVOSB,
	SetAsideWOSB,
	SetAsideFullOpen,
	SetAsideOther,
}

// PersonUnresolved is the ID signalling a person reference that has not been
// resolved against the user directory.
const PersonUnresolved int64 = -1

// Person is a lightweight reference into the user directory.
type Person struct {
	ID      int64  `json:"id"`
	Display string `json:"display"`
	Email   string `json:"email"`
}

// Resolved reports whether the reference points at a directory entry.
func (p Person) Resolved() bool {
	return p.ID != PersonUnresolved && p.ID != 0
}

// StageWindow is a per-stage start/end timestamp pair kept for reporting.
type StageWindow struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Process is a tracked multi-stage small-business coordination case.
// ID <= 0 marks an unsaved draft. Etag is the opaque optimistic-concurrency
// token: it must be sent back unchanged on update and is replaced by the
// value the store returns after a successful write.
type Process struct {
	ID          int64  `json:"id"`
	ProcessType string `json:"process_type"`

	SolicitationNumber      string `json:"solicitation_number"`
	ProgramName             string `json:"program_name"`
	ParentOrg               string `json:"parent_org"`
	Org                     string `json:"org"`
	SboDuration             int    `json:"sbo_duration"`
	ContractValueDollars    string `json:"contract_value_dollars"`
	SetAsideRecommendation  string `json:"set_aside_recommendation"`
	MultipleAward           bool   `json:"multiple_award"`

	Buyer                     Person `json:"buyer"`
	ContractingOfficer        Person `json:"contracting_officer"`
	SmallBusinessProfessional Person `json:"small_business_professional"`
	SBAPCR                    Person `json:"sba_pcr"`
	CurrentAssignee           Person `json:"current_assignee"`

	CurrentStage          Stage     `json:"current_stage"`
	CurrentStageStartDate time.Time `json:"current_stage_start_date"`
	Created               time.Time `json:"created"`
	Modified              time.Time `json:"modified"`

	// Reporting-only stage windows, keyed by stage (Completed has none).
	StageWindows map[Stage]StageWindow `json:"stage_windows,omitempty"`

	Etag    string `json:"etag"`
	Deleted bool   `json:"-"`
}

// Saved reports whether the process has been persisted.
func (p *Process) Saved() bool {
	return p.ID > 0
}
