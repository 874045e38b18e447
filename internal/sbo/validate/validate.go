// Package validate implements the field-level rules that gate process
// creation and stage-transition submission. Validation never produces an
// error value: every rule is evaluated and the result is a per-field report
// the presentation layer renders inline.
package validate

import (
	"strings"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
)

const maxTextLen = 255

// maxDollarDigits caps the integer portion of the contract value; anything
// longer is treated as an entry error rather than a real dollar amount.
const maxDollarDigits = 13

// SolicitationDisallowed holds the characters rejected in solicitation
// numbers: the number becomes a document folder name downstream.
const SolicitationDisallowed = `#%"*:<>?/\|`

// Field error messages
const (
	MsgRequired        = "This field is required"
	MsgTooLong         = "This field cannot exceed 255 characters"
	MsgBadChars        = `This field cannot contain any of the characters # % " * : < > ? / \ |`
	MsgUnknownOrg      = "Org must match a known organization for the selected parent org"
	MsgPersonRequired  = "A person must be selected for this field"
	MsgDurationInvalid = "Duration must be greater than zero"
	MsgValueTooLarge   = "Contract value is too large"
	MsgBadSetAside     = "A set-aside recommendation must be selected"
)

// Report carries one message-or-empty-string per validated field.
type Report struct {
	SolicitationNumber        string `json:"solicitation_number,omitempty"`
	ProgramName               string `json:"program_name,omitempty"`
	Org                       string `json:"org,omitempty"`
	Buyer                     string `json:"buyer,omitempty"`
	ContractingOfficer        string `json:"contracting_officer,omitempty"`
	SmallBusinessProfessional string `json:"small_business_professional,omitempty"`
	SboDuration               string `json:"sbo_duration,omitempty"`
	ContractValueDollars      string `json:"contract_value_dollars,omitempty"`
	SetAsideRecommendation    string `json:"set_aside_recommendation,omitempty"`
}

// IsErrored reports whether any field carries a message.
func (r Report) IsErrored() bool {
	return r != (Report{})
}

// Process evaluates every rule against the candidate; no short-circuiting
// across fields.
func Process(p *entity.Process, knownOrgs []entity.Org) Report {
	return Report{
		SolicitationNumber:        solicitationNumber(p.SolicitationNumber),
		ProgramName:               singleLineText(p.ProgramName),
		Org:                       org(p.Org, p.ParentOrg, knownOrgs),
		Buyer:                     person(p.Buyer),
		ContractingOfficer:        person(p.ContractingOfficer),
		SmallBusinessProfessional: person(p.SmallBusinessProfessional),
		SboDuration:               duration(p.SboDuration),
		ContractValueDollars:      contractValue(p.ContractValueDollars),
		SetAsideRecommendation:    setAside(p.ProcessType, p.SetAsideRecommendation),
	}
}

func singleLineText(v string) string {
	if v == "" {
		return MsgRequired
	}
	if len(v) > maxTextLen {
		return MsgTooLong
	}
	return ""
}

// solicitationNumber layers the character restriction on top of the plain
// text rules; the character check wins when both would fail.
func solicitationNumber(v string) string {
	if v == "" {
		return MsgRequired
	}
	if strings.ContainsAny(v, SolicitationDisallowed) {
		return MsgBadChars
	}
	if len(v) > maxTextLen {
		return MsgTooLong
	}
	return ""
}

func org(org, parentOrg string, known []entity.Org) string {
	for _, o := range known {
		if o.Title == org && o.ParentOrg == parentOrg {
			return ""
		}
	}
	return MsgUnknownOrg
}

func person(p entity.Person) string {
	if p.Display == "" {
		return MsgPersonRequired
	}
	return ""
}

func duration(d int) string {
	if d <= 0 {
		return MsgDurationInvalid
	}
	return ""
}

// contractValue treats the value as a currency-formatted string: required,
// and the integer portion (digits before any decimal point, ignoring "$" and
// comma separators) may not exceed 13 digits.
func contractValue(v string) string {
	if v == "" {
		return MsgRequired
	}
	intPart := v
	if i := strings.IndexByte(v, '.'); i >= 0 {
		intPart = v[:i]
	}
	digits := 0
	for _, c := range intPart {
		if c >= '0' && c <= '9' {
			digits++
		}
	}
	if digits > maxDollarDigits {
		return MsgValueTooLarge
	}
	return ""
}

// setAside is required and constrained only for DD2579; ISP always passes.
func setAside(processType, v string) string {
	if processType != entity.ProcessTypeDD2579 {
		return ""
	}
	for _, s := range entity.SetAsideRecommendations {
		if s == v {
			return ""
		}
	}
	return MsgBadSetAside
}
