// Package stage holds the pure state-machine logic that moves a process
// through its review stages. Transition and assignee derivation are total
// lookups over the closed stage set; undefined edges are first-class
// (ok=false) results rather than errors.
package stage

import (
	"fmt"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
)

// Ordered lists the stages in workflow order. SBA PCR Review is an optional
// side branch off SBP Review but still carries a fixed position for ordering
// and reporting.
var Ordered = []entity.Stage{
	entity.StageBuyerReview,
	entity.StageCOInitialReview,
	entity.StageSBPReview,
	entity.StageSBAPCRReview,
	entity.StageCOFinalReview,
	entity.StageCompleted,
}

var indexOf = func() map[entity.Stage]int {
	m := make(map[entity.Stage]int, len(Ordered))
	for i, s := range Ordered {
		m[s] = i
	}
	return m
}()

// Index returns the position of s in workflow order, or -1 for an unknown
// stage value.
func Index(s entity.Stage) int {
	if i, ok := indexOf[s]; ok {
		return i
	}
	return -1
}

// Valid reports whether s is one of the six defined stages.
func Valid(s entity.Stage) bool {
	return Index(s) >= 0
}

// sendEdges maps each stage to its legal forward targets. SBP Review is the
// one stage with two legal targets: route through SBA PCR Review or skip
// straight to CO Final Review — the caller chooses. Completed is terminal.
var sendEdges = map[entity.Stage][]entity.Stage{
	entity.StageBuyerReview:     {entity.StageCOInitialReview},
	entity.StageCOInitialReview: {entity.StageSBPReview},
	entity.StageSBPReview:       {entity.StageSBAPCRReview, entity.StageCOFinalReview},
	entity.StageSBAPCRReview:    {entity.StageCOFinalReview},
	entity.StageCOFinalReview:   {entity.StageCompleted},
	entity.StageCompleted:       nil,
}

// reworkEdges maps each stage to its single backward target. SBA PCR Review
// always reworks to SBP Review regardless of how the process got there;
// Buyer Review and Completed have no rework target.
var reworkEdges = map[entity.Stage]entity.Stage{
	entity.StageCOInitialReview: entity.StageBuyerReview,
	entity.StageSBPReview:       entity.StageBuyerReview,
	entity.StageCOFinalReview:   entity.StageBuyerReview,
	entity.StageSBAPCRReview:    entity.StageSBPReview,
}

// SendTargets returns the legal forward targets from s, in preference order.
// Empty for Completed.
func SendTargets(s entity.Stage) []entity.Stage {
	edges := sendEdges[s]
	out := make([]entity.Stage, len(edges))
	copy(out, edges)
	return out
}

// ResolveSendTarget computes the forward target for a Send from the given
// stage. Stages with a single deterministic target accept an empty choice
// (or a choice equal to that target). SBP Review requires an explicit choice
// between its two legal targets. Any other combination is an error.
func ResolveSendTarget(from, chosen entity.Stage) (entity.Stage, error) {
	edges := sendEdges[from]
	if len(edges) == 0 {
		return "", fmt.Errorf("stage %q has no send target", from)
	}
	if len(edges) == 1 {
		if chosen != "" && chosen != edges[0] {
			return "", fmt.Errorf("stage %q sends only to %q, not %q", from, edges[0], chosen)
		}
		return edges[0], nil
	}
	if chosen == "" {
		return "", fmt.Errorf("stage %q requires an explicit target (%q or %q)", from, edges[0], edges[1])
	}
	for _, e := range edges {
		if chosen == e {
			return chosen, nil
		}
	}
	return "", fmt.Errorf("stage %q cannot send to %q", from, chosen)
}

// ReworkTarget returns the backward target for a Rework from s, with
// ok=false exactly for Buyer Review and Completed.
func ReworkTarget(s entity.Stage) (entity.Stage, bool) {
	t, ok := reworkEdges[s]
	return t, ok
}

// DefaultAssignee derives the suggested assignee for the target stage. It is
// a pure function of the target stage: the UI may override the suggestion
// with any resolved person before submission.
func DefaultAssignee(target entity.Stage, p *entity.Process) entity.Person {
	switch target {
	case entity.StageBuyerReview:
		return p.Buyer
	case entity.StageCOInitialReview:
		return p.ContractingOfficer
	case entity.StageSBPReview:
		return p.SmallBusinessProfessional
	case entity.StageSBAPCRReview:
		return p.SBAPCR
	case entity.StageCOFinalReview:
		return p.ContractingOfficer
	case entity.StageCompleted:
		return p.Buyer
	}
	return entity.Person{ID: entity.PersonUnresolved}
}

// Rework reasons — fixed enumeration prepended to the rework note body
const (
	ReasonIncompleteDocs    = "Incomplete Documentation"
	ReasonIncorrectSetAside = "Incorrect Set-Aside Recommendation"
	ReasonMarketResearch    = "Additional Market Research Required"
	ReasonPricing           = "Pricing/Contract Value Issue"
	ReasonOther             = "Other"
)

// ReworkReasons lists every valid rework reason.
var ReworkReasons = []string{
	ReasonIncompleteDocs,
	ReasonIncorrectSetAside,
	ReasonMarketResearch,
	ReasonPricing,
	ReasonOther,
}

// ValidReworkReason reports whether reason is one of the fixed values.
func ValidReworkReason(reason string) bool {
	for _, r := range ReworkReasons {
		if r == reason {
			return true
		}
	}
	return false
}
