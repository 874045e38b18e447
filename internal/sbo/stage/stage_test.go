package stage

import (
	"testing"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
)

func TestSendTargetsPerStage(t *testing.T) {
	cases := []struct {
		from entity.Stage
		want []entity.Stage
	}{
		{entity.StageBuyerReview, []entity.Stage{entity.StageCOInitialReview}},
		{entity.StageCOInitialReview, []entity.Stage{entity.StageSBPReview}},
		{entity.StageSBPReview, []entity.Stage{entity.StageSBAPCRReview, entity.StageCOFinalReview}},
		{entity.StageSBAPCRReview, []entity.Stage{entity.StageCOFinalReview}},
		{entity.StageCOFinalReview, []entity.Stage{entity.StageCompleted}},
		{entity.StageCompleted, nil},
	}
	for _, c := range cases {
		got := SendTargets(c.from)
		if len(got) != len(c.want) {
			t.Errorf("%s: expected %d targets, got %v", c.from, len(c.want), got)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("%s: target %d = %s, want %s", c.from, i, got[i], c.want[i])
			}
		}
	}
}

func TestResolveSendTargetSingleEdge(t *testing.T) {
	// Empty choice resolves the one legal target.
	got, err := ResolveSendTarget(entity.StageBuyerReview, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != entity.StageCOInitialReview {
		t.Errorf("expected CO Initial Review, got %s", got)
	}

	// An explicit choice equal to the target is accepted.
	got, err = ResolveSendTarget(entity.StageBuyerReview, entity.StageCOInitialReview)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != entity.StageCOInitialReview {
		t.Errorf("expected CO Initial Review, got %s", got)
	}

	// Any other choice is rejected.
	if _, err := ResolveSendTarget(entity.StageBuyerReview, entity.StageCompleted); err == nil {
		t.Error("expected error for illegal target")
	}
}

func TestResolveSendTargetSBPRequiresChoice(t *testing.T) {
	if _, err := ResolveSendTarget(entity.StageSBPReview, ""); err == nil {
		t.Error("expected error when SBP Review target is omitted")
	}

	got, err := ResolveSendTarget(entity.StageSBPReview, entity.StageSBAPCRReview)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != entity.StageSBAPCRReview {
		t.Errorf("expected SBA PCR Review, got %s", got)
	}

	got, err = ResolveSendTarget(entity.StageSBPReview, entity.StageCOFinalReview)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != entity.StageCOFinalReview {
		t.Errorf("expected CO Final Review, got %s", got)
	}

	if _, err := ResolveSendTarget(entity.StageSBPReview, entity.StageBuyerReview); err == nil {
		t.Error("expected error for backward target on send")
	}
}

func TestResolveSendTargetCompletedIsTerminal(t *testing.T) {
	if _, err := ResolveSendTarget(entity.StageCompleted, ""); err == nil {
		t.Error("expected error sending from Completed")
	}
}

func TestReworkTargets(t *testing.T) {
	cases := []struct {
		from entity.Stage
		want entity.Stage
		ok   bool
	}{
		{entity.StageBuyerReview, "", false},
		{entity.StageCOInitialReview, entity.StageBuyerReview, true},
		{entity.StageSBPReview, entity.StageBuyerReview, true},
		{entity.StageSBAPCRReview, entity.StageSBPReview, true},
		{entity.StageCOFinalReview, entity.StageBuyerReview, true},
		{entity.StageCompleted, "", false},
	}
	for _, c := range cases {
		got, ok := ReworkTarget(c.from)
		if ok != c.ok {
			t.Errorf("%s: ok = %v, want %v", c.from, ok, c.ok)
			continue
		}
		if ok && got != c.want {
			t.Errorf("%s: target = %s, want %s", c.from, got, c.want)
		}
	}
}

func TestDefaultAssigneePerTarget(t *testing.T) {
	p := &entity.Process{
		Buyer:                     entity.Person{ID: 1, Display: "Buyer"},
		ContractingOfficer:        entity.Person{ID: 2, Display: "CO"},
		SmallBusinessProfessional: entity.Person{ID: 3, Display: "SBP"},
		SBAPCR:                    entity.Person{ID: 4, Display: "PCR"},
	}
	cases := []struct {
		target entity.Stage
		want   int64
	}{
		{entity.StageBuyerReview, 1},
		{entity.StageCOInitialReview, 2},
		{entity.StageSBPReview, 3},
		{entity.StageSBAPCRReview, 4},
		{entity.StageCOFinalReview, 2},
		{entity.StageCompleted, 1},
	}
	for _, c := range cases {
		got := DefaultAssignee(c.target, p)
		if got.ID != c.want {
			t.Errorf("%s: assignee id = %d, want %d", c.target, got.ID, c.want)
		}
	}
}

func TestDefaultAssigneeUnknownStage(t *testing.T) {
	got := DefaultAssignee(entity.Stage("Nonsense"), &entity.Process{})
	if got.ID != entity.PersonUnresolved {
		t.Errorf("expected unresolved person, got id %d", got.ID)
	}
}

func TestOrderedAndIndex(t *testing.T) {
	if len(Ordered) != 6 {
		t.Fatalf("expected 6 stages, got %d", len(Ordered))
	}
	for i, s := range Ordered {
		if Index(s) != i {
			t.Errorf("%s: index = %d, want %d", s, Index(s), i)
		}
		if !Valid(s) {
			t.Errorf("%s: expected valid", s)
		}
	}
	if Index(entity.Stage("Nonsense")) != -1 {
		t.Error("expected -1 for unknown stage")
	}
	if Valid(entity.Stage("Nonsense")) {
		t.Error("expected unknown stage to be invalid")
	}
}

func TestValidReworkReason(t *testing.T) {
	for _, r := range ReworkReasons {
		if !ValidReworkReason(r) {
			t.Errorf("%q: expected valid", r)
		}
	}
	if ValidReworkReason("") {
		t.Error("empty reason should be invalid")
	}
	if ValidReworkReason("Because") {
		t.Error("freeform reason should be invalid")
	}
}
