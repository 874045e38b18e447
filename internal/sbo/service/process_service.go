package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/paging"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/stage"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/validate"
)

// ProcessStore is the persistence collaborator for processes.
type ProcessStore interface {
	FetchPage(ctx context.Context, q paging.Query, cursor string, size int) ([]entity.Process, string, error)
	FindByID(ctx context.Context, id int64) (*entity.Process, error)
	Create(ctx context.Context, p *entity.Process) (*entity.Process, error)
	Update(ctx context.Context, p *entity.Process) (*entity.Process, error)
	SoftDelete(ctx context.Context, id int64) error
}

// NoteStore is the persistence collaborator for process notes.
type NoteStore interface {
	ListByProcess(ctx context.Context, processID int64) ([]entity.Note, error)
	Create(ctx context.Context, processID int64, text string, author entity.Person) (*entity.Note, error)
	DeleteAllForProcess(ctx context.Context, processID int64) error
}

// PCREmailStore is the persistence collaborator for the SBA PCR email queue.
type PCREmailStore interface {
	LatestForProcess(ctx context.Context, processID int64) (*entity.PCREmail, error)
	Enqueue(ctx context.Context, processID int64) (*entity.PCREmail, error)
	DeleteAllForProcess(ctx context.Context, processID int64) error
}

// OrgSource supplies the org reference rows validation checks against.
type OrgSource interface {
	FetchAll(ctx context.Context) ([]entity.Org, error)
}

// ProcessService implements the process lifecycle: create, update, delete,
// and the stage transitions. Persistence is the commit point for every
// operation — side effects (notes, notification emails, the PCR queue) run
// only after a successful write and are each isolated, so one failing never
// suppresses the others or the operation's success.
type ProcessService struct {
	processes ProcessStore
	notes     NoteStore
	pcrEmails PCREmailStore
	orgs      OrgSource
	notifier  *Notifier
	sessions  *paging.Sessions
	log       *zap.Logger
}

func NewProcessService(
	processes ProcessStore,
	notes NoteStore,
	pcrEmails PCREmailStore,
	orgs OrgSource,
	notifier *Notifier,
	sessions *paging.Sessions,
	log *zap.Logger,
) *ProcessService {
	return &ProcessService{
		processes: processes,
		notes:     notes,
		pcrEmails: pcrEmails,
		orgs:      orgs,
		notifier:  notifier,
		sessions:  sessions,
		log:       log,
	}
}

// TransitionRequest describes one Send or Rework submission.
type TransitionRequest struct {
	ProcessID int64
	Action    string // "send" or "rework"

	// Target disambiguates the one stage with two forward edges (SBP
	// Review); empty everywhere else.
	Target entity.Stage

	// Assignee overrides the derived default when non-nil. It must be a
	// resolved person.
	Assignee *entity.Person

	// ReworkReason is required for rework; it is prepended to the note.
	ReworkReason string

	// Note is optional on send, mandatory on rework.
	Note string

	// Etag is the concurrency token the caller last saw.
	Etag string

	// Actor is the submitting user, recorded as the author of any note
	// created by the transition.
	Actor entity.Person
}

const (
	ActionSend   = "send"
	ActionRework = "rework"
)

// TransitionResult is the outcome of a successful transition. Warnings name
// side effects that failed after the stage change was already persisted.
type TransitionResult struct {
	Process  *entity.Process `json:"process"`
	Warnings []string        `json:"warnings,omitempty"`
}

// Pager returns the paged listing bound to the session key.
func (s *ProcessService) Pager(sessionKey string) *paging.Pager {
	return s.sessions.Get(sessionKey)
}

// Get returns one live process.
func (s *ProcessService) Get(ctx context.Context, id int64) (*entity.Process, error) {
	return s.processes.FindByID(ctx, id)
}

// Create validates and persists a new process, places it at Buyer Review
// assigned to the Buyer, and notifies the Buyer. The notification is best
// effort and never fails the create.
func (s *ProcessService) Create(ctx context.Context, p *entity.Process) (*entity.Process, error) {
	if err := s.validateProcess(ctx, p); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p.CurrentStage = entity.StageBuyerReview
	p.CurrentAssignee = stage.DefaultAssignee(entity.StageBuyerReview, p)
	p.CurrentStageStartDate = now
	p.StageWindows = map[entity.Stage]entity.StageWindow{
		entity.StageBuyerReview: {Start: &now},
	}

	saved, err := s.processes.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create process: %w", err)
	}

	s.notifier.Submit(ctx, saved)
	s.sessions.InvalidateAll()
	return saved, nil
}

// Update validates and persists edits to a process's fields. Stage,
// assignee, and window state are owned by Transition and are carried over
// from the stored row, not taken from the caller.
func (s *ProcessService) Update(ctx context.Context, p *entity.Process) (*entity.Process, error) {
	if err := s.validateProcess(ctx, p); err != nil {
		return nil, err
	}

	current, err := s.processes.FindByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.CurrentStage = current.CurrentStage
	p.CurrentAssignee = current.CurrentAssignee
	p.CurrentStageStartDate = current.CurrentStageStartDate
	p.StageWindows = current.StageWindows
	p.Created = current.Created

	saved, err := s.processes.Update(ctx, p)
	if err != nil {
		return nil, err
	}
	s.sessions.InvalidateAll()
	return saved, nil
}

// Delete soft-deletes the process and clears its dependent notes and PCR
// email records. The dependent cleanup is best effort: a failure there is
// logged but the delete has already committed.
func (s *ProcessService) Delete(ctx context.Context, id int64) error {
	if err := s.processes.SoftDelete(ctx, id); err != nil {
		return err
	}
	if err := s.notes.DeleteAllForProcess(ctx, id); err != nil {
		s.log.Warn("delete process notes", zap.Int64("process_id", id), zap.Error(err))
	}
	if err := s.pcrEmails.DeleteAllForProcess(ctx, id); err != nil {
		s.log.Warn("delete process pcr emails", zap.Int64("process_id", id), zap.Error(err))
	}
	s.sessions.InvalidateAll()
	return nil
}

// Transition moves a process along one workflow edge. The sequence is:
// resolve the target stage, derive or accept the new assignee, check the
// gates, stamp the stage windows, persist with the caller's concurrency
// token, and only then run the side effects. A persistence failure —
// including a stale token — aborts everything; side-effect failures after
// the write surface as warnings on the result.
func (s *ProcessService) Transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	if req.Etag == "" {
		return nil, &TransitionError{Reason: "the process etag is required"}
	}
	p, err := s.processes.FindByID(ctx, req.ProcessID)
	if err != nil {
		return nil, err
	}
	from := p.CurrentStage

	var target entity.Stage
	switch req.Action {
	case ActionSend:
		target, err = stage.ResolveSendTarget(from, req.Target)
		if err != nil {
			return nil, &TransitionError{Reason: err.Error()}
		}
	case ActionRework:
		t, ok := stage.ReworkTarget(from)
		if !ok {
			return nil, &TransitionError{Reason: fmt.Sprintf("stage %q has no rework target", from)}
		}
		target = t
		if !stage.ValidReworkReason(req.ReworkReason) {
			return nil, &TransitionError{Reason: "a rework reason must be selected"}
		}
		if req.Note == "" {
			return nil, &TransitionError{Reason: "a note is required when sending a process back for rework"}
		}
	default:
		return nil, &TransitionError{Reason: fmt.Sprintf("unknown transition action %q", req.Action)}
	}

	assignee := stage.DefaultAssignee(target, p)
	if req.Assignee != nil {
		assignee = *req.Assignee
	}
	if assignee.Display == "" {
		return nil, &TransitionError{Reason: fmt.Sprintf("no assignee available for stage %q", target)}
	}

	now := time.Now().UTC()
	if p.StageWindows == nil {
		p.StageWindows = map[entity.Stage]entity.StageWindow{}
	}
	w := p.StageWindows[from]
	w.End = &now
	p.StageWindows[from] = w
	if target != entity.StageCompleted {
		tw := p.StageWindows[target]
		tw.Start = &now
		tw.End = nil
		p.StageWindows[target] = tw
	}

	p.CurrentStage = target
	p.CurrentAssignee = assignee
	p.CurrentStageStartDate = now
	p.Etag = req.Etag

	saved, err := s.processes.Update(ctx, p)
	if err != nil {
		return nil, err
	}

	// Commit point passed. Everything below is best effort.
	var warnings []string

	noteText := req.Note
	if req.Action == ActionRework {
		noteText = fmt.Sprintf("Rework Reason: %s\n\n%s", req.ReworkReason, req.Note)
	}
	if noteText != "" {
		if _, err := s.notes.Create(ctx, saved.ID, noteText, req.Actor); err != nil {
			s.log.Warn("transition note", zap.Int64("process_id", saved.ID), zap.Error(err))
			warnings = append(warnings, "the stage change was saved but the note could not be recorded")
		}
	}

	if target == entity.StageSBAPCRReview {
		if _, err := s.pcrEmails.Enqueue(ctx, saved.ID); err != nil {
			s.log.Warn("enqueue pcr email", zap.Int64("process_id", saved.ID), zap.Error(err))
			warnings = append(warnings, "the stage change was saved but the SBA PCR notification could not be queued")
		}
	}

	switch req.Action {
	case ActionSend:
		s.notifier.Advance(ctx, saved, from, req.Note)
	case ActionRework:
		s.notifier.Reject(ctx, saved, from, noteText)
	}

	s.sessions.InvalidateAll()
	return &TransitionResult{Process: saved, Warnings: warnings}, nil
}

// Notes returns the process's notes, newest first.
func (s *ProcessService) Notes(ctx context.Context, processID int64) ([]entity.Note, error) {
	if _, err := s.processes.FindByID(ctx, processID); err != nil {
		return nil, err
	}
	return s.notes.ListByProcess(ctx, processID)
}

// AddNote records a user-authored note on the process.
func (s *ProcessService) AddNote(ctx context.Context, processID int64, text string, author entity.Person) (*entity.Note, error) {
	if text == "" {
		return nil, &TransitionError{Reason: "note text is required"}
	}
	if _, err := s.processes.FindByID(ctx, processID); err != nil {
		return nil, err
	}
	return s.notes.Create(ctx, processID, text, author)
}

// PCRStatus returns the latest SBA PCR email record for the process, or nil
// when none has been queued.
func (s *ProcessService) PCRStatus(ctx context.Context, processID int64) (*entity.PCREmail, error) {
	return s.pcrEmails.LatestForProcess(ctx, processID)
}

func (s *ProcessService) validateProcess(ctx context.Context, p *entity.Process) error {
	orgs, err := s.orgs.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("load orgs for validation: %w", err)
	}
	report := validate.Process(p, orgs)
	if report.IsErrored() {
		return &ValidationError{Report: report}
	}
	return nil
}
