package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/shared/mailer"
)

// PCRQueue is the queue side of the PCR email store the worker drains.
type PCRQueue interface {
	ListQueued(ctx context.Context) ([]entity.PCREmail, error)
	SetStatus(ctx context.Context, id int64, status string) error
}

// PCRWorker drains the SBA PCR email queue on an interval. Each queued
// record produces one email to the process's SBA PCR reviewer; the record
// then moves to Complete, or Errored when composition or delivery fails, so
// a bad record never wedges the queue.
type PCRWorker struct {
	queue     PCRQueue
	processes ProcessStore
	mail      MailSender
	baseURL   string
	interval  time.Duration
	log       *zap.Logger
}

func NewPCRWorker(queue PCRQueue, processes ProcessStore, mail MailSender, baseURL string, interval time.Duration, log *zap.Logger) *PCRWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PCRWorker{
		queue:     queue,
		processes: processes,
		mail:      mail,
		baseURL:   baseURL,
		interval:  interval,
		log:       log,
	}
}

// Run polls until the context is cancelled.
func (w *PCRWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick drains the queue once.
func (w *PCRWorker) Tick(ctx context.Context) {
	queued, err := w.queue.ListQueued(ctx)
	if err != nil {
		w.log.Warn("list queued pcr emails", zap.Error(err))
		return
	}
	for i := range queued {
		w.dispatch(ctx, &queued[i])
	}
}

func (w *PCRWorker) dispatch(ctx context.Context, rec *entity.PCREmail) {
	status := entity.PCREmailComplete
	if err := w.send(ctx, rec); err != nil {
		w.log.Warn("send pcr email", zap.String("title", rec.Title), zap.Error(err))
		status = entity.PCREmailErrored
	}
	if err := w.queue.SetStatus(ctx, rec.ID, status); err != nil {
		w.log.Warn("update pcr email status", zap.Int64("id", rec.ID), zap.Error(err))
	}
}

func (w *PCRWorker) send(ctx context.Context, rec *entity.PCREmail) error {
	processID, err := strconv.ParseInt(rec.Title, 10, 64)
	if err != nil {
		return fmt.Errorf("bad process reference %q: %w", rec.Title, err)
	}
	p, err := w.processes.FindByID(ctx, processID)
	if err != nil {
		return fmt.Errorf("load process %d: %w", processID, err)
	}
	to := recipients(p.SBAPCR)
	if len(to) == 0 {
		return fmt.Errorf("process %d has no SBA PCR email address", processID)
	}
	body := fmt.Sprintf(
		"The %s process for solicitation %s is ready for SBA PCR review.\r\n\r\n"+
			"You can view the process here: %s/processes/%d",
		p.ProcessType, p.SolicitationNumber, w.baseURL, p.ID)
	return w.mail.Send(ctx, mailer.Message{
		To:      to,
		CC:      recipients(p.Buyer),
		Subject: fmt.Sprintf("SBO Process %s: SBA PCR Review Requested", p.SolicitationNumber),
		Body:    body,
	})
}
