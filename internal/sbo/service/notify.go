package service

import (
	"context"
	"fmt"
	"log"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
	"github.com/OZI-SP-Dev/sbo-workflow/internal/shared/mailer"
)

// MailSender is the outbound email relay collaborator.
type MailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// ErrorReporter receives notification failures. Notifications are
// best-effort: a failed send never blocks or rolls back the workflow
// transition that triggered it, so failures land here instead of in the
// transition's result.
type ErrorReporter func(err error)

// Notifier composes and dispatches the workflow notification emails.
type Notifier struct {
	mail    MailSender
	baseURL string
	from    string
	report  ErrorReporter
}

// NewNotifier creates a dispatcher. A nil reporter falls back to log output.
func NewNotifier(mail MailSender, baseURL, from string, report ErrorReporter) *Notifier {
	if report == nil {
		report = func(err error) { log.Printf("[Notifier] %v", err) }
	}
	return &Notifier{mail: mail, baseURL: baseURL, from: from, report: report}
}

func (n *Notifier) link(p *entity.Process) string {
	return fmt.Sprintf("%s/processes/%d", n.baseURL, p.ID)
}

func (n *Notifier) send(ctx context.Context, msg mailer.Message) {
	if len(msg.To) == 0 {
		// No recipient resolved — skip silently, not an error.
		return
	}
	msg.From = n.from
	if err := n.mail.Send(ctx, msg); err != nil {
		n.report(fmt.Errorf("notification %q: %w", msg.Subject, err))
	}
}

// Submit tells the Buyer a newly created process has been assigned to them.
func (n *Notifier) Submit(ctx context.Context, p *entity.Process) {
	to := recipients(p.Buyer)
	body := fmt.Sprintf(
		"A new %s process for solicitation %s has been created and assigned to you.\r\n\r\n"+
			"You can view the process here: %s\r\n\r\n"+
			"This process will remain available for 90 days after completion.",
		p.ProcessType, p.SolicitationNumber, n.link(p))
	n.send(ctx, mailer.Message{
		To:      to,
		Subject: fmt.Sprintf("SBO Process %s: Submitted", p.SolicitationNumber),
		Body:    body,
	})
}

// Advance tells the new assignee the process has moved to them. The stage
// named in the message is the pre-transition label — the stage whose review
// just finished.
func (n *Notifier) Advance(ctx context.Context, p *entity.Process, from entity.Stage, note string) {
	body := fmt.Sprintf(
		"The %s process for solicitation %s has completed %s and is now assigned to you.\r\n",
		p.ProcessType, p.SolicitationNumber, from)
	if note != "" {
		body += fmt.Sprintf("\r\nNote from the previous reviewer:\r\n%s\r\n", note)
	}
	body += fmt.Sprintf("\r\nYou can view the process here: %s", n.link(p))
	n.send(ctx, mailer.Message{
		To:      recipients(p.CurrentAssignee),
		CC:      recipients(p.Buyer),
		Subject: fmt.Sprintf("SBO Process %s: New Assignment", p.SolicitationNumber),
		Body:    body,
	})
}

// Reject tells the new assignee the process was returned for rework. The
// note is mandatory for rework transitions and is always included.
func (n *Notifier) Reject(ctx context.Context, p *entity.Process, from entity.Stage, note string) {
	body := fmt.Sprintf(
		"The %s process for solicitation %s was returned for rework from %s and is now assigned to you.\r\n\r\n"+
			"%s\r\n\r\n"+
			"You can view the process here: %s",
		p.ProcessType, p.SolicitationNumber, from, note, n.link(p))
	n.send(ctx, mailer.Message{
		To:      recipients(p.CurrentAssignee),
		CC:      recipients(p.Buyer),
		Subject: fmt.Sprintf("SBO Process %s: Returned for Rework", p.SolicitationNumber),
		Body:    body,
	})
}

func recipients(people ...entity.Person) []string {
	out := make([]string, 0, len(people))
	for _, p := range people {
		if p.Email != "" {
			out = append(out, p.Email)
		}
	}
	return out
}
