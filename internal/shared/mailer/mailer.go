// Package mailer is the outbound email relay. It speaks plain SMTP; the
// workflow composes messages and treats delivery as a best-effort side
// effect, so every failure here is reported by the caller rather than
// propagated into the transition result.
package mailer

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// Message is one outbound email. An empty To list makes Send a silent no-op.
type Message struct {
	To      []string
	CC      []string
	From    string
	Subject string
	Body    string
}

// SMTPMailer relays messages through one SMTP endpoint.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// New creates a relay client. An empty host leaves the relay disabled:
// sends are logged and dropped, which keeps development environments
// working without a mail server.
func New(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send relays one message. The configured from address is used when the
// message does not carry its own.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	from := msg.From
	if from == "" {
		from = m.from
	}

	if m.host == "" {
		log.Printf("[Mailer] SMTP not configured, dropping %q to %s", msg.Subject, strings.Join(msg.To, ", "))
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	if len(msg.CC) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(msg.CC, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)

	recipients := append(append([]string{}, msg.To...), msg.CC...)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := smtp.SendMail(addr, auth, from, recipients, []byte(b.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", strings.Join(msg.To, ", "), err)
	}
	return nil
}
