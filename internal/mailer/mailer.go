// Package mailer is the outbound delivery collaborator. The dispatcher's
// contract ends at durable notification rows; this package is the out-of-band
// side that turns rows into email.
package mailer

//go:generate mockgen -source=mailer.go -destination=mocks/mocks.go -package=mocks Mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Message is the delivery payload handed to the collaborator.
type Message struct {
	From     string
	To       []string
	Subject  string
	HTMLBody string
}

// Mailer delivers a message. Implementations report failure; callers log it
// and move on, they never roll back the mutation that produced the message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers over plain SMTP.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
}

func NewSMTP(addr string, auth smtp.Auth) *SMTPMailer {
	return &SMTPMailer{addr: addr, auth: auth}
}

func (m *SMTPMailer) Send(_ context.Context, msg Message) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)

	if err := smtp.SendMail(m.addr, m.auth, msg.From, msg.To, []byte(b.String())); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// LogMailer writes deliveries to the log instead of the wire. Default in
// development when no SMTP address is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.InfoContext(ctx, "mail delivery (log only)",
		"to", strings.Join(msg.To, ","),
		"subject", msg.Subject,
	)
	return nil
}
