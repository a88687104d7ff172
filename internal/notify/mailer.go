// Package notify renders and delivers alert and digest emails, enforcing the
// per-alert frequency cap and (alert, fare) de-duplication.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"flightmatrix/internal/config"
)

// Mailer delivers one rendered message. The transport is an external
// collaborator; everything above it only sees success or failure.
type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// SMTPMailer sends plain-text mail through a single SMTP relay.
type SMTPMailer struct {
	From string
	SMTP config.SMTPConfig
}

func (m *SMTPMailer) Send(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.From)
	fmt.Fprintf(&msg, "To: %s\r\n", recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.SMTP.Host, m.SMTP.Port)
	var auth smtp.Auth
	if m.SMTP.Username != "" {
		auth = smtp.PlainAuth("", m.SMTP.Username, m.SMTP.Password, m.SMTP.Host)
	}
	if err := smtp.SendMail(addr, auth, m.From, []string{recipient}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", recipient, err)
	}
	return nil
}
