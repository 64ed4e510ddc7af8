package notify

import (
	"RefStack-Backend/internal/config"
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// NopMailer drops every message.
type NopMailer struct{}

func (NopMailer) Send(context.Context, string, string, string) error { return nil }

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer returns an SMTPMailer when a host is configured and a NopMailer otherwise.
func NewMailer(cfg config.SMTP) Mailer {
	if cfg.Host == "" {
		return NopMailer{}
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
