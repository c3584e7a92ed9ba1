package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"
)

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Send delivers an HTML email. gomail has no context support, so ctx is only
// checked before dialing.
func (m *SMTP) Send(ctx context.Context, to, subject, htmlBody string) error {
	const op = "mailer.Send"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Log stands in for SMTP when email delivery is disabled.
type Log struct {
	Log *slog.Logger
}

// Send logs the recipient at info. The body carries live single-use links
// and is only logged at debug.
func (m *Log) Send(ctx context.Context, to, subject, htmlBody string) error {
	log := m.Log.With(
		slog.String("to", to),
		slog.String("subject", subject),
	)

	log.Info("email delivery disabled, message dropped")
	log.DebugContext(ctx, "dropped message body", slog.String("body", htmlBody))

	return nil
}
