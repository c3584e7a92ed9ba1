package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"bookly/internal/lib/logger/sl"
	"bookly/internal/models"
)

const (
	SubjectVerification  = "Verify Your email"
	SubjectPasswordReset = "Reset Your Password"
)

var (
	verificationTmpl = template.Must(template.New("verification").Parse(
		`<h1>Verify your Email</h1>
<p>Please click this <a href="{{.Link}}">link</a> to verify your email</p>
<p>This link will expire in {{.Expires}}</p>
`))

	passwordResetTmpl = template.Must(template.New("password_reset").Parse(
		`<h1>Reset Your Password</h1>
<p>Please click this <a href="{{.Link}}">link</a> to reset your password</p>
<p>This link will expire in {{.Expires}}</p>
`))
)

type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type Publisher interface {
	Publish(ctx context.Context, msg models.Message) error
}

type Options struct {
	BaseURL             string
	VerificationMaxAge  time.Duration
	PasswordResetMaxAge time.Duration
	// Timeout bounds one background delivery.
	Timeout time.Duration
}

// Dispatcher renders emails and hands them off without making the caller
// wait. With a publisher, messages go to the queue; otherwise they are sent
// from a background goroutine.
type Dispatcher struct {
	log       *slog.Logger
	notifier  Notifier
	publisher Publisher
	opts      Options

	wg sync.WaitGroup
}

func New(log *slog.Logger, notifier Notifier, publisher Publisher, opts Options) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	return &Dispatcher{
		log:       log,
		notifier:  notifier,
		publisher: publisher,
		opts:      opts,
	}
}

func (d *Dispatcher) SendVerificationEmail(ctx context.Context, email, token string) {
	d.dispatch(ctx, email, SubjectVerification, verificationTmpl, d.link("auth/verify", token), d.opts.VerificationMaxAge)
}

func (d *Dispatcher) SendPasswordResetEmail(ctx context.Context, email, token string) {
	d.dispatch(ctx, email, SubjectPasswordReset, passwordResetTmpl, d.link("auth/password-reset-confirm", token), d.opts.PasswordResetMaxAge)
}

// Wait blocks until background deliveries started so far have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) link(path, token string) string {
	return strings.TrimRight(d.opts.BaseURL, "/") + "/" + path + "/" + url.PathEscape(token)
}

func (d *Dispatcher) dispatch(ctx context.Context, to, subject string, tmpl *template.Template, link string, expires time.Duration) {
	const op = "email.dispatch"

	log := d.log.With(
		slog.String("op", op),
		slog.String("subject", subject),
	)

	body, err := render(tmpl, link, expires)
	if err != nil {
		log.Error("failed to render email", sl.Err(err))
		return
	}

	msg := models.Message{Email: to, Subject: subject, Body: body}

	// Detach from the request so a finished response does not cancel delivery.
	ctx = context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()

		if err := d.deliver(ctx, msg); err != nil {
			log.Error("failed to deliver email", sl.Err(err))
			return
		}

		log.Debug("email handed off")
	}()
}

func (d *Dispatcher) deliver(ctx context.Context, msg models.Message) error {
	if d.publisher != nil {
		return d.publisher.Publish(ctx, msg)
	}

	return d.notifier.Send(ctx, msg.Email, msg.Subject, msg.Body)
}

func render(tmpl *template.Template, link string, expires time.Duration) (string, error) {
	const op = "email.render"

	var buf bytes.Buffer

	err := tmpl.Execute(&buf, struct {
		Link    string
		Expires string
	}{
		Link:    link,
		Expires: humanize(expires),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return buf.String(), nil
}

func humanize(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	default:
		return d.String()
	}
}
