// Package mail delivers one-time codes by email.
package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"

	"github.com/pagekeep/diary/internal/api/metrics"
	"github.com/pagekeep/diary/internal/core/domain"
)

const subject = "Your sign-in code"

// Config holds the SMTP settings. An empty Host selects the log mailer.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// BaseURL is the public address of the app, linked from the email body.
	BaseURL string
}

// SMTPMailer sends codes through an SMTP relay.
type SMTPMailer struct {
	client  *gomail.Client
	from    string
	baseURL string
	log     zerolog.Logger
}

// NewSMTPMailer prepares a client; no connection is made until the first send.
func NewSMTPMailer(cfg Config, log zerolog.Logger) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.From, baseURL: cfg.BaseURL, log: log}, nil
}

func (m *SMTPMailer) SendOTP(ctx context.Context, email, code string) error {
	msg, err := newCodeMessage(m.from, email, code, m.baseURL)
	if err != nil {
		metrics.MailDeliveriesTotal.WithLabelValues("error").Inc()
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		metrics.MailDeliveriesTotal.WithLabelValues("error").Inc()
		m.log.Error().Err(err).Str("email", email).Msg("smtp delivery failed")
		return fmt.Errorf("smtp send: %w", err)
	}
	metrics.MailDeliveriesTotal.WithLabelValues("sent").Inc()
	m.log.Info().Str("email", email).Msg("code email sent")
	return nil
}

// LogMailer writes codes to the log instead of sending them. It is meant for
// local development where no SMTP relay is configured.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendOTP(_ context.Context, email, code string) error {
	metrics.MailDeliveriesTotal.WithLabelValues("logged").Inc()
	m.log.Warn().Str("email", email).Str("code", code).Msg("smtp not configured, code not emailed")
	return nil
}

func newCodeMessage(from, to, code, baseURL string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)

	body := fmt.Sprintf("Your sign-in code is %s.\n\nIt expires in %d minutes. If you did not ask for it, ignore this email.\n",
		code, int(domain.TokenTTL.Minutes()))
	if baseURL != "" {
		body += fmt.Sprintf("\nEnter it at %s/sign-in\n", strings.TrimRight(baseURL, "/"))
	}
	msg.SetBodyString(gomail.TypeTextPlain, body)
	return msg, nil
}
