package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"smartbrief/internal/domain"

	"github.com/wneessen/go-mail"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     From
	Timeout  time.Duration
}

// SMTP submits mail over implicit TLS. The connection is encrypted before
// the SMTP greeting; STARTTLS upgrades are never used.
type SMTP struct {
	client *mail.Client
	from   From
	log    *slog.Logger
}

func NewSMTP(cfg SMTPConfig, log *slog.Logger) (*SMTP, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create SMTP client: %w", err)
	}

	return &SMTP{client: client, from: cfg.From, log: log}, nil
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	m, err := buildMsg(s.from, msg)
	if err != nil {
		return &domain.TransportError{Recipient: msg.To, Err: err}
	}

	if err = s.client.DialAndSendWithContext(ctx, m); err != nil {
		return &domain.TransportError{Recipient: msg.To, Err: err}
	}

	s.log.DebugContext(ctx, "Mail is submitted",
		"transport", "smtp",
		"email", msg.To)

	return nil
}

func buildMsg(from From, msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()

	if err := m.FromFormat(from.Name, from.Address); err != nil {
		return nil, fmt.Errorf("set from: %w", err)
	}

	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("set to: %w", err)
	}

	m.Subject(msg.Subject)
	m.SetDate()

	if msg.Text != "" {
		m.SetBodyString(mail.TypeTextPlain, msg.Text)
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	} else {
		m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	}

	return m, nil
}
