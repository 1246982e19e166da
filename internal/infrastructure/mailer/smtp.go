package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"NewsAgent/internal/config"
	"NewsAgent/internal/domain"
	xerrors "NewsAgent/internal/errors"
	"NewsAgent/internal/ports"
)

const (
	defaultPort = 587
	sslPort     = 465
	dialTimeout = 30 * time.Second
)

// SMTPMailer delivers plain-text mail through an authenticated relay.
// Port 465 uses implicit TLS, any other port requires STARTTLS.
type SMTPMailer struct {
	cfg    config.MailConfig
	logger *slog.Logger
}

var _ ports.MailTransport = (*SMTPMailer)(nil)

// NewSMTPMailer keeps the settings; they are checked on every Send so a
// missing value surfaces as a configuration error of the send step.
func NewSMTPMailer(cfg config.MailConfig, logger *slog.Logger) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// Send composes and transmits a single message.
func (m *SMTPMailer) Send(ctx context.Context, email domain.Email) error {
	if missing := m.cfg.Missing(); len(missing) > 0 {
		return xerrors.New(xerrors.CodeConfiguration,
			"Missing SMTP settings in .env file: "+strings.Join(missing, ", "))
	}

	msg, err := m.compose(email)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.cfg.Host, m.clientOptions()...)
	if err != nil {
		return xerrors.New(xerrors.CodeConfiguration, fmt.Sprintf("smtp client: %v", err))
	}

	m.debug("sending email", "host", m.cfg.Host, "port", m.cfg.Port, "to", email.To)
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email to %s: %w", email.To, err)
	}
	return nil
}

func (m *SMTPMailer) compose(email domain.Email) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.Sender()); err != nil {
		return nil, xerrors.New(xerrors.CodeConfiguration, fmt.Sprintf("invalid sender %q: %v", m.cfg.Sender(), err))
	}
	if err := msg.To(email.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", email.To, err)
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextPlain, email.Body)
	return msg, nil
}

func (m *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTimeout(dialTimeout),
	}
	if m.cfg.Port == sslPort {
		return append(opts, mail.WithSSL())
	}
	return append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
}

func (m *SMTPMailer) debug(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}
