// AngelaMos | 2026
// smtp.go

package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/carterperez-dev/templates/accounts-api/internal/config"
	"github.com/carterperez-dev/templates/accounts-api/internal/core"
)

const smtpTimeout = 15 * time.Second

type dialer interface {
	DialAndSendWithContext(ctx context.Context, msgs ...*gomail.Msg) error
}

type SMTPSender struct {
	client   dialer
	from     string
	fromName string
	renderer *renderer
}

func NewSMTPSender(cfg config.EmailConfig) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(smtpTimeout),
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
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return newSMTPSender(client, cfg)
}

func newSMTPSender(client dialer, cfg config.EmailConfig) (*SMTPSender, error) {
	r, err := newRenderer()
	if err != nil {
		return nil, err
	}

	return &SMTPSender{
		client:   client,
		from:     cfg.From,
		fromName: cfg.FromName,
		renderer: r,
	}, nil
}

func (s *SMTPSender) SendWelcome(ctx context.Context, to Recipient, url string) error {
	return s.send(ctx, kindWelcome, SubjectWelcome, to, url)
}

func (s *SMTPSender) SendPasswordReset(ctx context.Context, to Recipient, url string) error {
	return s.send(ctx, kindPasswordReset, SubjectPasswordReset, to, url)
}

func (s *SMTPSender) send(
	ctx context.Context,
	k kind,
	subject string,
	to Recipient,
	url string,
) error {
	out, err := s.renderer.render(k, subject, to, url)
	if err != nil {
		return err
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.AddToFormat(to.Name, to.Email); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(out.subject)
	msg.SetBodyString(gomail.TypeTextPlain, out.text)
	msg.AddAlternativeString(gomail.TypeTextHTML, out.html)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send %s email: %w: %w", k, core.ErrDelivery, err)
	}

	return nil
}

// LogSender writes notifications to the log instead of delivering them.
// It stands in for SMTP when no mail host is configured.
type LogSender struct {
	logger   *slog.Logger
	renderer *renderer
}

func NewLogSender(logger *slog.Logger) (*LogSender, error) {
	r, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &LogSender{logger: logger, renderer: r}, nil
}

func (s *LogSender) SendWelcome(ctx context.Context, to Recipient, url string) error {
	return s.log(ctx, kindWelcome, SubjectWelcome, to, url)
}

func (s *LogSender) SendPasswordReset(ctx context.Context, to Recipient, url string) error {
	return s.log(ctx, kindPasswordReset, SubjectPasswordReset, to, url)
}

func (s *LogSender) log(
	ctx context.Context,
	k kind,
	subject string,
	to Recipient,
	url string,
) error {
	out, err := s.renderer.render(k, subject, to, url)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "email not sent, no smtp host configured",
		"kind", string(k),
		"to", to.Email,
		"subject", out.subject,
		"url", url,
	)
	return nil
}

// NewSender picks SMTP delivery when a host is configured and the log
// sender otherwise.
func NewSender(cfg config.EmailConfig, logger *slog.Logger) (Sender, error) {
	if cfg.Host == "" {
		return NewLogSender(logger)
	}
	return NewSMTPSender(cfg)
}
