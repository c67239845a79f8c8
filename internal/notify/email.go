package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/atinyakov/BikeGuard/internal/common"
	"github.com/atinyakov/BikeGuard/internal/models"
)

// mailSender is the part of *mail.Client used to deliver messages.
type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPConfig holds the mail relay and the alert envelope.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// EmailNotifier sends alerts as HTML mail.
type EmailNotifier struct {
	client mailSender
	from   string
	to     string
}

// NewEmailNotifier builds an SMTP client for cfg. Authentication is enabled
// only when a username is configured; TLS is used when the relay offers it.
func NewEmailNotifier(cfg SMTPConfig) (*EmailNotifier, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &EmailNotifier{client: client, from: cfg.From, to: cfg.To}, nil
}

// Notify sends one alert email for r.
func (n *EmailNotifier) Notify(ctx context.Context, r models.Reading) error {
	msg, err := n.message(BuildAlert(r))
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrNotification, err)
	}
	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: send mail: %w", common.ErrNotification, err)
	}
	return nil
}

func (n *EmailNotifier) message(a Alert) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", n.from, err)
	}
	if err := msg.To(n.to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", n.to, err)
	}
	msg.Subject(a.Subject)
	msg.SetBodyString(mail.TypeTextHTML, a.HTML())
	return msg, nil
}
