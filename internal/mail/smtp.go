package mail

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/climatologylab/labsite/internal/config"
	gomail "github.com/wneessen/go-mail"
)

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	client *gomail.Client
	from   string
}

func NewSMTPSender(cfg config.SMTPConfig, from string) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	if cfg.EnableTLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}
	if cfg.SkipVerifyTLS {
		opts = append(opts, gomail.WithTLSConfig(&tls.Config{InsecureSkipVerify: true, ServerName: cfg.Host})) //nolint:gosec // opt-in for self-signed relays
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPSender{client: client, from: from}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	m := gomail.NewMsg()
	if err := m.From(msg.from(s.from)); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send smtp: %w", err)
	}
	return nil
}
