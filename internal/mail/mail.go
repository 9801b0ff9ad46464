// Package mail sends plain-text notification emails.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/climatologylab/labsite/internal/config"
)

// Message is a single outgoing email. From may be empty, in which case the
// sender's default address is used.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Sender delivers a Message synchronously.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var ErrNoRecipients = errors.New("mail: no recipients")

// New returns the Sender selected by cfg.Type.
func New(cfg config.MailConfig, logger *slog.Logger) (Sender, error) {
	switch cfg.Type {
	case "smtp":
		return NewSMTPSender(*cfg.SMTP, cfg.From)
	case "postmark":
		return NewPostmarkClient(cfg.Postmark.ServerToken, cfg.From), nil
	case "filesystem":
		return NewFilesystemSender(cfg.Filesystem.Directory, cfg.From, logger)
	default:
		return nil, fmt.Errorf("unknown mail type %q", cfg.Type)
	}
}

func (m Message) validate() error {
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	return nil
}

func (m Message) from(fallback string) string {
	if m.From != "" {
		return m.From
	}
	return fallback
}
