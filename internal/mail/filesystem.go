package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// FilesystemSender writes each message as a JSON file instead of sending it.
// It is meant for development and tests.
type FilesystemSender struct {
	directory string
	from      string
	logger    *slog.Logger
}

func NewFilesystemSender(directory, from string, logger *slog.Logger) (*FilesystemSender, error) {
	if err := os.MkdirAll(directory, 0o750); err != nil {
		return nil, fmt.Errorf("create mail directory: %w", err)
	}
	return &FilesystemSender{directory: directory, from: from, logger: logger}, nil
}

type storedMessage struct {
	From      string   `json:"from"`
	To        []string `json:"to"`
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
	Timestamp string   `json:"timestamp"`
}

func (f *FilesystemSender) Send(_ context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	content, err := json.MarshalIndent(storedMessage{
		From:      msg.from(f.from),
		To:        msg.To,
		Subject:   msg.Subject,
		Body:      msg.Body,
		Timestamp: now.Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	path := filepath.Join(f.directory, fmt.Sprintf("%d.json", now.UnixNano()))
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("write message file: %w", err)
	}

	f.logger.Info("mail written to filesystem", "path", path, "to", msg.To, "subject", msg.Subject)
	return nil
}
