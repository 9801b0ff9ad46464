package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const postmarkURL = "https://api.postmarkapp.com/email"

// PostmarkClient delivers mail through the Postmark HTTP API.
type PostmarkClient struct {
	serverToken string
	fromEmail   string
	httpClient  *http.Client
}

type Option func(*PostmarkClient)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *PostmarkClient) {
		cl.httpClient = c
	}
}

func NewPostmarkClient(serverToken, fromEmail string, opts ...Option) *PostmarkClient {
	c := &PostmarkClient{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *PostmarkClient) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	TextBody string `json:"TextBody"`
}

func (c *PostmarkClient) Send(ctx context.Context, msg Message) error {
	if !c.Configured() {
		return fmt.Errorf("postmark client not configured: missing server token")
	}
	if err := msg.validate(); err != nil {
		return err
	}

	body, err := json.Marshal(postmarkEmail{
		From:     msg.from(c.fromEmail),
		To:       strings.Join(msg.To, ","),
		Subject:  msg.Subject,
		TextBody: msg.Body,
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postmarkURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}
	return nil
}
