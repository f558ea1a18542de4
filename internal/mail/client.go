// Package mail delivers notification emails through an HTTP email provider.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Message is one email to one recipient.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender is the email delivery provider. A nil error means the provider
// accepted the message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var ErrRejected = errors.New("email provider rejected message")

// Client talks to a Resend-compatible JSON API.
type Client struct {
	apiURL     string
	apiKey     string
	from       string
	httpClient *http.Client
	stubMode   bool
}

// NewClient returns a client in stub mode when apiKey is empty: messages are
// logged instead of sent.
func NewClient(apiURL, apiKey, from string) *Client {
	return &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		from:       from,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		stubMode:   apiKey == "",
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (c *Client) Send(ctx context.Context, msg Message) error {
	if c.stubMode {
		slog.Info("email (stub mode)", "to", msg.To, "subject", msg.Subject)
		return nil
	}

	body, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, string(b))
	}
	return nil
}
