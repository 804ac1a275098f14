package outbound

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/relaydesk/relaydesk/internal/config"
)

// Sender pushes one text message to a provider recipient.
type Sender interface {
	Send(ctx context.Context, nativeID, text string) error
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// LineSender pushes messages through the LINE Messaging API.
type LineSender struct {
	cfg    config.LineConfig
	client *http.Client
}

// NewLineSender creates a LINE push sender. A nil client gets a default
// with a request timeout.
func NewLineSender(cfg config.LineConfig, client *http.Client) *LineSender {
	if client == nil {
		client = newHTTPClient()
	}
	return &LineSender{cfg: cfg, client: client}
}

func (s *LineSender) Send(ctx context.Context, nativeID, text string) error {
	body, err := json.Marshal(map[string]any{
		"to": nativeID,
		"messages": []map[string]string{
			{"type": "text", "text": text},
		},
	})
	if err != nil {
		return fmt.Errorf("encode line push: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.PushURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build line push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.AccessToken)

	return doSend(s.client, req, "line")
}

// MessengerSender pushes messages through the Messenger Send API.
type MessengerSender struct {
	cfg    config.MessengerConfig
	client *http.Client
}

// NewMessengerSender creates a Messenger send-API sender.
func NewMessengerSender(cfg config.MessengerConfig, client *http.Client) *MessengerSender {
	if client == nil {
		client = newHTTPClient()
	}
	return &MessengerSender{cfg: cfg, client: client}
}

func (s *MessengerSender) Send(ctx context.Context, nativeID, text string) error {
	body, err := json.Marshal(map[string]any{
		"recipient": map[string]string{"id": nativeID},
		"message":   map[string]string{"text": text},
	})
	if err != nil {
		return fmt.Errorf("encode messenger send: %w", err)
	}
	url := s.cfg.SendURL + "?access_token=" + s.cfg.PageAccessToken
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build messenger send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return doSend(s.client, req, "messenger")
}

// WebchatSender is a no-op: webchat has no provider API, delivery happens
// entirely through the realtime hub after the message is persisted.
type WebchatSender struct{}

func (WebchatSender) Send(context.Context, string, string) error { return nil }

func doSend(client *http.Client, req *http.Request, provider string) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s send: %w", provider, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s send: status %d: %s", provider, resp.StatusCode, detail)
	}
	return nil
}
