package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	applog "herbarium/internal/log"
)

const defaultSendGridURL = "https://api.sendgrid.com"

// Message is a single plain-text email.
type Message struct {
	To      string
	Subject string
	Text    string
}

// Sender delivers transactional email such as password reset links.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the application log instead of delivering
// them. It is used when no mail provider is configured. Bodies can carry
// reset tokens, so they are only logged at debug level.
type LogSender struct{}

// Send implements Sender.
func (LogSender) Send(ctx context.Context, msg Message) error {
	applog.Info(ctx, "email delivery skipped; no provider configured", "to", msg.To, "subject", msg.Subject)
	applog.Debug(ctx, "undelivered email body", "to", msg.To, "body", msg.Text)
	return nil
}

// SendGridConfig configures delivery through the SendGrid v3 API.
type SendGridConfig struct {
	APIKey    string
	BaseURL   string
	FromEmail string
	FromName  string
	Timeout   time.Duration
}

// SendGrid delivers messages with the SendGrid mail send endpoint.
type SendGrid struct {
	cfg        SendGridConfig
	httpClient *http.Client
}

// NewSendGrid validates cfg and returns a SendGrid sender.
func NewSendGrid(cfg SendGridConfig) (*SendGrid, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("mail: sendgrid api key is required")
	}
	if strings.TrimSpace(cfg.FromEmail) == "" {
		return nil, errors.New("mail: sender address is required")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultSendGridURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SendGrid{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}, nil
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

// Send implements Sender.
func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return errors.New("mail: recipient is required")
	}
	body, err := json.Marshal(sendRequest{
		Personalizations: []personalization{{To: []address{{Email: to}}}},
		From:             address{Email: s.cfg.FromEmail, Name: s.cfg.FromName},
		Subject:          strings.TrimSpace(msg.Subject),
		Content:          []content{{Type: "text/plain", Value: msg.Text}},
	})
	if err != nil {
		return fmt.Errorf("mail: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mail: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("mail: sendgrid status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	applog.Debug(ctx, "email sent", "to", to, "messageID", resp.Header.Get("X-Message-Id"))
	return nil
}
