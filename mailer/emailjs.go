// ABOUTME: EmailJS REST client used to deliver campaign emails
// ABOUTME: Posts one templated message per call to the hosted send endpoint
package mailer

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
)

const DefaultEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

var ErrNotConfigured = errors.New("emailjs is not configured: service id, template id and public key are required")

// Message is one outgoing email. HTML is passed to the EmailJS template as the
// message parameter.
type Message struct {
	ToEmail string
	ToName  string
	Subject string
	HTML    string
}

type Config struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
	PrivateKey string
	Endpoint   string
}

type EmailJS struct {
	cfg        Config
	httpClient *http.Client
}

func NewEmailJS(cfg Config, httpClient *http.Client) *EmailJS {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &EmailJS{cfg: cfg, httpClient: httpClient}
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// SendError carries the status and body EmailJS answered with.
type SendError struct {
	StatusCode int
	Body       string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("emailjs returned %d: %s", e.StatusCode, e.Body)
}

func (m *EmailJS) Send(ctx context.Context, msg Message) error {
	if m.cfg.ServiceID == "" || m.cfg.TemplateID == "" || m.cfg.PublicKey == "" {
		return ErrNotConfigured
	}
	if strings.TrimSpace(msg.ToEmail) == "" {
		return errors.New("recipient email is empty")
	}

	payload, err := json.Marshal(sendRequest{
		ServiceID:   m.cfg.ServiceID,
		TemplateID:  m.cfg.TemplateID,
		UserID:      m.cfg.PublicKey,
		AccessToken: m.cfg.PrivateKey,
		TemplateParams: map[string]string{
			"to_email": msg.ToEmail,
			"to_name":  msg.ToName,
			"subject":  msg.Subject,
			"message":  msg.HTML,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &SendError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return nil
}
