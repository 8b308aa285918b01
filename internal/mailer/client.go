package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// TRANSACTIONAL EMAIL PROVIDER CLIENT

// ErrNoCredential means the provider key is not configured; email dispatch
// runs in degraded mode and reports 503 upstream.
var ErrNoCredential = errors.New("email credential not configured")

const defaultBaseURL = "https://api.resend.com"

type Client struct {
	apiKey      string
	fromAddress string
	ownerEmail  string
	baseURL     string
	httpClient  *http.Client
	logger      *zap.Logger
}

// EmailIDs are the provider message ids per recipient; an empty id means
// that particular send failed.
type EmailIDs struct {
	User  string `json:"user"`
	Owner string `json:"owner"`
}

type Attachment struct {
	Filename string
	Content  []byte
}

type Email struct {
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

func NewClient(apiKey, fromAddress, ownerEmail string, logger *zap.Logger) *Client {
	return &Client{
		apiKey:      apiKey,
		fromAddress: fromAddress,
		ownerEmail:  ownerEmail,
		baseURL:     defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

func (c *Client) HasCredential() bool {
	return c.apiKey != ""
}

func (c *Client) OwnerEmail() string {
	return c.ownerEmail
}

// SendPair dispatches the customer confirmation and the owner notification
// concurrently and collects both outcomes independently. The pair is
// considered delivered when at least one send succeeded; both failures are
// combined into the returned error otherwise.
func (c *Client) SendPair(ctx context.Context, user, owner Email) (EmailIDs, error) {
	if !c.HasCredential() {
		return EmailIDs{}, ErrNoCredential
	}

	type outcome struct {
		role string
		id   string
		err  error
	}

	results := make(chan outcome, 2)
	send := func(role string, email Email) {
		id, err := c.send(ctx, email)
		results <- outcome{role: role, id: id, err: err}
	}
	go send("user", user)
	go send("owner", owner)

	var ids EmailIDs
	var sendErr error
	for i := 0; i < 2; i++ {
		out := <-results
		if out.err != nil {
			c.logger.Error("Failed to send email",
				zap.String("role", out.role),
				zap.Error(out.err))
			sendErr = multierr.Append(sendErr, fmt.Errorf("%s: %w", out.role, out.err))
			continue
		}
		c.logger.Info("Email sent",
			zap.String("role", out.role),
			zap.String("email_id", out.id))
		if out.role == "user" {
			ids.User = out.id
		} else {
			ids.Owner = out.id
		}
	}

	if ids.User == "" && ids.Owner == "" {
		return EmailIDs{}, sendErr
	}
	return ids, nil
}

type sendRequest struct {
	From        string           `json:"from"`
	To          []string         `json:"to"`
	Subject     string           `json:"subject"`
	HTML        string           `json:"html"`
	Attachments []attachmentBody `json:"attachments,omitempty"`
}

type attachmentBody struct {
	Filename string `json:"filename"`
	Content  string `json:"content"` // base64
}

func (c *Client) send(ctx context.Context, email Email) (string, error) {
	payload := sendRequest{
		From:    c.fromAddress,
		To:      []string{email.To},
		Subject: email.Subject,
		HTML:    email.HTML,
	}
	for _, att := range email.Attachments {
		payload.Attachments = append(payload.Attachments, attachmentBody{
			Filename: att.Filename,
			Content:  base64.StdEncoding.EncodeToString(att.Content),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return result.ID, nil
}
