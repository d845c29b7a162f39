// Package mailer wraps the email delivery API.  Delivery is an external
// capability: this client shapes one send request per message and
// reports failures to the caller without retrying.
package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Attachment is a file carried with a message.  Content is the raw
// bytes; the client handles transfer encoding.
type Attachment struct {
	Filename string
	MIMEType string
	Content  []byte
}

// Message is a single outbound email.
type Message struct {
	To         string
	From       string
	Subject    string
	Body       string
	Attachment *Attachment // optional
}

// Client provides access to the email delivery API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new email delivery client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type sendRequest struct {
	To          string           `json:"to"`
	From        string           `json:"from"`
	Subject     string           `json:"subject"`
	Body        string           `json:"body"`
	Attachments []attachmentJSON `json:"attachments,omitempty"`
}

type attachmentJSON struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
	Content  string `json:"content"` // base64
}

// Send delivers a single message.
func (c *Client) Send(ctx context.Context, m Message) error {
	payload := sendRequest{
		To:      m.To,
		From:    m.From,
		Subject: m.Subject,
		Body:    m.Body,
	}
	if m.Attachment != nil {
		payload.Attachments = []attachmentJSON{{
			Filename: m.Attachment.Filename,
			MIMEType: m.Attachment.MIMEType,
			Content:  base64.StdEncoding.EncodeToString(m.Attachment.Content),
		}}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode send request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/send", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("mail api error %d: %s", resp.StatusCode, body)
	}
	return nil
}
