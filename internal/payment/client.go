// Package payment wraps the payment processor's REST API and the
// signature scheme protecting its webhook deliveries.  The processor is
// a black box: this package only shapes requests, decodes responses and
// verifies signatures; it holds no settlement logic.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client provides access to the payment processor REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new processor API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the processor API.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("processor api error %d: %s", e.StatusCode, e.Message)
}

// Intent is a created payment intent.  ClientSecret is handed to the
// buyer's client to complete the charge; ID keys the transaction record.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// Account is a connected payout account as the processor reports it.
type Account struct {
	ID           string            `json:"id"`
	Capabilities map[string]string `json:"capabilities"`
}

// TransfersActive reports whether the account's transfer capability is
// currently active, i.e. whether it may receive split funds.
func (a *Account) TransfersActive() bool {
	return a.Capabilities["transfers"] == "active"
}

// AccountLink is a hosted onboarding URL for a connected account.
type AccountLink struct {
	URL string `json:"url"`
}

type createIntentRequest struct {
	Amount             int64  `json:"amount"`
	Currency           string `json:"currency"`
	ApplicationFee     int64  `json:"application_fee_amount"`
	DestinationAccount string `json:"destination_account"`
}

// CreateIntent requests a payment intent for amount minor units of
// currency, with fee retained by the marketplace and the remainder
// routed to the destination connected account.  No retries: a failure
// propagates and the caller retries the whole operation.
func (c *Client) CreateIntent(ctx context.Context, amount int64, currency string, fee int64, destination string) (*Intent, error) {
	var intent Intent
	err := c.post(ctx, "/v1/payment_intents", createIntentRequest{
		Amount:             amount,
		Currency:           currency,
		ApplicationFee:     fee,
		DestinationAccount: destination,
	}, &intent)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &intent, nil
}

// CreateAccount opens a connected payout account for a seller.
func (c *Client) CreateAccount(ctx context.Context, email string) (*Account, error) {
	var acct Account
	err := c.post(ctx, "/v1/accounts", map[string]string{"email": email}, &acct)
	if err != nil {
		return nil, fmt.Errorf("create connected account: %w", err)
	}
	return &acct, nil
}

// CreateAccountLink requests a hosted onboarding link for a connected
// account.  refreshURL is visited when the link expires; returnURL when
// onboarding completes.
func (c *Client) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (*AccountLink, error) {
	var link AccountLink
	err := c.post(ctx, "/v1/account_links", map[string]string{
		"account":     accountID,
		"refresh_url": refreshURL,
		"return_url":  returnURL,
	}, &link)
	if err != nil {
		return nil, fmt.Errorf("create account link: %w", err)
	}
	return &link, nil
}

// GetAccount retrieves a connected account and its capability set.
func (c *Client) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	var acct Account
	if err := c.do(ctx, http.MethodGet, "/v1/accounts/"+accountID, nil, &acct); err != nil {
		return nil, fmt.Errorf("retrieve account: %w", err)
	}
	return &acct, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	return c.do(ctx, http.MethodPost, path, payload, out)
}

// do performs an HTTP request against the processor API and decodes the
// JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       raw,
		}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
