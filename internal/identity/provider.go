// Package identity resolves platform uids against the upstream identity
// provider.  Authentication itself is out of scope (inbound requests
// carry a platform-issued token verified by middleware), but several
// operations need the email behind a uid, which only the provider knows.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Identity is the resolved view of a platform user.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// Client provides access to the identity provider API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new identity provider client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Resolve looks up the identity behind a uid.  Failure is surfaced to
// the caller; which operations treat it as fatal is their decision.
func (c *Client) Resolve(ctx context.Context, uid string) (*Identity, error) {
	u := c.baseURL + "/v1/users/" + url.PathEscape(uid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolve uid %s: %w", uid, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("identity api error %d for uid %s", resp.StatusCode, uid)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read identity response: %w", err)
	}
	var id Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, fmt.Errorf("decode identity response: %w", err)
	}
	return &id, nil
}
