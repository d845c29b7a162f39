// Package storage wraps the object storage service holding uploaded
// ticket artifacts.  Uploads happen client-side against the storage
// service directly; this service only downloads artifacts by key when
// fulfilling a sale, and learns about new uploads via the broker
// notification the storage service emits on upload completion.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client provides by-key access to stored artifacts.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new object storage client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Download fetches an object's bytes and content type by key.
func (c *Client) Download(ctx context.Context, key string) (content []byte, mimeType string, err error) {
	u := c.baseURL + "/v1/objects/" + url.PathEscape(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download object %s: %w", key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("storage api error %d for object %s", resp.StatusCode, key)
	}
	content, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read object %s: %w", key, err)
	}
	mimeType = resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return content, mimeType, nil
}
