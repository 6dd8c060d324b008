// Package backend notifies the downstream convex deployment about session
// lifecycle changes and supplies the bearer token its requests carry.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const requestTimeout = 30 * time.Second

// Notifier receives session lifecycle events. LoggedIn is called after every
// successful login or cache-restore with the token selected for downstream
// use; LoggedOut after every logout.
type Notifier interface {
	LoggedIn(ctx context.Context, bearerToken string) error
	LoggedOut(ctx context.Context) error
}

// Client notifies an HTTP backend and keeps the current bearer token for
// later outgoing calls.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.Mutex
	token string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// BearerToken returns the token supplied on the most recent LoggedIn call,
// empty after LoggedOut.
func (c *Client) BearerToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) LoggedIn(ctx context.Context, bearerToken string) error {
	c.mu.Lock()
	c.token = bearerToken
	c.mu.Unlock()

	return c.post(ctx, "/api/auth/session", map[string]string{"event": "login"}, bearerToken)
}

func (c *Client) LoggedOut(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.token = ""
	c.mu.Unlock()

	return c.post(ctx, "/api/auth/session", map[string]string{"event": "logout"}, token)
}

func (c *Client) post(ctx context.Context, path string, body any, bearerToken string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("backend: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend: notify: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("backend: notify rejected: status %d", resp.StatusCode)
	}
	return nil
}

// Noop is the notifier when no backend deployment is configured.
type Noop struct{}

func (Noop) LoggedIn(ctx context.Context, bearerToken string) error { return nil }
func (Noop) LoggedOut(ctx context.Context) error                    { return nil }
