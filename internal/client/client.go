package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"study-helper/internal/coordinator"
	"study-helper/internal/message"
	"study-helper/internal/provider"
	"study-helper/internal/settings"
)

const maxErrorBody = 1 << 10

// StatusError is returned for non-2xx responses of the background service.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("background service returned %d", e.Status)
	}
	return fmt.Sprintf("background service returned %d: %s", e.Status, e.Body)
}

// Client talks to the background service on behalf of the UI surfaces.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the service at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// NewWithHTTPClient is New with a caller supplied http.Client.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Ask sends a provider request and returns its Result. Failing to reach the
// service is reported as a Failure, so callers always get one Result.
func (c *Client) Ask(ctx context.Context, p message.Provider, req message.Request) message.Result {
	env, err := message.NewRequestEnvelope(p, req)
	if err != nil {
		return message.Failure("Request failed: %v", err)
	}
	var res message.Result
	if err := c.do(ctx, http.MethodPost, "/api/messages", env, &res); err != nil {
		return message.Failure("Request failed: %v. Is the background service running?", err)
	}
	if !res.OK && res.Error == "" {
		return message.Failure(provider.NoResponse)
	}
	return res
}

// Settings returns the stored config of p.
func (c *Client) Settings(ctx context.Context, p message.Provider) (settings.Config, error) {
	var cfg settings.Config
	if err := c.do(ctx, http.MethodGet, "/api/settings/"+url.PathEscape(string(p)), nil, &cfg); err != nil {
		return settings.Config{}, fmt.Errorf("get %s settings: %w", p, err)
	}
	return cfg, nil
}

// UpdateSettings saves the changed fields of p and returns the stored config.
func (c *Client) UpdateSettings(ctx context.Context, p message.Provider, u coordinator.SettingsUpdate) (settings.Config, error) {
	var cfg settings.Config
	if err := c.do(ctx, http.MethodPut, "/api/settings/"+url.PathEscape(string(p)), u, &cfg); err != nil {
		return settings.Config{}, fmt.Errorf("update %s settings: %w", p, err)
	}
	return cfg, nil
}

// ClickMenu reports a context-menu click.
func (c *Client) ClickMenu(ctx context.Context, click coordinator.MenuClick) error {
	if err := c.do(ctx, http.MethodPost, "/api/context-menu/clicks", click, nil); err != nil {
		return fmt.Errorf("menu click: %w", err)
	}
	return nil
}

// SendToTab asks the service to deliver ev to a tab.
func (c *Client) SendToTab(ctx context.Context, tabID string, ev message.Event) error {
	if err := c.do(ctx, http.MethodPost, "/api/tabs/"+url.PathEscape(tabID)+"/events", ev, nil); err != nil {
		return fmt.Errorf("send to tab %s: %w", tabID, err)
	}
	return nil
}

// Health checks that the service is up.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
