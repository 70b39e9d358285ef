package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"labelhub/internal/backend"
)

const (
	defaultTimeout = 20 * time.Second
	connectTimeout = 10 * time.Second
)

// Client is the typed HTTP client for the backend service. It holds no
// state beyond its configuration; connections are not reused across
// calls.
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithTimeoutSeconds(seconds int) Option {
	return func(c *Client) {
		if seconds > 0 {
			c.timeout = time.Duration(seconds) * time.Second
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient = &http.Client{
		Timeout: c.timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: connectTimeout,
			}).DialContext,
			DisableKeepAlives: true,
		},
	}
	return c
}

// request performs one call and applies the response contract: 204 and
// empty bodies come back as nil, any non-2xx status or transport
// failure comes back as *backend.APIError. Callers decode the returned
// bytes themselves.
func (c *Client) request(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	if c.baseURL == "" {
		return nil, &backend.APIError{
			StatusCode: 0,
			Message:    "BACKEND_URL is empty or not configured.",
			Err:        backend.ErrNotConfigured,
		}
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &backend.APIError{StatusCode: 0, Message: fmt.Sprintf("Network error: %v", err), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &backend.APIError{StatusCode: 0, Message: fmt.Sprintf("Network error: %v", err), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &backend.APIError{StatusCode: 0, Message: fmt.Sprintf("Network error: %v", err), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newStatusError(resp.StatusCode, raw)
	}

	if resp.StatusCode == http.StatusNoContent || len(raw) == 0 {
		return nil, nil
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") && !json.Valid(raw) {
		return nil, &backend.APIError{
			StatusCode: resp.StatusCode,
			Message:    "Invalid JSON in response",
			Payload:    string(raw),
		}
	}

	return raw, nil
}

// newStatusError derives the user-facing message from the error body:
// a string "detail" field wins, then a string "message" field, then the
// status text, then a fixed fallback.
func newStatusError(status int, raw []byte) *backend.APIError {
	msg := http.StatusText(status)
	if msg == "" {
		msg = "Request failed"
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		payload = string(raw)
	} else if m, ok := payload.(map[string]any); ok {
		if s, ok := m["detail"].(string); ok {
			msg = s
		} else if s, ok := m["message"].(string); ok {
			msg = s
		}
	}

	return &backend.APIError{StatusCode: status, Message: msg, Payload: payload}
}

func (c *Client) getJSON(ctx context.Context, path string) ([]byte, error) {
	return c.request(ctx, http.MethodGet, path, nil, "")
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	var body io.Reader
	contentType := ""
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}
	return c.request(ctx, http.MethodPost, path, body, contentType)
}

// decodeList unmarshals a list-shaped response, coercing anything that
// is not a list to an empty slice instead of failing.
func decodeList[T any](raw []byte) []T {
	if len(raw) == 0 {
		return nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func decodeInto[T any](raw []byte, what string) (*T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", what, err)
	}
	return &out, nil
}
