package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"bqadmin/internal/config"
)

// maxBodySize caps how much of an upstream body is read.
const maxBodySize = 32 << 20

// Response is a raw answer from the analytics backend.
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

// OK reports whether the backend answered with a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Detail extracts the backend's "detail" field from an error body.
// It returns nil when the field is absent, null, false, zero or an empty string.
func (r *Response) Detail() any {
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(r.Body, &body); err != nil {
		return nil
	}
	switch v := body.Detail.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
	case bool:
		if !v {
			return nil
		}
	case float64:
		if v == 0 {
			return nil
		}
	}
	return body.Detail
}

// Client talks to the analytics backend that owns SQL generation and
// dataset introspection. It never retries or caches.
type Client struct {
	baseURL string
	auth    Authenticator
	client  *http.Client
}

// NewClient builds a client from config. A zero timeout leaves requests
// bounded only by the caller's context.
func NewClient(cfg config.AnalyticsConfig) *Client {
	return NewClientWithHTTP(cfg, &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	})
}

// NewClientWithHTTP is NewClient with a caller supplied http.Client.
func NewClientWithHTTP(cfg config.AnalyticsConfig, httpClient *http.Client) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		auth:    NewBearerAuth(cfg.APIKey),
		client:  httpClient,
	}
}

// ListDatasets fetches the dataset list, optionally scoped to one project.
// The body is returned unchanged.
func (c *Client) ListDatasets(ctx context.Context, projectID string) (json.RawMessage, error) {
	u := c.baseURL + "/api/datasets"
	if projectID != "" {
		u += "?" + url.Values{"project_id": {projectID}}.Encode()
	}

	resp, err := c.do(ctx, http.MethodGet, u, nil, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: list datasets returned status %d", ErrUpstream, resp.StatusCode)
	}
	return resp.Body, nil
}

// Query forwards a natural-language question on behalf of userID. Non-2xx
// answers are returned as a Response, not an error, so the caller can relay
// the backend's status and detail.
func (c *Client) Query(ctx context.Context, userID string, req QueryRequest) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	headers := map[string]string{"X-User-ID": userID}
	return c.do(ctx, http.MethodPost, c.baseURL+"/api/query", body, headers)
}

// SaveModelConfig stores the user's model selection. It overwrites any
// previous selection for the same user.
func (c *Client) SaveModelConfig(ctx context.Context, mc ModelConfig) (json.RawMessage, error) {
	body, err := json.Marshal(mc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model config: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/api/model/config", body, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: save model config returned status %d", ErrUpstream, resp.StatusCode)
	}
	return resp.Body, nil
}

func (c *Client) do(ctx context.Context, method, u string, body []byte, headers map[string]string) (*Response, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	authCtx, err := c.auth.Authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if err := authCtx.ApplyToRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to apply auth: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: status %d", ErrInvalidResponse, resp.StatusCode)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}
