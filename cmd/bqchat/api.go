package main

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

	"bqadmin/internal/analytics"
	"bqadmin/internal/models"
)

// apiClient calls the browser-facing API of a bqadmin server.
type apiClient struct {
	baseURL string
	token   string
	userID  string
	http    *http.Client
}

func newAPIClient(baseURL, token, userID string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		userID:  userID,
		http:    &http.Client{Timeout: 3 * time.Minute},
	}
}

// apiError is a non-2xx answer carrying the server's {"error": ...} body.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// errorMessage flattens an "error" value that may be a string or structured JSON.
func errorMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func (c *apiClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userID != "" {
		req.Header.Set("X-User-ID", c.userID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error json.RawMessage `json:"error"`
		}
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(data, &e) == nil && len(e.Error) > 0 {
			msg = errorMessage(e.Error)
		}
		return &apiError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

type loginResult struct {
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expires_at"`
	User      *models.User `json:"user"`
}

func (c *apiClient) Login(ctx context.Context, email, password string) (*loginResult, error) {
	var out loginResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) ListDatasets(ctx context.Context, projectID string) ([]analytics.Dataset, error) {
	path := "/api/bigquery/datasets"
	if projectID != "" {
		path += "?" + url.Values{"project_id": {projectID}}.Encode()
	}
	var out analytics.DatasetList
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Datasets, nil
}

// Query asks a question. Server-side rejections come back as an unsuccessful
// response rather than an error, so they can be shown in the conversation.
func (c *apiClient) Query(ctx context.Context, req analytics.QueryRequest) (*analytics.QueryResponse, error) {
	var out analytics.QueryResponse
	err := c.do(ctx, http.MethodPost, "/api/chat/query", req, &out)
	if apiErr, ok := err.(*apiError); ok {
		return &analytics.QueryResponse{Success: false, Error: apiErr.Message}, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) SaveModelConfig(ctx context.Context, provider analytics.Provider, modelName, apiKey string) error {
	body := map[string]string{
		"provider":   provider.String(),
		"model_name": modelName,
		"api_key":    apiKey,
	}
	return c.do(ctx, http.MethodPost, "/api/model/config", body, nil)
}

func (c *apiClient) ListUsers(ctx context.Context) ([]*models.User, error) {
	var out struct {
		Users []*models.User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *apiClient) CreateUser(ctx context.Context, email, name, role string) (*models.User, error) {
	body := map[string]string{"email": email}
	if name != "" {
		body["name"] = name
	}
	if role != "" {
		body["role"] = role
	}
	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/users", body, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *apiClient) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(id), nil, nil)
}
