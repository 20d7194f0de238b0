// Package client provides an HTTP client for the visitor-desk REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/evcraddock/visitor-desk/internal/visitor"
)

// ErrUnauthorized is returned when the server rejects the API key.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-success response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server error: %s", http.StatusText(e.StatusCode))
}

// Client is an HTTP client for the visitor-desk API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithAPIKey returns a copy of the client that authenticates with key.
func (c *Client) WithAPIKey(key string) *Client {
	cp := *c
	cp.apiKey = key
	return &cp
}

// ListResponse is the response from GET /api/visitors.
type ListResponse struct {
	Visitors []visitor.Visitor `json:"visitors"`
	Total    int               `json:"total"`
}

// ListVisitors returns the complete visitor list.
func (c *Client) ListVisitors(ctx context.Context) (*ListResponse, error) {
	var resp ListResponse
	if err := c.get(ctx, "/api/visitors", &resp); err != nil {
		return nil, err
	}
	if resp.Visitors == nil {
		resp.Visitors = make([]visitor.Visitor, 0)
	}
	return &resp, nil
}

// AddVisitor registers a visitor.
func (c *Client) AddVisitor(ctx context.Context, nv visitor.NewVisitor) (*visitor.Visitor, error) {
	var v visitor.Visitor
	if err := c.post(ctx, "/api/visitors", nv, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// SetStatus moves a visitor to a new status.
func (c *Client) SetStatus(ctx context.Context, id int64, status visitor.Status) (*visitor.Visitor, error) {
	body := map[string]string{"status": string(status)}
	var v visitor.Visitor
	if err := c.post(ctx, fmt.Sprintf("/api/visitors/%d/status", id), body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// RemoveVisitor deletes a visitor.
func (c *Client) RemoveVisitor(ctx context.Context, id int64) error {
	return c.doDelete(ctx, fmt.Sprintf("/api/visitors/%d", id))
}

// UploadImage stores an image and returns its storage key.
func (c *Client) UploadImage(ctx context.Context, contentType string, data io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/images", data)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	var resp struct {
		Key string `json:"key"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if resp.Key == "" {
		return "", errors.New("server returned no image key")
	}
	return resp.Key, nil
}

// ResolveImage returns a displayable URI for an image storage key.
func (c *Client) ResolveImage(ctx context.Context, key string) (string, error) {
	var resp struct {
		URI string `json:"uri"`
	}
	if err := c.get(ctx, "/api/images/"+url.PathEscape(key), &resp); err != nil {
		return "", err
	}
	return resp.URI, nil
}

// MeResponse is the response from GET /api/me.
type MeResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Me returns the identity bound to the API key.
func (c *Client) Me(ctx context.Context) (*MeResponse, error) {
	var resp MeResponse
	if err := c.get(ctx, "/api/me", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks that the server is reachable. It sends no credentials.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.send(req, nil)
}

// get performs a GET request and decodes the response.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// post performs a POST request with a JSON body and decodes the response.
func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

// doDelete performs a DELETE request.
func (c *Client) doDelete(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, nil)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return c.send(req, result)
}

func (c *Client) send(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "err", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil {
			apiErr.Message = errResp.Error
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
