// Package backend is a client for the hosted backend-as-a-service: a
// PostgREST data API, a GoTrue auth API, object storage and serverless
// functions, all behind one base URL and project key.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/tidwall/gjson"
)

// CallObserver is notified once per backend round trip. err is nil on success.
type CallObserver func(operation string, status int, err error)

// Client talks to the hosted backend. It never retries: every failure is
// returned to the caller exactly once.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	observe    CallObserver
}

// Config holds client configuration.
type Config struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
	OnCall     CallObserver
}

// New creates a new backend client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("backend URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("backend API key is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
		httpClient.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		observe:    cfg.OnCall,
	}, nil
}

// BaseURL returns the backend origin without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

type accessTokenKey struct{}

// ContextWithAccessToken makes every request issued with ctx act on behalf of
// the signed-in user instead of the anonymous project key.
func ContextWithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessTokenFromContext returns the user token stored in ctx, if any.
func AccessTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(accessTokenKey{}).(string)
	return token
}

// Response is a successful backend response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Get extracts a single field from the JSON body.
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	token := AccessTokenFromContext(req.Context())
	if token == "" {
		token = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
}

func (c *Client) do(req *http.Request, operation string) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("%s: http request: %w", operation, err)
		c.notify(operation, 0, err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("%s: read response: %w", operation, err)
		c.notify(operation, resp.StatusCode, err)
		return nil, err
	}

	if resp.StatusCode >= 400 {
		apiErr := parseError(resp.StatusCode, body)
		c.notify(operation, resp.StatusCode, apiErr)
		return nil, apiErr
	}

	c.notify(operation, resp.StatusCode, nil)
	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Headers:    resp.Header,
	}, nil
}

func (c *Client) notify(operation string, status int, err error) {
	if c.observe != nil {
		c.observe(operation, status, err)
	}
}
