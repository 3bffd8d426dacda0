package api

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

	"github.com/google/uuid"
)

// Option configures a Client.
type Option func(*clientConfig)

// clientConfig holds configuration for NewClient.
type clientConfig struct {
	httpClient *http.Client
	source     TokenSource
}

// WithHTTPClient sets a custom HTTP client. If not provided, a client with a
// 30 second timeout is used.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = httpClient
	}
}

// WithTokenSource attaches a session token source. All requests made by the
// client then carry the session's bearer token and get the single 401-retry
// behavior of the auth transport.
func WithTokenSource(source TokenSource) Option {
	return func(c *clientConfig) {
		c.source = source
	}
}

// Client calls the property-listing backend.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewClient creates a Client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute: %s", baseURL)
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.source != nil {
		base := httpClient.Transport
		// Copy so the auth transport is not injected into a shared client.
		wrapped := *httpClient
		wrapped.Transport = NewAuthTransport(cfg.source, base)
		httpClient = &wrapped
	}

	return &Client{
		baseURL:    parsed,
		httpClient: httpClient,
	}, nil
}

// Error is a failure response from the backend.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// HTTPStatus returns the HTTP status code of the failure.
func (e *Error) HTTPStatus() int {
	return e.StatusCode
}

// errorBody covers the shapes the backend uses for failures: {"error": ...},
// {"detail": ...} and {"message": ...}.
type errorBody struct {
	ErrorMsg string `json:"error"`
	Detail   string `json:"detail"`
	Message  string `json:"message"`
}

// decodeError turns a non-2xx response into an *Error.
func decodeError(resp *http.Response) error {
	apiErr := &Error{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return apiErr
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.ErrorMsg != "":
			apiErr.Message = parsed.ErrorMsg
		case parsed.Detail != "":
			apiErr.Message = parsed.Detail
		case parsed.Message != "":
			apiErr.Message = parsed.Message
		}
	}
	return apiErr
}

// endpoint resolves a path (and optional query values) against the base URL.
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// doJSON performs a JSON request and decodes a JSON response into out.
// A nil body sends no request body; a nil out discards the response body.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, out)
}

// do sends a prepared request and decodes the response.
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling backend: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
