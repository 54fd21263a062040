package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Transport moves request bodies to the engine and returns response bodies.
// Implementations report non-success responses as *StatusError.
type Transport interface {
	Post(ctx context.Context, path string, body []byte) ([]byte, error)
	Get(ctx context.Context, path string) ([]byte, error)
}

// DefaultTimeout bounds a single HTTP exchange when HTTPConfig leaves it unset.
const DefaultTimeout = 30 * time.Second

// HTTPConfig configures an HTTPTransport.
type HTTPConfig struct {
	// BaseURL is the router or broker address, e.g. "http://localhost:8888".
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// HTTPTransport is a Transport over net/http.
type HTTPTransport struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPTransport creates a transport for the engine at cfg.BaseURL.
func NewHTTPTransport(cfg HTTPConfig) *HTTPTransport {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPTransport{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: hc,
	}
}

// BaseURL returns the address requests are sent to.
func (t *HTTPTransport) BaseURL() string {
	return t.baseURL
}

// Post sends body as JSON to path.
func (t *HTTPTransport) Post(ctx context.Context, path string, body []byte) ([]byte, error) {
	return t.do(ctx, http.MethodPost, path, body)
}

// Get fetches path.
func (t *HTTPTransport) Get(ctx context.Context, path string) ([]byte, error) {
	return t.do(ctx, http.MethodGet, path, nil)
}

func (t *HTTPTransport) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(method, path, resp.StatusCode, data)
	}
	return data, nil
}
