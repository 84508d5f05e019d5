// Package backend is the HTTP client for the Sunstone wellness API. Every
// response passes through one interceptor that classifies failures, raises
// the matching notice on the request's feedback sink and returns the error.
package backend

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
	"strings"
	"time"

	"github.com/sunstone-mind/sunstone-web/internal/observability/metrics"
	"github.com/sunstone-mind/sunstone-web/internal/observability/statsd"
)

const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL   = "http://localhost:8081"
	defaultUserAgent = "sunstone-web/1.0"

	// AuthCookieName is the cookie the backend reads the session token from.
	AuthCookieName = "authToken"

	maxBodyBytes = 1 << 20
)

// Config wires the base URL, transport and hooks for the client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	Logger     *slog.Logger
	Metrics    statsd.Sink

	// OnUnauthorized runs once for every 401 response, before the error is
	// returned. It is where the caller drops local auth state.
	OnUnauthorized func(ctx context.Context)

	// TokenSource supplies the session token for requests that carry none,
	// so credentials follow every call. An empty result sends no credentials.
	TokenSource func(ctx context.Context) string
}

// Client issues JSON requests against a single base URL.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	userAgent      string
	logger         *slog.Logger
	metrics        statsd.Sink
	onUnauthorized func(ctx context.Context)
	tokenSource    func(ctx context.Context) string
}

// NewClient validates cfg and returns a ready-to-use Client.
// No client timeout is set; the request context bounds each call.
func NewClient(cfg Config) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	normalized, err := normalizeBaseURL(base)
	if err != nil {
		return nil, err
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:        normalized,
		httpClient:     httpClient,
		userAgent:      ua,
		logger:         logger.With("component", "backend"),
		metrics:        cfg.Metrics,
		onUnauthorized: cfg.OnUnauthorized,
		tokenSource:    cfg.TokenSource,
	}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("backend: base URL required")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("backend: invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New("backend: base URL scheme must be http or https")
	}
	if u.Host == "" {
		return "", errors.New("backend: base URL missing host")
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return strings.TrimSuffix(u.String(), "/"), nil
}

// Request describes one backend call.
type Request struct {
	Method string
	Path   string
	Body   any
	Header http.Header
	// Token is the session token forwarded as the authToken cookie and a
	// bearer header. When empty the client's TokenSource is consulted.
	Token string
}

// Do sends req and decodes a successful JSON response into out (which may be nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	body, err := c.DoRaw(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("backend: decode %s %s: %w", req.Method, req.Path, err)
	}
	return nil
}

// DoRaw sends req and returns the raw body of a successful response.
// Failures have already been through the interceptor when they are returned.
func (c *Client) DoRaw(ctx context.Context, req Request) ([]byte, error) {
	httpReq, err := c.newJSONRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		apiErr := &APIError{
			Category: CategoryTransport,
			Message:  MsgUnexpected,
			Cause:    err,
		}
		c.intercept(ctx, req, apiErr, time.Since(start))
		return nil, apiErr
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if apiErr := Classify(resp.StatusCode, body); apiErr != nil {
		c.intercept(ctx, req, apiErr, time.Since(start))
		return nil, apiErr
	}
	metrics.EmitBackendResponse(c.metrics, req.Method, "ok", resp.StatusCode, time.Since(start))
	if readErr != nil {
		return nil, fmt.Errorf("backend: read %s %s: %w", req.Method, req.Path, readErr)
	}
	return body, nil
}

func (c *Client) newJSONRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("backend: encode body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.buildURL(req.Path), body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	token := req.Token
	if token == "" && c.tokenSource != nil {
		token = c.tokenSource(ctx)
	}
	if token != "" {
		httpReq.AddCookie(&http.Cookie{Name: AuthCookieName, Value: token})
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return httpReq, nil
}

func (c *Client) buildURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}
