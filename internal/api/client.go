// Package api is the HTTP client for the document-assistant backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/docassist/docassist/internal/config"
	"github.com/docassist/docassist/internal/constants"
	"github.com/docassist/docassist/internal/http"
	"github.com/docassist/docassist/internal/logging"
	"github.com/docassist/docassist/internal/ratelimit"
)

// retryLogger implements the retryablehttp.LeveledLogger interface on top
// of the CLI logger. Info and Debug are only shown with --debug.
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

// Client talks to the backend's /api endpoints.
type Client struct {
	httpClient *nethttp.Client
	baseURL    string
	limiters   *ratelimit.Registry
	logger     *logging.Logger

	mu    sync.RWMutex
	token string
}

// NewClient creates a new API client. A nil logger logs to stderr.
func NewClient(cfg *config.Config, logger *logging.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return nil, fmt.Errorf("API base URL is empty: set api_base_url in config.csv, DOCASSIST_API_URL, or --api-url")
	}
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}

	httpClient, err := http.ConfigureHTTPClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}
	// commands bound their own calls with contexts; this caps slow uploads
	httpClient.Timeout = constants.UploadRequestTimeout

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = constants.RetryInitialDelay
	retryClient.RetryWaitMax = constants.RetryMaxDelay
	retryClient.CheckRetry = http.CheckRetry
	retryClient.Backoff = http.Backoff
	// the last response is returned so its error body can be decoded
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = &retryLogger{logger: logger}

	limiters := ratelimit.NewRegistry()
	limiters.SetWarnFunc(func(wait time.Duration) {
		logger.Warn().Msgf("Rate limited: waiting ~%.1fs for backend capacity", wait.Seconds())
	})

	return &Client{
		httpClient: retryClient.StandardClient(),
		baseURL:    strings.TrimSuffix(cfg.APIBaseURL, "/"),
		limiters:   limiters,
		logger:     logger,
		token:      cfg.Token,
	}, nil
}

// BaseURL returns the normalized backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken replaces the session token sent with every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current session token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// request describes one backend call.
type request struct {
	method      string
	path        string // relative to the base URL, with leading "/"
	query       url.Values
	jsonBody    interface{}
	rawBody     []byte
	contentType string
	accept      string
}

// doRequest performs an HTTP request with authentication and rate limiting.
// Non-2xx responses are consumed and returned as *APIError.
func (c *Client) doRequest(ctx context.Context, r request) (*nethttp.Response, error) {
	limiter := c.limiters.Limiter(r.method, r.path)
	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter cancelled: %w", err)
	}

	var body io.Reader
	contentType := r.contentType
	switch {
	case r.jsonBody != nil:
		data, err := json.Marshal(r.jsonBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	case r.rawBody != nil:
		body = bytes.NewReader(r.rawBody)
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	req, err := nethttp.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	accept := r.accept
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)

	c.logger.Debug().Str("method", r.method).Str("path", r.path).Msg("api request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Debug().Err(err).Str("method", r.method).Str("path", r.path).Msg("api call failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode == nethttp.StatusTooManyRequests {
		limiter.Drain()
		c.logger.Warn().Str("path", r.path).Str("retry_after", resp.Header.Get("Retry-After")).Msg("throttled by backend")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, newAPIError(resp)
	}
	return resp, nil
}

// doJSON performs a request and decodes a JSON response into out (if non-nil).
func (c *Client) doJSON(ctx context.Context, r request, out interface{}) error {
	resp, err := c.doRequest(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", r.path, err)
	}
	return nil
}

// doText performs a request and returns the body as a string.
func (c *Client) doText(ctx context.Context, r request) (string, error) {
	r.accept = "text/plain"
	resp, err := c.doRequest(ctx, r)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s response: %w", r.path, err)
	}
	return string(data), nil
}
