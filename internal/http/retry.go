package http

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"math/rand"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/docassist/docassist/internal/constants"
)

// ErrorType represents different classes of errors for retry strategy
type ErrorType int

const (
	// ErrorTypeSuccess indicates operation succeeded
	ErrorTypeSuccess ErrorType = iota
	// ErrorTypeCredential indicates a rejected or expired session (401, 403)
	ErrorTypeCredential
	// ErrorTypeNetwork indicates connection issues (timeouts, resets, refused)
	ErrorTypeNetwork
	// ErrorTypeRetryable indicates server errors that can be retried (429, 5xx, throttling)
	ErrorTypeRetryable
	// ErrorTypeFatal indicates errors that should not be retried (other 4xx, bad requests)
	ErrorTypeFatal
)

// RetryConfig holds retry parameters for ExecuteWithRetry
type RetryConfig struct {
	// MaxRetries is the maximum number of attempts
	MaxRetries int
	// InitialDelay is the base delay for exponential backoff
	InitialDelay time.Duration
	// MaxDelay is the maximum delay between retries
	MaxDelay time.Duration
	// OnRetry is an optional callback invoked before each retry attempt
	OnRetry func(attempt int, err error, errorType ErrorType)
}

// DefaultRetryConfig returns the retry parameters used for blob store writes.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   constants.MaxRetries,
		InitialDelay: constants.RetryInitialDelay,
		MaxDelay:     constants.RetryMaxDelay,
	}
}

// ClassifyError determines the error type of a transport or SDK error.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeSuccess
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeFatal
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return ErrorTypeFatal
	}

	errStr := strings.ToLower(err.Error())

	if containsAny(errStr, "expired", "invalid token", "401", "403", "unauthorized",
		"forbidden", "authenticationfailed", "authentication failed", "invalid sas",
		"signature not valid", "signaturedoesnotmatch") {
		return ErrorTypeCredential
	}

	if containsAny(errStr, "tls handshake timeout", "connection reset", "i/o timeout",
		"eof", "connection refused", "broken pipe", "no such host", "timeout") {
		return ErrorTypeNetwork
	}

	if containsAny(errStr, "requesttimeout", "internalerror", "serviceunavailable",
		"slowdown", "throttl", "429", "500", "502", "503", "504",
		"server busy", "serverbusy", "operationtimeout", "service unavailable") {
		return ErrorTypeRetryable
	}

	return ErrorTypeFatal
}

// ClassifyResponse classifies a completed HTTP exchange.
func ClassifyResponse(resp *nethttp.Response, err error) ErrorType {
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && ClassifyError(urlErr.Err) == ErrorTypeFatal {
			return ErrorTypeFatal
		}
		return ClassifyError(err)
	}
	if resp == nil {
		return ErrorTypeFatal
	}
	switch {
	case resp.StatusCode < 400:
		return ErrorTypeSuccess
	case resp.StatusCode == nethttp.StatusUnauthorized || resp.StatusCode == nethttp.StatusForbidden:
		return ErrorTypeCredential
	case resp.StatusCode == nethttp.StatusTooManyRequests || resp.StatusCode == nethttp.StatusRequestTimeout:
		return ErrorTypeRetryable
	case resp.StatusCode >= 500 && resp.StatusCode != nethttp.StatusNotImplemented:
		return ErrorTypeRetryable
	default:
		return ErrorTypeFatal
	}
}

// CheckRetry is a retryablehttp.CheckRetry policy. Credential and client
// errors are returned to the caller at once; a rejected session is never
// replayed. A 5xx answer to a POST or PATCH is final: the server may
// already have stored the request.
func CheckRetry(ctx context.Context, resp *nethttp.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	switch ClassifyResponse(resp, err) {
	case ErrorTypeNetwork:
		return true, nil
	case ErrorTypeRetryable:
		if resp != nil && resp.StatusCode >= 500 && !isIdempotent(resp.Request) {
			return false, nil
		}
		return true, nil
	default:
		// err is passed through so the caller sees the transport failure
		return false, err
	}
}

func isIdempotent(req *nethttp.Request) bool {
	if req == nil {
		return true
	}
	switch req.Method {
	case nethttp.MethodPost, nethttp.MethodPatch:
		return false
	}
	return true
}

// Backoff is a retryablehttp.Backoff built on CalculateBackoff. A
// Retry-After header on 429/503 responses takes precedence.
func Backoff(min, max time.Duration, attemptNum int, resp *nethttp.Response) time.Duration {
	if resp != nil && (resp.StatusCode == nethttp.StatusTooManyRequests || resp.StatusCode == nethttp.StatusServiceUnavailable) {
		if after := resp.Header.Get("Retry-After"); after != "" {
			if secs, err := time.ParseDuration(after + "s"); err == nil && secs > 0 {
				if secs > max {
					return max
				}
				return secs
			}
		}
	}
	return CalculateBackoff(attemptNum+1, min, max)
}

// CalculateBackoff returns exponential backoff duration with full jitter
//
// Formula: random(0, min(maxDelay, initialDelay * 2^attempt))
func CalculateBackoff(attempt int, initialDelay, maxDelay time.Duration) time.Duration {
	if attempt <= 0 || initialDelay <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}

	base := time.Duration(1<<uint(attempt)) * initialDelay
	if base > maxDelay || base <= 0 {
		base = maxDelay
	}
	if base <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(base)))
}

// ExecuteWithRetry runs operation until it succeeds, fails fatally, or
// runs out of attempts. Backoff sleeps end early when ctx is done.
func ExecuteWithRetry(ctx context.Context, cfg RetryConfig, operation func() error) error {
	attempts := cfg.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		errType := ClassifyError(err)
		switch errType {
		case ErrorTypeSuccess:
			return nil
		case ErrorTypeFatal, ErrorTypeCredential:
			return err
		}

		if attempt == attempts-1 {
			break
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err, errType)
		}

		timer := time.NewTimer(CalculateBackoff(attempt+1, cfg.InitialDelay, cfg.MaxDelay))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", attempts, lastErr)
}

// ErrorTypeName returns a human-readable name for an ErrorType
func ErrorTypeName(errType ErrorType) string {
	switch errType {
	case ErrorTypeSuccess:
		return "success"
	case ErrorTypeCredential:
		return "credential"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeRetryable:
		return "retryable"
	case ErrorTypeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
