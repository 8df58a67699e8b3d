package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"

	"github.com/docassist/docassist/internal/constants"
)

// ErrNotAuthenticated is returned by operations that need a session token
// when none is configured.
var ErrNotAuthenticated = errors.New("not authenticated")

// APIError is a non-2xx backend response. Message comes from the JSON
// error body when the backend sends one.
type APIError struct {
	Status  int             `json:"-"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("status %d: %s", e.Status, nethttp.StatusText(e.Status))
}

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 * 1024

func newAPIError(resp *nethttp.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return apiErr
	}

	if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
		// fall back to an "error" field, then to a short plain-text body
		var alt struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &alt) == nil && alt.Error != "" {
			apiErr.Message = alt.Error
		} else if err != nil && !strings.HasPrefix(trimmed, "<") && len(trimmed) <= 200 {
			apiErr.Message = trimmed
		}
	}
	apiErr.Status = resp.StatusCode
	return apiErr
}

// ErrorMessage extracts the best user-facing text from err: the server's
// structured message, then the error text, then "Unknown error".
func ErrorMessage(err error) string {
	if err == nil {
		return constants.UnknownErrorMessage
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return constants.UnknownErrorMessage
}

// IsUnauthorized reports whether err is a 401 from the backend or a
// missing session.
func IsUnauthorized(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotAuthenticated) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == nethttp.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == nethttp.StatusNotFound
}

// IsConflict reports whether err is a 409 from the backend, e.g. a taken username.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == nethttp.StatusConflict
}
