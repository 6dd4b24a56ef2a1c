package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/bartab-console/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrorCodeInvalidToken       = "INVALID_TOKEN"
	ErrorCodeForbidden          = "FORBIDDEN"
	ErrorCodeNotFound           = "NOT_FOUND"
	ErrorCodeValidation         = "VALIDATION_ERROR"
	ErrorCodeServerError        = "SERVER_ERROR"
)

// ============================================================================
// APIError - backend error envelope
// ============================================================================

// APIError is a non-2xx backend response decoded from the error envelope.
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int `json:"-"`

	// Code is the backend's machine-readable error code, when it sent one.
	Code string `json:"error,omitempty"`

	// Message is human-readable and safe to show to the operator.
	Message string `json:"message"`

	Path   string `json:"path,omitempty"`
	Method string `json:"method,omitempty"`

	// Detail carries field errors for validation failures.
	Detail map[string]string `json:"detail,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether the backend rejected the credentials.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// WriteError writes the error back out in the same envelope shape it arrived
// in, so console clients see backend failures unchanged.
func (e *APIError) WriteError(w http.ResponseWriter, r *http.Request) {
	if len(e.Detail) > 0 {
		httpx.WriteErrorDetail(w, r, e.StatusCode, e.Code, e.Message, e.Detail)
		return
	}
	httpx.WriteError(w, r, e.StatusCode, e.Code, e.Message)
}

// NewAPIError creates an APIError with the given status, code and message.
func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Message: message}
}

// ============================================================================
// NetworkError - the backend could not be reached
// ============================================================================

// NetworkError wraps a transport-level failure with an operator-facing
// message. The cause stays reachable through errors.Unwrap.
type NetworkError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message())
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error { return e.Err }

// Message is a human-readable summary of the failure.
func (e *NetworkError) Message() string {
	var netErr net.Error
	switch {
	case errors.Is(e.Err, context.DeadlineExceeded):
		return "the server took too long to respond"
	case errors.Is(e.Err, context.Canceled):
		return "the request was cancelled"
	case errors.As(e.Err, &netErr) && netErr.Timeout():
		return "the server took too long to respond"
	case e.Err != nil && strings.Contains(e.Err.Error(), "connection refused"):
		return "unable to reach the server"
	default:
		return "a network error occurred, please try again"
	}
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx response into an *APIError. It prefers
// the error envelope, then a bare {"message"} body, then the status text.
// Returns nil for 2xx responses.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	if resp.Request != nil {
		apiErr.Path = resp.Request.URL.Path
		apiErr.Method = resp.Request.Method
	}

	var env struct {
		Envelope
		Detail json.RawMessage `json:"detail,omitempty"`
	}
	if err := json.Unmarshal(body, &env); err == nil && (env.Message != "" || env.Error != "") {
		apiErr.Code = env.Error
		apiErr.Message = env.Message
		apiErr.Detail = parseDetail(env.Detail)
		if env.Path != "" {
			apiErr.Path = env.Path
		}
		if env.Method != "" {
			apiErr.Method = env.Method
		}
		if apiErr.Message == "" {
			apiErr.Message = env.Error
		}
		return apiErr
	}

	apiErr.Code = ErrorCodeServerError
	apiErr.Message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	return apiErr
}

// parseDetail flattens a detail object into field messages. Non-string values
// are kept in their JSON form; anything that is not an object is dropped.
func parseDetail(raw json.RawMessage) map[string]string {
	var fields map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &fields) != nil || len(fields) == 0 {
		return nil
	}

	detail := make(map[string]string, len(fields))
	for k, v := range fields {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			detail[k] = s
			continue
		}
		detail[k] = string(v)
	}
	return detail
}
