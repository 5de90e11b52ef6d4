package meli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrTransport marks network and connection failures. They are never
	// retried by this package.
	ErrTransport = errors.New("transport failure")

	// ErrAuth marks a rejected token refresh or a request that was still
	// unauthorized after the single retry.
	ErrAuth = errors.New("authentication failure")

	// ErrMalformedResponse marks a token endpoint payload without the
	// required fields. It is always reported wrapped in an *AuthError.
	ErrMalformedResponse = errors.New("malformed token response")

	// ErrRateLimited is returned when the client-side quota is exhausted.
	ErrRateLimited = errors.New("rate limit reached")
)

// TransportError wraps a failure from the underlying HTTP transport.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is reports ErrTransport so callers can match without errors.As.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// AuthError describes an authentication failure, either from the token
// endpoint or from a request that was rejected twice.
type AuthError struct {
	Op          string
	StatusCode  int
	Code        string
	Description string
	Err         error
}

func (e *AuthError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": authentication failed")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Code != "" {
		b.WriteString(": ")
		b.WriteString(e.Code)
		if e.Description != "" {
			b.WriteString(" - ")
			b.WriteString(e.Description)
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is reports ErrAuth so callers can match without errors.As.
func (e *AuthError) Is(target error) bool { return target == ErrAuth }

// ErrorCause is one entry of the cause list in a marketplace error body.
type ErrorCause struct {
	Code    any    `json:"code"`
	Message string `json:"message"`
}

// APIError is a non-2xx response other than an authentication failure.
type APIError struct {
	StatusCode int          `json:"-"`
	Message    string       `json:"message"`
	Code       string       `json:"error"`
	Status     int          `json:"status"`
	Cause      []ErrorCause `json:"cause"`
	Body       []byte       `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error (status %d): %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, string(e.Body))
}

// newAPIError builds an APIError from a response body. Bodies that are not
// the marketplace's JSON error shape are kept raw.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{}
	_ = json.Unmarshal(body, apiErr) //nolint:errcheck // best-effort error parsing
	apiErr.StatusCode = status
	apiErr.Body = body
	return apiErr
}

// IsUnauthorized reports whether a status code means the bearer token was
// not accepted.
func IsUnauthorized(status int) bool {
	return status == http.StatusUnauthorized
}
