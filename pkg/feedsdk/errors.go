package feedsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ============================================================================
// Sentinel Errors
// ============================================================================

var (
	// ErrTransport wraps network-level failures (DNS, refused, timeout). The
	// request may or may not have reached the server.
	ErrTransport = errors.New("feedsdk: transport failure")

	// ErrSessionExpired matches every *SessionExpiredError. Local credentials
	// have already been wiped by the time a caller sees it.
	ErrSessionExpired = errors.New("feedsdk: session expired")

	// ErrNotAuthenticated is returned by the route guard when there is no
	// authenticated user.
	ErrNotAuthenticated = errors.New("feedsdk: not authenticated")

	// ErrInvalidTransition is returned when an operation is not allowed from
	// the session's current state (e.g. Login before Bootstrap).
	ErrInvalidTransition = errors.New("feedsdk: invalid session state transition")

	// ErrNoTokens is returned by TokenStore.Load when nothing is persisted.
	ErrNoTokens = errors.New("feedsdk: no persisted tokens")

	// ErrNoRefreshToken is the cause of a SessionExpiredError raised without
	// contacting the server.
	ErrNoRefreshToken = errors.New("feedsdk: no refresh token available")
)

// ============================================================================
// APIError - non-2xx responses
// ============================================================================

// APIError is any non-2xx answer the gateway did not recover from. Message is
// the server's "message" field and is empty when the server sent none.
type APIError struct {
	StatusCode int
	Message    string
	Errors     map[string][]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("feedsdk: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("feedsdk: HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsUnauthorized reports whether err is an APIError with status 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// parseErrorResponse builds an APIError from a non-2xx response body. The API
// answers {"message": "...", "errors": {"field": ["..."]}}; anything else is
// kept as a bare status.
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var payload struct {
		Message string              `json:"message"`
		Error   string              `json:"error"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = payload.Message
		if apiErr.Message == "" {
			apiErr.Message = payload.Error
		}
		apiErr.Errors = payload.Errors
	}

	return apiErr
}

// ============================================================================
// DecodeError - malformed success bodies
// ============================================================================

// DecodeError means the server answered 2xx but the body did not match the
// endpoint's schema. Distinct from ErrTransport: the call did succeed.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("feedsdk: failed to decode %s response: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ============================================================================
// SessionExpiredError - terminal auth failure
// ============================================================================

// SessionExpiredError is returned when a refresh fails. The session has been
// cleared; Err is the refresh failure.
type SessionExpiredError struct {
	Err error
}

func (e *SessionExpiredError) Error() string {
	return fmt.Sprintf("feedsdk: session expired: %v", e.Err)
}

func (e *SessionExpiredError) Unwrap() error { return e.Err }

func (e *SessionExpiredError) Is(target error) bool { return target == ErrSessionExpired }

// ============================================================================
// ValidationError - client-side checks
// ============================================================================

// ValidationError lists field problems found before any request was sent.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "feedsdk: validation failed: " + strings.Join(parts, "; ")
}

// newValidationError returns nil for an empty map so callers can `return`
// the result directly.
func newValidationError(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// ============================================================================
// Human-readable messages
// ============================================================================

// Message turns err into text fit for an inline alert. The server's own
// message wins; otherwise fallback is used ("Login failed", ...).
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return strings.TrimPrefix(valErr.Error(), "feedsdk: ")
	}

	if errors.Is(err, ErrSessionExpired) {
		return "Your session has expired. Please log in again."
	}

	if errors.Is(err, ErrNotAuthenticated) {
		return "You are not logged in."
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	return fallback
}
