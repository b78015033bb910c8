// Package errors provides custom error types for the RAG chatbot client.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrAuthFailed      = errors.New("authentication failed")
	ErrNoCredentials   = errors.New("no credentials found")
	ErrInvalidResponse = errors.New("invalid response format")
	ErrNoContent       = errors.New("no content in response")
	ErrSessionClosed   = errors.New("session is closed")
	ErrTurnSealed      = errors.New("turn already sealed")
	ErrSourceLimit     = errors.New("source limit reached")
	ErrSourceType      = errors.New("unsupported source type")
)

// AuthError represents an authentication failure
type AuthError struct {
	Message  string
	Endpoint string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication failed: check username and password"
	}
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// Is allows comparison with sentinel errors
func (e *AuthError) Is(target error) bool {
	// Match with ErrAuthFailed sentinel error
	if target == ErrAuthFailed {
		return true
	}
	// Match with another AuthError (for error wrapping/unwrapping)
	_, ok := target.(*AuthError)
	return ok
}

// NewAuthError creates a new AuthError
func NewAuthError(message string) *AuthError {
	return &AuthError{Message: message}
}

// NewAuthErrorWithEndpoint creates an AuthError tagged with the endpoint that rejected the request
func NewAuthErrorWithEndpoint(message, endpoint string) *AuthError {
	return &AuthError{Message: message, Endpoint: endpoint}
}

// APIError represents an API request failure
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
	Body       string // Response body excerpt for diagnostics
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error at %s: %s", e.Endpoint, e.Message)
}

// Is allows comparison with other APIErrors
func (e *APIError) Is(target error) bool {
	_, ok := target.(*APIError)
	return ok
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// NewAPIErrorWithBody creates an APIError carrying a response body excerpt
func NewAPIErrorWithBody(statusCode int, endpoint, message, body string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
		Body:       body,
	}
}

// NetworkError represents a connection-level failure before any HTTP status
// was received
type NetworkError struct {
	Endpoint string
	Cause    error
}

func (e *NetworkError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("network error at %s: %v", e.Endpoint, e.Cause)
	}
	return fmt.Sprintf("network error: %v", e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// Is allows comparison with other NetworkErrors
func (e *NetworkError) Is(target error) bool {
	_, ok := target.(*NetworkError)
	return ok
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(endpoint string, cause error) *NetworkError {
	return &NetworkError{Endpoint: endpoint, Cause: cause}
}

// TimeoutError represents a request timeout
type TimeoutError struct {
	Message  string
	Endpoint string
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "request timed out"
	}
	return fmt.Sprintf("request timed out: %s", e.Message)
}

// Is allows comparison with other TimeoutErrors
func (e *TimeoutError) Is(target error) bool {
	_, ok := target.(*TimeoutError)
	return ok
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(message string) *TimeoutError {
	return &TimeoutError{Message: message}
}

// UploadError represents a document upload failure
type UploadError struct {
	Filename string
	Message  string
	Cause    error
}

func (e *UploadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("upload failed for %s: %v", e.Filename, e.Cause)
	}
	return fmt.Sprintf("upload failed for %s: %s", e.Filename, e.Message)
}

func (e *UploadError) Unwrap() error {
	return e.Cause
}

// Is allows comparison with other UploadErrors
func (e *UploadError) Is(target error) bool {
	_, ok := target.(*UploadError)
	return ok
}

// NewUploadError creates a new UploadError
func NewUploadError(filename, message string) *UploadError {
	return &UploadError{Filename: filename, Message: message}
}

// NewUploadErrorWithCause creates an UploadError wrapping another error
func NewUploadErrorWithCause(filename string, cause error) *UploadError {
	return &UploadError{Filename: filename, Cause: cause}
}

// ParseError represents a response parsing error
type ParseError struct {
	Message string
	Path    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Is allows comparison with sentinel errors
func (e *ParseError) Is(target error) bool {
	// Match with ErrInvalidResponse sentinel error
	if target == ErrInvalidResponse {
		return true
	}
	// Match with another ParseError (for error wrapping/unwrapping)
	_, ok := target.(*ParseError)
	return ok
}

// NewParseError creates a new ParseError
func NewParseError(message, path string) *ParseError {
	return &ParseError{Message: message, Path: path}
}

// IsAuthError reports whether err is an authentication failure
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuthFailed) {
		return true
	}
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsNetworkError reports whether err is a connection-level failure
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsTimeoutError reports whether err is a request timeout
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

// IsUploadError reports whether err is a document upload failure
func IsUploadError(err error) bool {
	if err == nil {
		return false
	}
	var uploadErr *UploadError
	return errors.As(err, &uploadErr)
}

// IsRateLimitError reports whether err is an HTTP 429 from the backend
func IsRateLimitError(err error) bool {
	return GetHTTPStatus(err) == 429
}

// GetHTTPStatus extracts the HTTP status code from an error chain, or 0
func GetHTTPStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// GetEndpoint extracts the endpoint from an error chain, or ""
func GetEndpoint(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Endpoint
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Endpoint
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Endpoint
	}
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return timeoutErr.Endpoint
	}
	return ""
}

// GetResponseBody extracts the response body excerpt from an error chain, or ""
func GetResponseBody(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Body
	}
	return ""
}
