package index

import (
	"context"
	"errors"
	"fmt"
)

// Error codes for categorizing search failures
const (
	ErrCodeNetwork       = "NETWORK_ERROR"
	ErrCodeAuth          = "AUTH_ERROR"
	ErrCodeQuery         = "QUERY_ERROR"
	ErrCodeService       = "SERVICE_ERROR"
	ErrCodeRateLimit     = "RATE_LIMIT_ERROR"
	ErrCodeCancelled     = "CANCELLED"
	ErrCodeConfiguration = "CONFIG_ERROR"
)

// SearchError is a categorized failure of a remote search call.
type SearchError struct {
	Code      string // Error category code
	Message   string // Human-readable message
	Index     string // Name of the affected index
	Status    int    // HTTP status when the remote answered, 0 otherwise
	Retryable bool
	Cause     error
}

// Error implements the error interface.
func (e *SearchError) Error() string {
	if e.Index != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Index, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *SearchError) Unwrap() error {
	return e.Cause
}

// Is matches on the error code so errors.Is works against the sentinels below.
func (e *SearchError) Is(target error) bool {
	var t *SearchError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

var (
	ErrNetwork       = &SearchError{Code: ErrCodeNetwork, Message: "network error"}
	ErrAuth          = &SearchError{Code: ErrCodeAuth, Message: "authentication failed"}
	ErrQuery         = &SearchError{Code: ErrCodeQuery, Message: "invalid query"}
	ErrService       = &SearchError{Code: ErrCodeService, Message: "search service error"}
	ErrRateLimit     = &SearchError{Code: ErrCodeRateLimit, Message: "rate limit exceeded"}
	ErrCancelled     = &SearchError{Code: ErrCodeCancelled, Message: "search cancelled"}
	ErrConfiguration = &SearchError{Code: ErrCodeConfiguration, Message: "configuration error"}
)

// NewNetworkError creates a transport-level failure.
func NewNetworkError(indexName string, cause error) *SearchError {
	return &SearchError{
		Code:      ErrCodeNetwork,
		Message:   "network error",
		Index:     indexName,
		Retryable: true,
		Cause:     cause,
	}
}

// NewAuthError creates a credentials failure.
func NewAuthError(indexName string, status int, message string) *SearchError {
	if message == "" {
		message = "authentication failed"
	}
	return &SearchError{
		Code:    ErrCodeAuth,
		Message: message,
		Index:   indexName,
		Status:  status,
	}
}

// NewQueryError creates a malformed query failure.
func NewQueryError(indexName string, status int, message string) *SearchError {
	if message == "" {
		message = "invalid query"
	}
	return &SearchError{
		Code:    ErrCodeQuery,
		Message: message,
		Index:   indexName,
		Status:  status,
	}
}

// NewServiceError creates a failure reported by the remote service itself.
func NewServiceError(indexName string, status int, message string) *SearchError {
	if message == "" {
		message = "search service error"
	}
	return &SearchError{
		Code:      ErrCodeService,
		Message:   message,
		Index:     indexName,
		Status:    status,
		Retryable: true,
	}
}

// NewRateLimitError creates a throttling failure.
func NewRateLimitError(indexName string) *SearchError {
	return &SearchError{
		Code:      ErrCodeRateLimit,
		Message:   "rate limit exceeded",
		Index:     indexName,
		Status:    429,
		Retryable: true,
	}
}

// NewConfigError reports a missing or unusable index configuration.
func NewConfigError(indexName string, message string) *SearchError {
	return &SearchError{
		Code:    ErrCodeConfiguration,
		Message: message,
		Index:   indexName,
	}
}

// AsSearchError converts any error into a *SearchError, keeping existing
// categorization and treating context errors as cancellation.
func AsSearchError(indexName string, err error) *SearchError {
	if err == nil {
		return nil
	}
	var se *SearchError
	if errors.As(err, &se) {
		if se.Index == "" {
			cp := *se
			cp.Index = indexName
			return &cp
		}
		return se
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &SearchError{
			Code:    ErrCodeCancelled,
			Message: "search cancelled",
			Index:   indexName,
			Cause:   err,
		}
	}
	return NewNetworkError(indexName, err)
}

// IsRetryable returns whether the error is retryable.
func IsRetryable(err error) bool {
	var se *SearchError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// IsAuthError returns whether the error is an authentication error.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuth)
}

// IsCancelled returns whether the search was abandoned by its caller.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// Code extracts the error code from an error.
func Code(err error) string {
	var se *SearchError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
