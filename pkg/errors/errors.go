package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of application errors
type ErrorType string

const (
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeAuth          ErrorType = "auth"
	ErrorTypeTransport     ErrorType = "transport"
	ErrorTypeTimeout       ErrorType = "timeout"
	ErrorTypeProtocol      ErrorType = "protocol"
	ErrorTypeNormalization ErrorType = "normalization"
	ErrorTypeInternal      ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code"`
	Internal   error                  `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`

	// UpstreamStatus and UpstreamBody carry the provider response for
	// auth/transport/protocol errors so callers can diagnose without
	// re-running the call.
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamBody   string `json:"upstream_body,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Internal.Error())
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Retryable reports whether the caller may reasonably retry after this
// error. Configuration, validation, protocol and normalization failures
// are never retryable; auth, transport and timeout failures are.
func (e *AppError) Retryable() bool {
	switch e.Type {
	case ErrorTypeAuth, ErrorTypeTransport, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// NewConfigurationError creates a fatal configuration error
func NewConfigurationError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeConfiguration,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// NewAuthError creates an error for a failed token exchange. Status and
// body are the token endpoint's response, verbatim.
func NewAuthError(message string, upstreamStatus int, upstreamBody string, internal error) *AppError {
	return &AppError{
		Type:           ErrorTypeAuth,
		Message:        message,
		StatusCode:     http.StatusBadGateway,
		Internal:       internal,
		UpstreamStatus: upstreamStatus,
		UpstreamBody:   upstreamBody,
	}
}

// NewTransportError creates an error for a network-level or non-2xx
// failure against the reporting API
func NewTransportError(message string, upstreamStatus int, upstreamBody string, internal error) *AppError {
	return &AppError{
		Type:           ErrorTypeTransport,
		Message:        message,
		StatusCode:     http.StatusBadGateway,
		Internal:       internal,
		UpstreamStatus: upstreamStatus,
		UpstreamBody:   upstreamBody,
	}
}

// NewTimeoutError creates a distinguishable timeout error
func NewTimeoutError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
		Internal:   internal,
	}
}

// NewProtocolError creates an error for a 2xx response with a malformed
// or missing expected structure
func NewProtocolError(message string, upstreamBody string, internal error) *AppError {
	return &AppError{
		Type:         ErrorTypeProtocol,
		Message:      message,
		StatusCode:   http.StatusBadGateway,
		Internal:     internal,
		UpstreamBody: upstreamBody,
	}
}

// NewNormalizationError creates an error for a row/metric that could not
// be parsed, identifying the query kind and offending row
func NewNormalizationError(queryKind string, rowIndex int, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeNormalization,
		Message:    fmt.Sprintf("failed to normalize %s row %d", queryKind, rowIndex),
		StatusCode: http.StatusBadGateway,
		Internal:   internal,
		Details: map[string]interface{}{
			"query_kind": queryKind,
			"row_index":  rowIndex,
		},
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// IsType reports whether err is an AppError of the given type
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsTimeout reports whether err is a timeout error
func IsTimeout(err error) bool {
	return IsType(err, ErrorTypeTimeout)
}

// AsAppError extracts an AppError, wrapping unknown errors as internal
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError("unexpected error", err)
}
