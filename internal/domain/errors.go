package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Caller protocol errors
	ErrorCodeUnrecognizedGateway ErrorCode = "UNRECOGNIZED_GATEWAY"
	ErrorCodeUnrecognizedAction  ErrorCode = "UNRECOGNIZED_ACTION"
	ErrorCodeProtocolFraming     ErrorCode = "PROTOCOL_FRAMING"

	// Request validation errors
	ErrorCodeMissingField ErrorCode = "MISSING_REQUIRED_FIELD"

	// Backend errors
	ErrorCodeBackendError ErrorCode = "BACKEND_ERROR"

	// Internal errors
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsCallerError reports whether err was caused by the caller rather than the bridge or a backend.
func IsCallerError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeUnrecognizedGateway ||
		code == ErrorCodeUnrecognizedAction ||
		code == ErrorCodeProtocolFraming ||
		code == ErrorCodeMissingField
}

// UserMessage returns the message that is safe to hand back to the caller.
// Domain errors expose only their Message; the wrapped cause stays in the logs.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}

// MissingParameter builds the error raised when a required request field is absent.
func MissingParameter(name string) *DomainError {
	return NewDomainError(ErrorCodeMissingField, "Missing required parameter: "+name).
		WithDetail("parameter", name)
}

// InvalidParameter builds the error raised when a required request field cannot be parsed.
func InvalidParameter(name string, err error) *DomainError {
	return WrapError(ErrorCodeMissingField, fmt.Sprintf("Invalid value for parameter: %s", name), err).
		WithDetail("parameter", name)
}

// NewBackendError builds the error raised by a backend for a business-level or transport failure.
func NewBackendError(message string) *DomainError {
	return NewDomainError(ErrorCodeBackendError, message)
}

// WrapBackendError wraps a transport or decoding failure from a backend.
func WrapBackendError(message string, err error) *DomainError {
	return WrapError(ErrorCodeBackendError, message, err)
}

// Structured error instances for the dispatcher's early rejections
var (
	ErrUnrecognizedGateway = NewDomainError(ErrorCodeUnrecognizedGateway, "Unrecognized gateway")
	ErrUnrecognizedAction  = NewDomainError(ErrorCodeUnrecognizedAction, "Unrecognized Action")
	ErrNoAction            = NewDomainError(ErrorCodeUnrecognizedAction, "No action")
	ErrNoData              = NewDomainError(ErrorCodeMissingField, "No Data")
	ErrNoSecureData        = NewDomainError(ErrorCodeMissingField, "No Secure Data")
	ErrMalformedRequest    = NewDomainError(ErrorCodeProtocolFraming, "Malformed request")
)
