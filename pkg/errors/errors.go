package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Error codes shared across all packages
const (
	// Generic errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// Provider key set errors
	ErrCodeKeyFetchFailed ErrorCode = "KEY_FETCH_FAILED"

	// Token verification errors
	ErrCodeMalformedToken   ErrorCode = "MALFORMED_TOKEN"
	ErrCodeUnknownKey       ErrorCode = "UNKNOWN_KEY"
	ErrCodeInvalidSignature ErrorCode = "INVALID_SIGNATURE"
	ErrCodeClaimMismatch    ErrorCode = "CLAIM_MISMATCH"
	ErrCodeTokenExpired     ErrorCode = "TOKEN_EXPIRED"

	// Code exchange errors
	ErrCodeCodeExchangeFailed ErrorCode = "CODE_EXCHANGE_FAILED"

	// Identity errors
	ErrCodeIdentityClaimMissing ErrorCode = "IDENTITY_CLAIM_MISSING"

	// User store errors
	ErrCodeUserStoreConflict ErrorCode = "USER_STORE_CONFLICT"
	ErrCodeUserStoreFailed   ErrorCode = "USER_STORE_FAILED"
)

// Class groups error codes by the action the client should take.
type Class string

const (
	// ClassRetryLogin covers transient provider failures; the same login
	// attempt may be retried as-is.
	ClassRetryLogin Class = "retry_login"
	// ClassRestartLogin covers invalid or expired credentials; the client
	// must start a fresh login.
	ClassRestartLogin Class = "restart_login"
	// ClassInternal covers failures on our side.
	ClassInternal Class = "internal_error"
)

// Error represents a structured error with code, message, and a wrapped cause
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *Error) HTTPStatusCode() int {
	return MapErrorCodeToHTTPStatus(e.Code)
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with code and message
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrapf wraps an existing error with code and formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
// Returns ErrCodeInternal if the error is not a structured Error
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// Classify maps an error code to the client-facing failure class. Provider
// outages are retryable, credential problems need a fresh login, everything
// else is internal.
func Classify(err error) Class {
	switch GetCode(err) {
	case ErrCodeKeyFetchFailed, ErrCodeCodeExchangeFailed:
		return ClassRetryLogin
	case ErrCodeMalformedToken, ErrCodeUnknownKey, ErrCodeInvalidSignature,
		ErrCodeClaimMismatch, ErrCodeTokenExpired, ErrCodeIdentityClaimMissing:
		return ClassRestartLogin
	default:
		return ClassInternal
	}
}

// MapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func MapErrorCodeToHTTPStatus(code ErrorCode) int {
	switch code {
	// 400 Bad Request
	case ErrCodeInvalidInput:
		return http.StatusBadRequest

	// 401 Unauthorized
	case ErrCodeUnauthorized, ErrCodeMalformedToken, ErrCodeUnknownKey,
		ErrCodeInvalidSignature, ErrCodeClaimMismatch, ErrCodeTokenExpired,
		ErrCodeCodeExchangeFailed, ErrCodeIdentityClaimMissing:
		return http.StatusUnauthorized

	// 403 Forbidden
	case ErrCodeForbidden:
		return http.StatusForbidden

	// 404 Not Found
	case ErrCodeNotFound:
		return http.StatusNotFound

	// 409 Conflict
	case ErrCodeUserStoreConflict:
		return http.StatusConflict

	// 503 Service Unavailable
	case ErrCodeKeyFetchFailed:
		return http.StatusServiceUnavailable

	// 500 Internal Server Error (default)
	case ErrCodeInternal, ErrCodeUserStoreFailed:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}

// NotFound creates a "not found" error
func NotFound(resourceType, identifier string) *Error {
	return Newf(ErrCodeNotFound, "%s not found: %s", resourceType, identifier)
}

// InvalidInput creates an "invalid input" error
func InvalidInput(field, reason string) *Error {
	return New(ErrCodeInvalidInput, fmt.Sprintf("invalid %s: %s", field, reason))
}

// Unauthorized creates an "unauthorized" error
func Unauthorized(message string) *Error {
	return New(ErrCodeUnauthorized, message)
}

// Internal creates an "internal error"
func Internal(message string, err error) *Error {
	return Wrap(err, ErrCodeInternal, message)
}
