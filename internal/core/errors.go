// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Errorf wraps a formatted cause under base.
func Errorf(base *Error, format string, args ...any) *Error {
	return WrapError(base, fmt.Errorf(format, args...))
}

// ErrorCode returns the code of the first *Error in err's chain, or "UNKNOWN".
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "UNKNOWN"
}

// Predefined errors
var (
	// Provider errors
	ErrProviderUnavailable = &Error{Code: "PROVIDER_UNAVAILABLE", Message: "data provider unavailable"}
	ErrMarketDataMissing   = &Error{Code: "MARKET_DATA_MISSING", Message: "market data missing"}
	ErrRateLimited         = &Error{Code: "RATE_LIMITED", Message: "provider rate limited"}

	// Storage errors
	ErrPersistenceFailure = &Error{Code: "PERSISTENCE_FAILURE", Message: "persistence failure"}
	ErrSignalNotFound     = &Error{Code: "SIGNAL_NOT_FOUND", Message: "signal not found"}
	ErrMarketNotFound     = &Error{Code: "MARKET_NOT_FOUND", Message: "market not found"}
	ErrInvalidTransition  = &Error{Code: "INVALID_TRANSITION", Message: "invalid status transition"}

	// Notifier errors
	ErrNotifierFailed = &Error{Code: "NOTIFIER_FAILED", Message: "notifier failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Run errors
	ErrRunInProgress = &Error{Code: "RUN_IN_PROGRESS", Message: "a run of this kind is already in progress"}
	ErrRunNotFound   = &Error{Code: "RUN_NOT_FOUND", Message: "run not found"}

	// LLM errors
	ErrLLMFailed  = &Error{Code: "LLM_FAILED", Message: "LLM request failed"}
	ErrLLMTimeout = &Error{Code: "LLM_TIMEOUT", Message: "LLM request timeout"}
)
