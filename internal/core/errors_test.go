// internal/core/errors_test.go
package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{Code: "TEST_ERROR", Message: "test message"}
	if err.Error() != "[TEST_ERROR] test message" {
		t.Errorf("unexpected error string: %s", err.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Code: "WRAP", Message: "wrapped", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should return cause")
	}
}

func TestError_Is(t *testing.T) {
	if !errors.Is(ErrSignalNotFound, ErrSignalNotFound) {
		t.Error("same error should match")
	}
	if errors.Is(ErrSignalNotFound, ErrMarketNotFound) {
		t.Error("different codes should not match")
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("original")
	wrapped := WrapError(ErrProviderUnavailable, cause)
	if wrapped.Cause != cause {
		t.Error("cause not set")
	}
	if wrapped.Code != ErrProviderUnavailable.Code {
		t.Error("code not preserved")
	}
	if !errors.Is(wrapped, ErrProviderUnavailable) {
		t.Error("wrapped error should match its base by code")
	}
}

func TestErrorf(t *testing.T) {
	err := Errorf(ErrMarketDataMissing, "market %s has no price", "m1")
	if !errors.Is(err, ErrMarketDataMissing) {
		t.Error("expected MARKET_DATA_MISSING")
	}
	if err.Cause.Error() != "market m1 has no price" {
		t.Errorf("unexpected cause: %v", err.Cause)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"coded", ErrPersistenceFailure, "PERSISTENCE_FAILURE"},
		{"wrapped by fmt", fmt.Errorf("ctx: %w", WrapError(ErrRateLimited, nil)), "RATE_LIMITED"},
		{"plain", errors.New("boom"), "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.want {
				t.Errorf("ErrorCode() = %s, want %s", got, tt.want)
			}
		})
	}
}
