package testutil

import (
	"encoding/json"
	"errors"
	"testing"

	apperrors "tripbudget/internal/errors"

	"github.com/shopspring/decimal"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertDecimal compares a decimal against its expected string form by value,
// so "10.50" and "10.5" are equal.
func AssertDecimal(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()

	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("expected %s, got %s", want, got.String())
	}
}

// AssertSameJSON fails if a and b do not marshal to identical JSON.
func AssertSameJSON(t *testing.T, a, b interface{}) {
	t.Helper()

	ja, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	jb, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if string(ja) != string(jb) {
		t.Errorf("snapshots differ:\n  got:  %s\n  want: %s", ja, jb)
	}
}

// FixedDecimal parses a decimal literal, panicking on malformed input.
func FixedDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
