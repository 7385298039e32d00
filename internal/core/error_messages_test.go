package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"empty catalog", &ImportError{Reason: ReasonEmptySource}, "IMP001"},
		{"header only catalog", &ImportError{Reason: ReasonNoDataRows}, "IMP002"},
		{"no products", &ImportError{Reason: ReasonNoProducts}, "IMP003"},
		{"persist failure", fmt.Errorf("persist snapshot %q: %w", "products_ana", errors.New("disk full")), "STO001"},
		{"forbidden", ErrForbidden, "AUTH001"},
		{"user limit", fmt.Errorf("%w: at most 5 users", ErrUserLimit), "USR001"},
		{"duplicate user", ErrUserExists, "USR002"},
		{"reserved name", ErrReservedName, "USR003"},
		{"unknown user", ErrUnknownUser, "USR004"},
		{"invalid product", ErrInvalidProduct, "PRD001"},
		{"case insensitive matching", errors.New("FORBIDDEN"), "AUTH001"},
		{"unknown error returns default", errors.New("some random internal error"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrForbidden)

	expected := "You are not allowed to do that (Code: AUTH001). Log in as an administrator"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrUserExists, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := &ImportError{Reason: ReasonNoDataRows}
		userErr := NewUserError(techErr)

		if userErr.Error() != "The catalog file only has a header row" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, techErr) {
			t.Error("Unwrap() should return original error")
		}
		if !IsImportError(userErr) {
			t.Error("IsImportError() should see through UserError")
		}
	})
}
