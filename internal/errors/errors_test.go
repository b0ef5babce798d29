package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		checkFn  func(error) bool
		expected bool
	}{
		{
			name:     "ErrNotFound is recognized",
			err:      ErrNotFound,
			checkFn:  IsNotFound,
			expected: true,
		},
		{
			name:     "Joined ErrNotFound is recognized",
			err:      errors.Join(ErrNotFound, errors.New("additional context")),
			checkFn:  IsNotFound,
			expected: true,
		},
		{
			name:     "Different error is not ErrNotFound",
			err:      ErrRateLimited,
			checkFn:  IsNotFound,
			expected: false,
		},
		{
			name:     "ErrRateLimited is recognized through fmt wrapping",
			err:      fmt.Errorf("user U123: %w", ErrRateLimited),
			checkFn:  IsRateLimited,
			expected: true,
		},
		{
			name:     "ValidationError is invalid input",
			err:      NewValidationError("question", "must not be empty"),
			checkFn:  IsInvalidInput,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.checkFn(tt.err); result != tt.expected {
				t.Errorf("expected %v, got %v for %v", tt.expected, result, tt.err)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("groups[2].variants", "must not be empty")

	want := "validation failed on groups[2].variants: must not be empty"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	var target *ValidationError
	if !errors.As(fmt.Errorf("load: %w", err), &target) {
		t.Fatal("expected errors.As to find ValidationError")
	}
	if target.Field != "groups[2].variants" {
		t.Errorf("Field = %q", target.Field)
	}
}
