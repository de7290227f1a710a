package cli

import (
	"errors"
	"fmt"
	"testing"

	"mercator-hq/turnstile/pkg/config"
)

func TestConfigError(t *testing.T) {
	err := &ConfigError{
		Field:   "limiter.window",
		Message: "must be positive",
	}

	expected := "config error in limiter.window: must be positive"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("field", "message")
	if err.Field != "field" {
		t.Errorf("Field = %q, want %q", err.Field, "field")
	}
	if err.Message != "message" {
		t.Errorf("Message = %q, want %q", err.Message, "message")
	}
}

func TestCommandError(t *testing.T) {
	underlyingErr := errors.New("underlying error")
	err := NewCommandError("check", underlyingErr)

	expected := "command check failed: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}

	if err.Unwrap() != underlyingErr {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), underlyingErr)
	}
	if !errors.Is(err, underlyingErr) {
		t.Error("errors.Is() should work with CommandError.Unwrap()")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain error", errors.New("boom"), ExitFailure},
		{"config error", NewConfigError("output", "bad"), ExitConfigError},
		{
			name: "wrapped validation error",
			err: NewCommandError("check", fmt.Errorf("load: %w",
				config.ValidationError{Errors: []config.FieldError{{Field: "limiter.window", Message: "bad"}}})),
			want: ExitConfigError,
		},
		{"command error", NewCommandError("bench", errors.New("boom")), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
