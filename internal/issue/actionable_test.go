// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name: "operation only",
			err: &ActionableError{
				Operation: "pull agent image",
			},
			expected: "failed to pull agent image",
		},
		{
			name: "operation with resource",
			err: &ActionableError{
				Operation: "pull agent image",
				Resource:  "ghcr.io/dockhand/agent:latest",
			},
			expected: "failed to pull agent image: ghcr.io/dockhand/agent:latest",
		},
		{
			name: "operation with cause",
			err: &ActionableError{
				Operation: "start service",
				Cause:     errors.New("unit docker.service not found"),
			},
			expected: "failed to start service: unit docker.service not found",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "install container engine",
				Resource:  "docker-ce",
				Cause:     errors.New("exit status 1"),
			},
			expected: "failed to install container engine: docker-ce: exit status 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ActionableError{
		Operation: "test",
		Cause:     cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap() should return the cause error")
	}

	errNoCause := &ActionableError{Operation: "test"}
	if errNoCause.Unwrap() != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := NewErrorContext().
		WithOperation("remove container").
		Wrap(sentinel).
		BuildError()

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should find the wrapped sentinel through the ActionableError")
	}
}

func TestActionableError_Format(t *testing.T) {
	err := &ActionableError{
		Operation:   "start service",
		Resource:    "docker.service",
		Suggestions: []string{"Check 'systemctl status docker.service'", "Inspect journalctl output"},
		Cause:       errors.New("start job failed"),
	}

	plain := err.Format(false)
	if !strings.Contains(plain, "failed to start service: docker.service: start job failed") {
		t.Errorf("Format(false) missing main message, got: %q", plain)
	}
	if !strings.Contains(plain, "• Check 'systemctl status docker.service'") {
		t.Errorf("Format(false) missing suggestion bullet, got: %q", plain)
	}
	if strings.Contains(plain, "Error chain:") {
		t.Error("Format(false) should not include the error chain")
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "Error chain:") {
		t.Errorf("Format(true) should include the error chain, got: %q", verbose)
	}
	if !strings.Contains(verbose, "1. start job failed") {
		t.Errorf("Format(true) should enumerate the chain, got: %q", verbose)
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Run("requires operation", func(t *testing.T) {
		if got := NewErrorContext().WithResource("x").Build(); got != nil {
			t.Errorf("Build() without operation = %v, want nil", got)
		}
		if got := NewErrorContext().BuildError(); got != nil {
			t.Errorf("BuildError() without operation = %v, want nil", got)
		}
	})

	t.Run("carries all fields", func(t *testing.T) {
		cause := errors.New("boom")
		ae := NewErrorContext().
			WithOperation("verify container").
			WithResource("dockhand-agent").
			WithSuggestion("first").
			WithSuggestions("second", "third").
			Wrap(cause).
			Build()

		if ae.Operation != "verify container" {
			t.Errorf("Operation = %q", ae.Operation)
		}
		if ae.Resource != "dockhand-agent" {
			t.Errorf("Resource = %q", ae.Resource)
		}
		if len(ae.Suggestions) != 3 {
			t.Errorf("Suggestions = %v, want 3 entries", ae.Suggestions)
		}
		if !errors.Is(ae, cause) {
			t.Error("cause not reachable via errors.Is")
		}
		if !ae.HasSuggestions() {
			t.Error("HasSuggestions() = false, want true")
		}
	})
}

