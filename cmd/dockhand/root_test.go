// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"
	"testing"

	"dockhand/internal/issue"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v0.3.0"
		Commit = "abc1234"
		BuildDate = "2026-08-01T10:00:00Z"

		got := getVersionString()
		want := "v0.3.0 (commit: abc1234, built: 2026-08-01T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build falls back to source label", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "dev"
		Commit = "unknown"
		BuildDate = "unknown"

		got := getVersionString()
		want := "dev (built from source)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestFormatErrorForDisplay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		verbose    bool
		wantTokens []string
	}{
		{
			name:       "plain error renders its message",
			err:        fmt.Errorf("image pull timed out"),
			wantTokens: []string{"image pull timed out"},
		},
		{
			name: "actionable error includes suggestions",
			err: issue.NewErrorContext().
				WithOperation("start container engine service").
				WithResource("docker.service").
				WithSuggestion("Check 'journalctl -u docker.service'").
				Wrap(fmt.Errorf("job failed")).
				BuildError(),
			wantTokens: []string{"failed to start container engine service", "docker.service", "journalctl"},
		},
		{
			name: "verbose actionable error includes the chain",
			err: issue.NewErrorContext().
				WithOperation("pull container image").
				Wrap(fmt.Errorf("dial registry: %w", fmt.Errorf("connection refused"))).
				BuildError(),
			verbose:    true,
			wantTokens: []string{"Error chain:", "connection refused"},
		},
		{
			name:       "non-actionable error ignores verbose mode",
			err:        fmt.Errorf("boom"),
			verbose:    true,
			wantTokens: []string{"boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := formatErrorForDisplay(tt.err, tt.verbose)
			for _, token := range tt.wantTokens {
				if !strings.Contains(got, token) {
					t.Fatalf("formatErrorForDisplay() = %q, missing token %q", got, token)
				}
			}
		})
	}
}
