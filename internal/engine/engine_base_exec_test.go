// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"strings"
	"testing"

	"dockhand/internal/testutil"
)

func TestBaseCLIEngine_RunCommandCapturesStdout(t *testing.T) {
	t.Parallel()

	recorder := testutil.NewCommandRecorder()
	recorder.RespondTo("docker version", testutil.CommandResponse{Stdout: "27.3.1\n"})
	engine := NewBaseCLIEngine("docker", WithExecCommand(recorder.ContextCommandFunc(t)))

	out, err := engine.RunCommand(context.Background(), "version", "--format", "{{.Server.Version}}")
	if err != nil {
		t.Fatalf("RunCommand() error = %v", err)
	}
	if strings.TrimSpace(string(out)) != "27.3.1" {
		t.Errorf("RunCommand() output = %q, want 27.3.1", out)
	}
}

func TestBaseCLIEngine_RunCommandStatusWrapsFailure(t *testing.T) {
	t.Parallel()

	recorder := testutil.NewCommandRecorder()
	recorder.SetDefault(testutil.CommandResponse{ExitCode: 1})
	engine := NewBaseCLIEngine("docker", WithExecCommand(recorder.ContextCommandFunc(t)))

	err := engine.RunCommandStatus(context.Background(), "rm", "dockhand-agent")
	if err == nil {
		t.Fatal("RunCommandStatus() should fail for exit code 1")
	}
	if !strings.Contains(err.Error(), "command docker") {
		t.Errorf("error %q should name the failing binary", err)
	}
}

func TestBaseCLIEngine_RunCommandCombinedReturnsOutputOnFailure(t *testing.T) {
	t.Parallel()

	recorder := testutil.NewCommandRecorder()
	recorder.SetDefault(testutil.CommandResponse{Stderr: "no such image", ExitCode: 1})
	engine := NewBaseCLIEngine("docker", WithExecCommand(recorder.ContextCommandFunc(t)))

	out, err := engine.RunCommandCombined(context.Background(), "pull", "nope")
	if err == nil {
		t.Fatal("RunCommandCombined() should fail")
	}
	if !strings.Contains(string(out), "no such image") {
		t.Errorf("combined output %q should include stderr", out)
	}
}

func TestBaseCLIEngine_RunCommandWithOutput(t *testing.T) {
	t.Parallel()

	recorder := testutil.NewCommandRecorder()
	recorder.RespondTo("docker inspect", testutil.CommandResponse{Stdout: "true\n"})
	engine := NewBaseCLIEngine("docker", WithExecCommand(recorder.ContextCommandFunc(t)))

	out, err := engine.RunCommandWithOutput(context.Background(), "inspect", "--format", "{{.State.Running}}", "dockhand-agent")
	if err != nil {
		t.Fatalf("RunCommandWithOutput() error = %v", err)
	}
	if strings.TrimSpace(out) != "true" {
		t.Errorf("RunCommandWithOutput() = %q, want true", out)
	}
}

func TestLastNonEmptyLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single line",
			input:    "manifest unknown",
			expected: "manifest unknown",
		},
		{
			name:     "progress noise before error",
			input:    "Pulling from dockhand/agent\nlayer abc: downloading\nError: manifest unknown\n",
			expected: "Error: manifest unknown",
		},
		{
			name:     "trailing blank lines",
			input:    "denied: requested access to the resource is denied\n\n\n",
			expected: "denied: requested access to the resource is denied",
		},
		{name: "empty", input: "", expected: ""},
		{name: "only whitespace", input: " \n\t\n", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := lastNonEmptyLine([]byte(tt.input)); got != tt.expected {
				t.Errorf("lastNonEmptyLine(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
