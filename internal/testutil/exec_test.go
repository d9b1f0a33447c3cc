// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"bytes"
	"context"
	"testing"
)

// TestHelperProcess is invoked by commands the recorder creates.
// It is not a real test.
func TestHelperProcess(t *testing.T) { RunHelperProcess() }

func TestCommandRecorder_RecordsInvocations(t *testing.T) {
	recorder := NewCommandRecorder()
	execCommand := recorder.ContextCommandFunc(t)

	cmd := execCommand(context.Background(), "docker", "pull", "alpine:3.20")
	if err := cmd.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	recorder.AssertInvocationCount(t, 1)
	recorder.AssertCommandName(t, "docker")
	recorder.AssertFirstArg(t, "pull")
	recorder.AssertArgsContain(t, "alpine:3.20")
}

func TestCommandRecorder_DefaultResponseSucceeds(t *testing.T) {
	recorder := NewCommandRecorder()
	execCommand := recorder.CommandFunc(t)

	if err := execCommand("systemctl", "daemon-reload").Run(); err != nil {
		t.Fatalf("default response should succeed, got %v", err)
	}
}

func TestCommandRecorder_RespondToMatchesPrefix(t *testing.T) {
	recorder := NewCommandRecorder()
	recorder.RespondTo("docker version", CommandResponse{Stdout: "27.3.1"})
	recorder.RespondTo("docker", CommandResponse{ExitCode: 1, Stderr: "unexpected"})
	execCommand := recorder.CommandFunc(t)

	var stdout bytes.Buffer
	cmd := execCommand("docker", "version", "--format", "{{.Server.Version}}")
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout.String() != "27.3.1" {
		t.Errorf("stdout = %q, want %q", stdout.String(), "27.3.1")
	}

	// The broader rule catches everything else under the docker name.
	if err := execCommand("docker", "ps").Run(); err == nil {
		t.Error("expected the fallback docker rule to fail the command")
	}
}

func TestCommandRecorder_SequentialResponses(t *testing.T) {
	recorder := NewCommandRecorder()
	recorder.RespondTo("systemctl is-active",
		CommandResponse{Stdout: "inactive", ExitCode: 3},
		CommandResponse{Stdout: "active"},
	)
	execCommand := recorder.CommandFunc(t)

	if err := execCommand("systemctl", "is-active", "docker.service").Run(); err == nil {
		t.Error("first probe should report inactive via exit code 3")
	}
	if err := execCommand("systemctl", "is-active", "docker.service").Run(); err != nil {
		t.Errorf("second probe should report active, got %v", err)
	}
	// The last response repeats for any further probes.
	if err := execCommand("systemctl", "is-active", "docker.service").Run(); err != nil {
		t.Errorf("third probe should keep reporting active, got %v", err)
	}
}

func TestCommandRecorder_StderrAndExitCode(t *testing.T) {
	recorder := NewCommandRecorder()
	recorder.SetDefault(CommandResponse{Stderr: "manifest unknown", ExitCode: 1})
	execCommand := recorder.CommandFunc(t)

	var stderr bytes.Buffer
	cmd := execCommand("docker", "pull", "ghcr.io/nope/nope:latest")
	cmd.Stderr = &stderr

	if err := cmd.Run(); err == nil {
		t.Fatal("expected error for non-zero exit code")
	}
	if stderr.String() != "manifest unknown" {
		t.Errorf("stderr = %q, want %q", stderr.String(), "manifest unknown")
	}
}

func TestCommandRecorder_CommandLinesPreserveOrder(t *testing.T) {
	recorder := NewCommandRecorder()
	execCommand := recorder.CommandFunc(t)

	_ = execCommand("docker", "pull", "img").Run()
	_ = execCommand("docker", "run", "-d", "img").Run()

	lines := recorder.CommandLines()
	want := []string{"docker pull img", "docker run -d img"}
	if len(lines) != len(want) {
		t.Fatalf("CommandLines() = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("CommandLines()[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestCommandRecorder_HasArgPair(t *testing.T) {
	recorder := NewCommandRecorder()
	execCommand := recorder.CommandFunc(t)

	_ = execCommand("docker", "run", "--name", "dockhand-agent", "img").Run()

	if !recorder.HasArgPair("--name", "dockhand-agent") {
		t.Error("expected --name dockhand-agent pair")
	}
	if recorder.HasArgPair("--name", "other") {
		t.Error("unexpected --name other pair")
	}
}

func TestCommandRecorder_Reset(t *testing.T) {
	recorder := NewCommandRecorder()
	execCommand := recorder.CommandFunc(t)

	_ = execCommand("docker", "ps").Run()
	recorder.Reset()

	recorder.AssertNoInvocations(t)
}
