// SPDX-License-Identifier: EPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"dockhand/internal/config"
	"dockhand/internal/engine"
	"dockhand/internal/issue"
	"dockhand/internal/provision"
)

// stubEngine is a canned engine.Engine for command tests. Field values drive
// the responses; calls records invocations in order.
type stubEngine struct {
	calls []string

	name       string
	version    string
	versionErr error
	exists     bool
	existsErr  error
	running    bool
	runningErr error
	stopErr    error
	removeErr  error
	state      *engine.ContainerState
	inspectErr error
}

var _ engine.Engine = (*stubEngine)(nil)

func (s *stubEngine) Name() string    { return s.name }
func (s *stubEngine) Installed() bool { return true }
func (s *stubEngine) Available() bool { return true }

func (s *stubEngine) Version(_ context.Context) (string, error) {
	s.calls = append(s.calls, "version")
	return s.version, s.versionErr
}

func (s *stubEngine) Pull(_ context.Context, image engine.ImageRef) error {
	s.calls = append(s.calls, "pull "+string(image))
	return nil
}

func (s *stubEngine) Run(_ context.Context, opts engine.RunOptions) (*engine.RunResult, error) {
	s.calls = append(s.calls, "run "+string(opts.Image))
	return &engine.RunResult{}, nil
}

func (s *stubEngine) Stop(_ context.Context, name engine.ContainerName, _ time.Duration) error {
	s.calls = append(s.calls, "stop "+string(name))
	return s.stopErr
}

func (s *stubEngine) Remove(_ context.Context, name engine.ContainerName, force bool) error {
	s.calls = append(s.calls, fmt.Sprintf("remove %s force=%t", name, force))
	return s.removeErr
}

func (s *stubEngine) Exists(_ context.Context, name engine.ContainerName) (bool, error) {
	s.calls = append(s.calls, "exists "+string(name))
	return s.exists, s.existsErr
}

func (s *stubEngine) Running(_ context.Context, name engine.ContainerName) (bool, error) {
	s.calls = append(s.calls, "running "+string(name))
	return s.running, s.runningErr
}

func (s *stubEngine) Inspect(_ context.Context, name engine.ContainerName) (*engine.ContainerState, error) {
	s.calls = append(s.calls, "inspect "+string(name))
	if s.inspectErr != nil {
		return nil, s.inspectErr
	}
	if s.state != nil {
		return s.state, nil
	}
	return &engine.ContainerState{Name: string(name), Running: s.running}, nil
}

// downTestSettings returns a Settings fixture for down/status tests.
func downTestSettings() *config.Settings {
	return &config.Settings{
		Image:         "ghcr.io/dockhand/agent:latest",
		ContainerName: "dockhand-agent",
		HostPort:      9301,
		ContainerPort: 9301,
		DataMountPath: "/data",
		SocketPath:    "/var/run/docker.sock",
		ServiceUnit:   "docker.service",
		StopTimeout:   30 * time.Second,
		RecheckDelay:  3 * time.Second,
	}
}

func TestRunDownRefusesNonRoot(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	eng := &stubEngine{name: "docker"}
	p := downParams{
		stdout:  &stdout,
		stderr:  &stderr,
		cfg:     downTestSettings(),
		eng:     eng,
		isRoot:  func() bool { return false },
		timeout: 30 * time.Second,
	}

	err := runDown(context.Background(), p)
	if !errors.Is(err, provision.ErrNotRoot) {
		t.Fatalf("runDown() error = %v, want ErrNotRoot", err)
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("runDown() error should be actionable, got %T", err)
	}
	if ae.Operation != "verify superuser privileges" {
		t.Errorf("operation = %q, want %q", ae.Operation, "verify superuser privileges")
	}

	// The privilege gate runs before any engine call.
	if len(eng.calls) != 0 {
		t.Errorf("engine calls = %v, want none", eng.calls)
	}
}

func TestRunDownAbsentContainerIsSuccess(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	eng := &stubEngine{name: "docker", exists: false}
	p := downParams{
		stdout:  &stdout,
		stderr:  &stderr,
		cfg:     downTestSettings(),
		eng:     eng,
		isRoot:  func() bool { return true },
		timeout: 30 * time.Second,
	}

	if err := runDown(context.Background(), p); err != nil {
		t.Fatalf("runDown() error = %v, want nil", err)
	}

	if !strings.Contains(stdout.String(), "not found, nothing to do") {
		t.Errorf("stdout = %q, want absent-container notice", stdout.String())
	}

	wantCalls := []string{"exists dockhand-agent"}
	if !slices.Equal(eng.calls, wantCalls) {
		t.Errorf("engine calls = %v, want %v", eng.calls, wantCalls)
	}
}

func TestRunDownStopsThenRemovesRunningContainer(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	eng := &stubEngine{name: "docker", exists: true, running: true}
	p := downParams{
		stdout:  &stdout,
		stderr:  &stderr,
		cfg:     downTestSettings(),
		eng:     eng,
		isRoot:  func() bool { return true },
		timeout: time.Minute,
	}

	if err := runDown(context.Background(), p); err != nil {
		t.Fatalf("runDown() error = %v, want nil", err)
	}

	wantCalls := []string{
		"exists dockhand-agent",
		"running dockhand-agent",
		"stop dockhand-agent",
		"remove dockhand-agent force=false",
	}
	if !slices.Equal(eng.calls, wantCalls) {
		t.Errorf("engine calls = %v, want %v", eng.calls, wantCalls)
	}

	if !strings.Contains(stdout.String(), "Stopped and removed dockhand-agent") {
		t.Errorf("stdout = %q, want removal confirmation", stdout.String())
	}
}

func TestRunDownSkipsStopForExitedContainer(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	eng := &stubEngine{name: "docker", exists: true, running: false}
	p := downParams{
		stdout:  &stdout,
		stderr:  &stderr,
		cfg:     downTestSettings(),
		eng:     eng,
		isRoot:  func() bool { return true },
		timeout: 30 * time.Second,
	}

	if err := runDown(context.Background(), p); err != nil {
		t.Fatalf("runDown() error = %v, want nil", err)
	}

	wantCalls := []string{
		"exists dockhand-agent",
		"running dockhand-agent",
		"remove dockhand-agent force=false",
	}
	if !slices.Equal(eng.calls, wantCalls) {
		t.Errorf("engine calls = %v, want %v", eng.calls, wantCalls)
	}
}

func TestRunDownSurfacesStopFailure(t *testing.T) {
	t.Parallel()

	stopErr := fmt.Errorf("engine timed out")
	var stdout, stderr bytes.Buffer
	eng := &stubEngine{name: "docker", exists: true, running: true, stopErr: stopErr}
	p := downParams{
		stdout:  &stdout,
		stderr:  &stderr,
		cfg:     downTestSettings(),
		eng:     eng,
		isRoot:  func() bool { return true },
		timeout: 30 * time.Second,
	}

	err := runDown(context.Background(), p)
	if !errors.Is(err, stopErr) {
		t.Fatalf("runDown() error = %v, want wrapped stop error", err)
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("runDown() error should be actionable, got %T", err)
	}
	if ae.Operation != "stop container" {
		t.Errorf("operation = %q, want %q", ae.Operation, "stop container")
	}

	// A failed stop must not proceed to removal.
	if slices.Contains(eng.calls, "remove dockhand-agent force=false") {
		t.Errorf("engine calls = %v, remove should not run after failed stop", eng.calls)
	}
}

func TestRunDownSurfacesRemoveFailure(t *testing.T) {
	t.Parallel()

	removeErr := fmt.Errorf("container is locked")
	var stdout, stderr bytes.Buffer
	eng := &stubEngine{name: "docker", exists: true, running: false, removeErr: removeErr}
	p := downParams{
		stdout:  &stdout,
		stderr:  &stderr,
		cfg:     downTestSettings(),
		eng:     eng,
		isRoot:  func() bool { return true },
		timeout: 30 * time.Second,
	}

	err := runDown(context.Background(), p)
	if !errors.Is(err, removeErr) {
		t.Fatalf("runDown() error = %v, want wrapped remove error", err)
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("runDown() error should be actionable, got %T", err)
	}
	if ae.Operation != "remove container" {
		t.Errorf("operation = %q, want %q", ae.Operation, "remove container")
	}
}
