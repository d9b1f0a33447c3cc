// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// lookPath resolves engine binaries on PATH. It is a variable so tests can
// simulate hosts with or without a given engine installed.
var lookPath = exec.LookPath

// Engine defines the interface for container engine operations.
type Engine interface {
	// Name returns the engine name (docker or podman).
	Name() string
	// Installed reports whether the engine binary is present on PATH.
	Installed() bool
	// Available reports whether the engine can actually serve requests
	// (for Docker this means the daemon answers).
	Available() bool
	// Version returns the engine version.
	Version(ctx context.Context) (string, error)

	// Pull downloads an image from its registry.
	Pull(ctx context.Context, image ImageRef) error
	// Run starts a container.
	Run(ctx context.Context, opts RunOptions) (*RunResult, error)
	// Stop stops a container, waiting up to timeout before killing it.
	Stop(ctx context.Context, name ContainerName, timeout time.Duration) error
	// Remove removes a container.
	Remove(ctx context.Context, name ContainerName, force bool) error
	// Exists reports whether a container with the given name exists.
	Exists(ctx context.Context, name ContainerName) (bool, error)
	// Running reports whether a container with the given name is running.
	Running(ctx context.Context, name ContainerName) (bool, error)
	// Inspect returns the observed state of a container.
	Inspect(ctx context.Context, name ContainerName) (*ContainerState, error)
}

// RunOptions describes the container the engine should start.
type RunOptions struct {
	// Image is the image to run.
	Image ImageRef
	// Name is the container name. Empty lets the engine pick one.
	Name ContainerName
	// Command overrides the image's default command.
	Command []string
	// Detach runs the container in the background. The engine prints the new
	// container ID, which Run captures into RunResult.ContainerID.
	Detach bool
	// Remove makes the engine delete the container once it exits.
	Remove bool
	// HostPID runs the container in the host PID namespace.
	HostPID bool
	// Ports are the port mappings to publish.
	Ports []PortMapping
	// Volumes are the bind mounts to attach.
	Volumes []VolumeMount
	// Env contains environment variables for the container.
	Env map[string]string
	// Labels are attached to the container for later identification.
	Labels map[string]string
	// StopTimeout is how long the engine waits on stop before killing the
	// container. Zero means the engine default.
	StopTimeout time.Duration
	// Stdin is the standard input for attached runs.
	Stdin io.Reader
	// Stdout is where attached runs write standard output.
	Stdout io.Writer
	// Stderr is where attached runs write standard error.
	Stderr io.Writer
}

// RunResult contains the result of running a container.
type RunResult struct {
	// ContainerID is the engine-assigned container ID. Only populated for
	// detached runs, where the engine prints it on startup.
	ContainerID string
	// ExitCode is the container's exit code. Only meaningful for attached
	// runs, which wait for the container to exit.
	ExitCode int
}

// EngineType identifies the container engine type.
type EngineType string

const (
	EngineTypeDocker EngineType = "docker"
	EngineTypePodman EngineType = "podman"
)

// ErrNoEngineAvailable is the sentinel error wrapped by EngineNotAvailableError.
var ErrNoEngineAvailable = errors.New("no container engine available")

// EngineNotAvailableError is returned when a container engine is not installed.
type EngineNotAvailableError struct {
	Engine string
	Reason string
}

// Error implements the error interface.
func (e *EngineNotAvailableError) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// Unwrap returns ErrNoEngineAvailable so callers can use errors.Is for
// programmatic detection.
func (e *EngineNotAvailableError) Unwrap() error { return ErrNoEngineAvailable }

// NewEngine creates a container engine based on preference. The preferred
// engine is used when its binary is installed; otherwise the other engine is
// tried before giving up. Installation state, not daemon state, drives the
// choice: a stopped daemon is fixed later by the service step, while a
// missing binary is fixed by the install step.
func NewEngine(preferredType EngineType, opts ...BaseCLIEngineOption) (Engine, error) {
	switch preferredType {
	case EngineTypeDocker:
		docker := NewDockerEngine(opts...)
		if docker.Installed() {
			return docker, nil
		}
		podman := NewPodmanEngine(opts...)
		if podman.Installed() {
			return podman, nil
		}
		return nil, &EngineNotAvailableError{
			Engine: string(EngineTypeDocker),
			Reason: "docker is not installed, and the podman fallback is not installed either",
		}

	case EngineTypePodman:
		podman := NewPodmanEngine(opts...)
		if podman.Installed() {
			return podman, nil
		}
		docker := NewDockerEngine(opts...)
		if docker.Installed() {
			return docker, nil
		}
		return nil, &EngineNotAvailableError{
			Engine: string(EngineTypePodman),
			Reason: "podman is not installed, and the docker fallback is not installed either",
		}

	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferredType)
	}
}

// AutoDetectEngine tries to find an installed container engine. Docker is
// tried first because it is the engine the install step provisions.
func AutoDetectEngine(opts ...BaseCLIEngineOption) (Engine, error) {
	docker := NewDockerEngine(opts...)
	if docker.Installed() {
		return docker, nil
	}

	podman := NewPodmanEngine(opts...)
	if podman.Installed() {
		return podman, nil
	}

	return nil, &EngineNotAvailableError{
		Engine: "any",
		Reason: "neither docker nor podman is installed on this system",
	}
}
