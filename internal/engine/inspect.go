// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ContainerState is the subset of engine inspect output the provisioning
// flow and status reporting read.
type ContainerState struct {
	// ID is the engine-assigned container ID.
	ID string
	// Name is the container name, without the leading slash Docker adds.
	Name string
	// Image is the image reference the container was created from.
	Image string
	// Status is the engine's human-readable status (running, exited, ...).
	Status string
	// Running reports whether the container is currently running.
	Running bool
	// ExitCode is the exit code of the last run, for stopped containers.
	ExitCode int
	// StartedAt is when the container last started. Zero when the engine
	// did not report a parseable timestamp.
	StartedAt time.Time
	// Labels are the container labels.
	Labels map[string]string
}

// inspectRecord mirrors the fields of docker/podman inspect output that
// ContainerState is built from. Both engines emit a JSON array of these.
type inspectRecord struct {
	ID    string `json:"Id"`
	Name  string `json:"Name"`
	State struct {
		Status    string `json:"Status"`
		Running   bool   `json:"Running"`
		ExitCode  int    `json:"ExitCode"`
		StartedAt string `json:"StartedAt"`
	} `json:"State"`
	Config struct {
		Image  string            `json:"Image"`
		Labels map[string]string `json:"Labels"`
	} `json:"Config"`
}

// Exists reports whether a container with the given name exists.
// Any inspect failure is treated as "does not exist".
func (e *BaseCLIEngine) Exists(ctx context.Context, name ContainerName) (bool, error) {
	if err := name.Validate(); err != nil {
		return false, err
	}
	err := e.RunCommandStatus(ctx, "inspect", "--type", "container", string(name))
	return err == nil, nil
}

// Running reports whether a container with the given name is currently
// running. A container that does not exist is not running.
func (e *BaseCLIEngine) Running(ctx context.Context, name ContainerName) (bool, error) {
	if err := name.Validate(); err != nil {
		return false, err
	}
	out, err := e.RunCommandWithOutput(ctx, "inspect", "--type", "container", "--format", "{{.State.Running}}", string(name))
	if err != nil {
		return false, nil
	}
	return strings.TrimSpace(out) == "true", nil
}

// Inspect returns the observed state of a container.
func (e *BaseCLIEngine) Inspect(ctx context.Context, name ContainerName) (*ContainerState, error) {
	if err := name.Validate(); err != nil {
		return nil, err
	}

	out, err := e.RunCommand(ctx, "inspect", "--type", "container", string(name))
	if err != nil {
		return nil, err
	}

	states, err := parseInspectOutput(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s inspect output for %s: %w", e.name, name, err)
	}
	if len(states) == 0 {
		return nil, fmt.Errorf("%s inspect returned no results for container %s", e.name, name)
	}
	return &states[0], nil
}

// parseInspectOutput decodes the JSON array docker/podman inspect emits.
func parseInspectOutput(data []byte) ([]ContainerState, error) {
	var records []inspectRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	states := make([]ContainerState, 0, len(records))
	for _, r := range records {
		state := ContainerState{
			ID:       r.ID,
			Name:     strings.TrimPrefix(r.Name, "/"),
			Image:    r.Config.Image,
			Status:   r.State.Status,
			Running:  r.State.Running,
			ExitCode: r.State.ExitCode,
			Labels:   r.Config.Labels,
		}
		// Podman and Docker both emit RFC 3339 timestamps; a zero or
		// unparseable value leaves StartedAt at its zero value.
		if ts, err := time.Parse(time.RFC3339Nano, r.State.StartedAt); err == nil {
			state.StartedAt = ts
		}
		states = append(states, state)
	}
	return states, nil
}
