// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"errors"
	"fmt"

	"dockhand/internal/pkgmgr"
)

// Mode selects how the agent container is run.
type Mode string

const (
	// ModeDetached starts the container in the background and verifies that
	// it is running afterwards.
	ModeDetached Mode = "detached"
	// ModeAttached runs the container in the foreground with self-remove and
	// propagates its exit code.
	ModeAttached Mode = "attached"
)

// Step identifies one stage of the provisioning flow, in execution order.
type Step string

const (
	// StepPrivileges verifies the process runs as root.
	StepPrivileges Step = "privileges"
	// StepEngine checks whether a container engine is installed.
	StepEngine Step = "engine"
	// StepInstall installs the engine through the system package manager.
	// It only runs when StepEngine found no engine.
	StepInstall Step = "install"
	// StepService starts and enables the engine's systemd unit.
	StepService Step = "service"
	// StepPull downloads the agent image.
	StepPull Step = "pull"
	// StepCleanup removes a leftover container with the agent's name.
	// Detached mode only.
	StepCleanup Step = "cleanup"
	// StepRun starts the agent container.
	StepRun Step = "run"
	// StepVerify confirms the container state after the run.
	StepVerify Step = "verify"
)

// StepObserver is notified as each step begins. The CLI layer uses it to
// drive progress output; implementations must not block.
type StepObserver func(step Step, detail string)

// Result describes a finished provisioning run.
type Result struct {
	// Mode is the run mode the flow executed in.
	Mode Mode
	// Engine is the name of the container engine that served the run.
	Engine string
	// EngineVersion is the engine's reported version, when it answered.
	EngineVersion string
	// Installed reports whether this run installed the engine.
	Installed bool
	// Installer is the package manager that performed the install, KindNone
	// when no install happened.
	Installer pkgmgr.Kind
	// Replaced reports whether a leftover container of the same name was
	// removed before the run. Detached mode only.
	Replaced bool
	// ContainerID is the started container's ID. Detached mode only.
	ContainerID string
	// ExitCode is the container's exit code. Attached mode only.
	ExitCode int
	// RunID is the value of the run ID label attached to the container.
	RunID string
}

// ErrNotRoot indicates the process lacks the superuser privileges the flow
// requires.
var ErrNotRoot = errors.New("superuser privileges required")

// ErrContainerNotRunning indicates post-run verification found the agent
// container not running.
var ErrContainerNotRunning = errors.New("agent container is not running")

// ContainerExitError reports a nonzero exit of the foreground container in
// attached mode. It is not a provisioning failure: the flow itself completed
// and the container's own status becomes the process exit code.
type ContainerExitError struct {
	Code int
}

// Error implements the error interface.
func (e *ContainerExitError) Error() string {
	return fmt.Sprintf("container exited with status %d", e.Code)
}
