// SPDX-License-Identifier: MPL-2.0

// Package provision sequences the steps that take a bare Linux host to a
// running agent container: privilege check, container engine detection,
// conditional engine install through the system package manager, systemd
// service activation, image pull, and the container run itself.
//
// The flow is strictly linear and fail-fast. Every step short-circuits the
// run on error, and the privilege check comes first so a non-root invocation
// produces no side effect at all. Collaborators (engine, package manager
// detector, installers, service ensurer) are injected so the whole flow is
// testable without touching the host.
//
// Two run modes exist. ModeDetached starts the container in the background,
// replacing a previous container of the same name, and verifies it is
// running afterwards. ModeAttached runs the container in the foreground with
// self-remove and reports its exit code through *ContainerExitError.
package provision
