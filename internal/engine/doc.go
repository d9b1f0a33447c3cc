// SPDX-License-Identifier: MPL-2.0

// Package engine provides a unified abstraction layer for container engines
// (Docker/Podman).
//
// The Engine interface defines the operations the provisioning flow needs:
// Pull, Run, Stop, Remove, Exists, Running, and Inspect, plus the Installed
// and Available probes that decide whether an engine must be installed or its
// daemon started. Two implementations are provided: DockerEngine and
// PodmanEngine, both embedding BaseCLIEngine for shared CLI argument
// construction and command execution.
//
// Engine selection uses NewEngine(EngineType) with automatic fallback if the
// preferred engine is not installed, or AutoDetectEngine() for
// preference-less detection (Docker is tried first, since it is the engine
// the install step knows how to provision).
package engine
