// SPDX-License-Identifier: MPL-2.0

// Package testutil provides shared test doubles for dockhand's tests.
//
// CommandRecorder captures the external commands a component would run
// (docker, systemctl, dnf, ...) and simulates their results through the
// helper-process pattern, so tests can assert on exact invocations without
// touching the host. Clock decouples components from wall-clock time:
// production code uses RealClock, tests use FakeClock and advance it
// manually.
package testutil
