// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for dockhand.
//
// This package implements the Cobra command hierarchy for the dockhand CLI:
// the root command, the provisioning commands (up, run), and the supporting
// commands for inspection and lifecycle (status, down, script, selfupdate).
package cmd
