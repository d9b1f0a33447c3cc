// SPDX-License-Identifier: MPL-2.0

// Package platform centralizes host-level facts dockhand depends on: the
// effective privileges of the process and the distribution identity read
// from /etc/os-release.
package platform
