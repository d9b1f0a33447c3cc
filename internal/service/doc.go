// SPDX-License-Identifier: MPL-2.0

// Package service drives the container engine's systemd unit to the
// running-and-enabled state.
//
// Manager abstracts the two ways of talking to systemd: the D-Bus API
// (primary) and the systemctl CLI (fallback when no bus is reachable).
// NewManager picks between them automatically. Ensurer layers the
// provisioning policy on top: an active unit is left alone, an inactive one
// is started and re-checked once after a fixed delay, and the unit is
// enabled for boot if it is not already. That single re-check is the only
// retry in the whole program.
package service
