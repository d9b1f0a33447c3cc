// SPDX-License-Identifier: MPL-2.0

// Package pkgmgr detects the host's package manager and installs the
// container engine through it.
//
// Detection probes PATH for dnf, pacman, and apt-get in that fixed priority
// order and reports the first hit; hosts without any supported manager get
// ErrNoManager. NewInstaller returns the matching Installer, each of which
// performs its manager-specific sequence: repository registration where the
// distribution does not ship the engine (dnf, apt) followed by a
// non-interactive package installation. Exactly one installer ever runs per
// provisioning pass.
package pkgmgr
