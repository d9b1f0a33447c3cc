// SPDX-License-Identifier: MPL-2.0

package platform

import "os"

// RootChecker abstracts privilege checking for testability.
type RootChecker interface {
	// IsRoot returns true if the current process has root privileges.
	IsRoot() bool
}

// EUIDChecker checks privileges via the effective UID of the process.
// This is the production RootChecker on Unix-like systems.
type EUIDChecker struct{}

// IsRoot returns true when the effective UID is 0.
func (EUIDChecker) IsRoot() bool { return os.Geteuid() == 0 }

// IsRoot reports whether the current process runs with root privileges.
// Package-level convenience for callers that don't need injection.
func IsRoot() bool { return EUIDChecker{}.IsRoot() }
