// SPDX-License-Identifier: MPL-2.0

// Package selfupdate replaces the running dockhand binary with the latest
// GitHub release. Release lookup, download, checksum verification, and the
// binary swap go through creativeprojects/go-selfupdate; this package adds
// the policy around it: development builds are never updated, and binaries
// owned by Homebrew, go install, or a system package manager are refused
// with the upgrade command to use instead.
package selfupdate
