// SPDX-License-Identifier: MPL-2.0

// Package config resolves dockhand's runtime settings. Every setting has a
// compiled-in default that a DOCKHAND_* environment variable or a
// command-line flag can override; there is no configuration file.
package config
