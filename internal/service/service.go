// SPDX-License-Identifier: MPL-2.0

package service

import (
	"context"
	"log/slog"
)

// Manager queries and mutates the state of a systemd unit.
type Manager interface {
	// IsActive reports whether the unit is currently running.
	IsActive(ctx context.Context, unit string) (bool, error)

	// IsEnabled reports whether the unit is configured to start at boot.
	IsEnabled(ctx context.Context, unit string) (bool, error)

	// Start starts the unit and waits for the start job to finish.
	Start(ctx context.Context, unit string) error

	// Enable configures the unit to start at boot.
	Enable(ctx context.Context, unit string) error

	// Close releases any resources held by the manager.
	Close()
}

// NewManager returns the best available Manager: systemd's D-Bus API when
// the bus is reachable, otherwise the systemctl CLI.
func NewManager(ctx context.Context) Manager {
	m, err := NewDBusManager(ctx)
	if err != nil {
		slog.Debug("systemd bus unavailable, using systemctl", "error", err)
		return NewSystemctlManager()
	}
	return m
}
