// SPDX-License-Identifier: MPL-2.0

package service

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/dbus"
)

// enabledUnitFileStates are the UnitFileState values that already mean
// "starts at boot". static units carry no [Install] section and cannot be
// enabled, so they count too.
var enabledUnitFileStates = map[string]bool{
	"enabled":         true,
	"enabled-runtime": true,
	"static":          true,
}

// dbusConn is the slice of the systemd D-Bus API the manager consumes.
// *dbus.Conn satisfies it.
type dbusConn interface {
	GetUnitPropertiesContext(ctx context.Context, unit string) (map[string]interface{}, error)
	StartUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	EnableUnitFilesContext(ctx context.Context, files []string, runtime bool, force bool) (bool, []dbus.EnableUnitFileChange, error)
	ReloadContext(ctx context.Context) error
	Close()
}

var _ dbusConn = (*dbus.Conn)(nil)

// DBusManager drives systemd through its D-Bus API.
type DBusManager struct {
	conn dbusConn
}

var _ Manager = (*DBusManager)(nil)

// NewDBusManager connects to the systemd bus.
func NewDBusManager(ctx context.Context) (*DBusManager, error) {
	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to systemd bus: %w", err)
	}
	return &DBusManager{conn: conn}, nil
}

// IsActive reports whether the unit's ActiveState is "active".
func (m *DBusManager) IsActive(ctx context.Context, unit string) (bool, error) {
	props, err := m.conn.GetUnitPropertiesContext(ctx, unit)
	if err != nil {
		return false, fmt.Errorf("failed to query properties of %s: %w", unit, err)
	}
	state, _ := props["ActiveState"].(string)
	return state == "active", nil
}

// IsEnabled reports whether the unit's UnitFileState counts as enabled.
func (m *DBusManager) IsEnabled(ctx context.Context, unit string) (bool, error) {
	props, err := m.conn.GetUnitPropertiesContext(ctx, unit)
	if err != nil {
		return false, fmt.Errorf("failed to query properties of %s: %w", unit, err)
	}
	state, _ := props["UnitFileState"].(string)
	return enabledUnitFileStates[state], nil
}

// Start queues a start job in replace mode and waits for its result.
func (m *DBusManager) Start(ctx context.Context, unit string) error {
	// Buffered so systemd's completion callback never blocks.
	result := make(chan string, 1)
	if _, err := m.conn.StartUnitContext(ctx, unit, "replace", result); err != nil {
		return fmt.Errorf("failed to start %s: %w", unit, err)
	}
	select {
	case r := <-result:
		if r != "done" {
			return fmt.Errorf("start job for %s finished with result %q", unit, r)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for %s to start: %w", unit, ctx.Err())
	}
}

// Enable persistently enables the unit file and reloads the systemd
// configuration so the change takes effect.
func (m *DBusManager) Enable(ctx context.Context, unit string) error {
	if _, _, err := m.conn.EnableUnitFilesContext(ctx, []string{unit}, false, true); err != nil {
		return fmt.Errorf("failed to enable %s: %w", unit, err)
	}
	if err := m.conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("failed to reload systemd after enabling %s: %w", unit, err)
	}
	return nil
}

// Close closes the bus connection.
func (m *DBusManager) Close() {
	m.conn.Close()
}
