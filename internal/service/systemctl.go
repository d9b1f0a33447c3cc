// SPDX-License-Identifier: MPL-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ExecCommandFunc is the function signature for creating exec.Cmd.
// This allows injection of mock implementations for testing.
type ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

// SystemctlManager drives systemd through the systemctl CLI. It is the
// fallback when no D-Bus socket is reachable.
type SystemctlManager struct {
	execCommand ExecCommandFunc
}

var _ Manager = (*SystemctlManager)(nil)

// SystemctlOption configures a SystemctlManager.
type SystemctlOption func(*SystemctlManager)

// WithExecCommand overrides how systemctl is spawned.
func WithExecCommand(fn ExecCommandFunc) SystemctlOption {
	return func(m *SystemctlManager) {
		m.execCommand = fn
	}
}

// NewSystemctlManager creates a CLI-backed manager.
func NewSystemctlManager(opts ...SystemctlOption) *SystemctlManager {
	m := &SystemctlManager{execCommand: exec.CommandContext}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IsActive reports whether the unit is running. systemctl is-active exits
// nonzero for every state other than active, so an exit error is a clean no.
func (m *SystemctlManager) IsActive(ctx context.Context, unit string) (bool, error) {
	return m.query(ctx, "is-active", unit)
}

// IsEnabled reports whether the unit starts at boot, following the same
// exit-status convention as IsActive.
func (m *SystemctlManager) IsEnabled(ctx context.Context, unit string) (bool, error) {
	return m.query(ctx, "is-enabled", unit)
}

// Start starts the unit.
func (m *SystemctlManager) Start(ctx context.Context, unit string) error {
	return m.runVerb(ctx, "start", unit)
}

// Enable configures the unit to start at boot.
func (m *SystemctlManager) Enable(ctx context.Context, unit string) error {
	return m.runVerb(ctx, "enable", unit)
}

// Close is a no-op; every invocation is a separate process.
func (m *SystemctlManager) Close() {}

func (m *SystemctlManager) query(ctx context.Context, verb, unit string) (bool, error) {
	cmd := m.execCommand(ctx, "systemctl", verb, unit)
	if err := cmd.Run(); err != nil {
		if _, ok := errors.AsType[*exec.ExitError](err); ok {
			return false, nil
		}
		return false, fmt.Errorf("command systemctl %s %s failed: %w", verb, unit, err)
	}
	return true, nil
}

func (m *SystemctlManager) runVerb(ctx context.Context, verb, unit string) error {
	cmd := m.execCommand(ctx, "systemctl", verb, unit)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(output)); msg != "" {
			return fmt.Errorf("command systemctl %s %s failed: %w: %s", verb, unit, err, msg)
		}
		return fmt.Errorf("command systemctl %s %s failed: %w", verb, unit, err)
	}
	return nil
}
