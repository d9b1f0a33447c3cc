// SPDX-License-Identifier: MPL-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// defaultRecheckDelay is how long a freshly started unit gets to settle
// before the single re-check.
const defaultRecheckDelay = 3 * time.Second

// ErrUnitNotActive is the sentinel error wrapped by UnitNotActiveError.
var ErrUnitNotActive = errors.New("unit not active")

// UnitNotActiveError is returned when a unit is still inactive after a
// start and the single fixed-delay re-check.
type UnitNotActiveError struct {
	Unit string
}

// Error implements the error interface.
func (e *UnitNotActiveError) Error() string {
	return fmt.Sprintf("systemd unit %s did not become active after start", e.Unit)
}

// Unwrap returns ErrUnitNotActive so callers can use errors.Is for
// programmatic detection.
func (e *UnitNotActiveError) Unwrap() error { return ErrUnitNotActive }

// Clock is the subset of time behavior the ensurer needs. Tests swap in a
// fake so the re-check delay does not really elapse.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

// systemClock is the production Clock.
type systemClock struct{}

func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Ensurer drives a unit to the running-and-enabled state.
type Ensurer struct {
	manager      Manager
	recheckDelay time.Duration
	clock        Clock
}

// EnsurerOption configures an Ensurer.
type EnsurerOption func(*Ensurer)

// WithRecheckDelay overrides the fixed delay before the post-start re-check.
func WithRecheckDelay(d time.Duration) EnsurerOption {
	return func(e *Ensurer) {
		e.recheckDelay = d
	}
}

// WithClock overrides the clock used to wait out the re-check delay.
func WithClock(c Clock) EnsurerOption {
	return func(e *Ensurer) {
		e.clock = c
	}
}

// NewEnsurer creates an Ensurer using the given manager.
func NewEnsurer(manager Manager, opts ...EnsurerOption) *Ensurer {
	e := &Ensurer{
		manager:      manager,
		recheckDelay: defaultRecheckDelay,
		clock:        systemClock{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ensure drives unit to active and enabled. An already-active unit is left
// alone. After a start the unit gets the fixed delay to settle and is
// re-checked exactly once; a unit still inactive then is a fatal condition.
// Finally the unit is enabled for boot unless it already is.
func (e *Ensurer) Ensure(ctx context.Context, unit string) error {
	active, err := e.manager.IsActive(ctx, unit)
	if err != nil {
		return err
	}
	if active {
		slog.Debug("unit already active", "unit", unit)
	} else {
		if err := e.manager.Start(ctx, unit); err != nil {
			return err
		}
		slog.Debug("unit started, waiting before re-check", "unit", unit, "delay", e.recheckDelay)
		select {
		case <-e.clock.After(e.recheckDelay):
		case <-ctx.Done():
			return fmt.Errorf("waiting to re-check %s: %w", unit, ctx.Err())
		}
		active, err = e.manager.IsActive(ctx, unit)
		if err != nil {
			return err
		}
		if !active {
			return &UnitNotActiveError{Unit: unit}
		}
	}

	enabled, err := e.manager.IsEnabled(ctx, unit)
	if err != nil {
		return err
	}
	if enabled {
		slog.Debug("unit already enabled", "unit", unit)
		return nil
	}
	return e.manager.Enable(ctx, unit)
}
