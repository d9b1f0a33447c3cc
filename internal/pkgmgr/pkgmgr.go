// SPDX-License-Identifier: MPL-2.0

package pkgmgr

import (
	"errors"
	"os/exec"
)

// Kind identifies a supported system package manager.
type Kind string

const (
	// KindDNF is the dnf package manager (Fedora, RHEL and derivatives).
	KindDNF Kind = "dnf"
	// KindPacman is the pacman package manager (Arch Linux and derivatives).
	KindPacman Kind = "pacman"
	// KindAPT is the apt package manager (Debian, Ubuntu and derivatives).
	KindAPT Kind = "apt"
	// KindNone is returned by Detect when no supported manager is present.
	KindNone Kind = ""
)

// String returns the kind's name, or "none" for KindNone.
func (k Kind) String() string {
	if k == KindNone {
		return "none"
	}
	return string(k)
}

// ErrNoManager indicates that none of the supported package managers was
// found on PATH.
var ErrNoManager = errors.New("no supported package manager found (dnf, pacman, apt)")

// LookPathFunc is the function signature used to probe PATH for a binary.
// This allows injection of mock implementations for testing.
type LookPathFunc func(file string) (string, error)

// managerProbes lists the binary probed for each manager, in priority order.
// apt is probed through apt-get, the stable scripting entry point.
var managerProbes = []struct {
	kind   Kind
	binary string
}{
	{KindDNF, "dnf"},
	{KindPacman, "pacman"},
	{KindAPT, "apt-get"},
}

// Detector probes the host for a supported package manager.
type Detector struct {
	lookPath LookPathFunc
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithLookPath overrides how the detector probes PATH.
func WithLookPath(fn LookPathFunc) DetectorOption {
	return func(d *Detector) {
		d.lookPath = fn
	}
}

// NewDetector creates a Detector that probes the real PATH unless overridden.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{lookPath: exec.LookPath}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the highest-priority package manager found on PATH.
// The priority order is dnf, then pacman, then apt. It returns KindNone
// and ErrNoManager when no supported manager is present.
func (d *Detector) Detect() (Kind, error) {
	for _, probe := range managerProbes {
		if _, err := d.lookPath(probe.binary); err == nil {
			return probe.kind, nil
		}
	}
	return KindNone, ErrNoManager
}
