// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"errors"
	"fmt"

	updatelib "github.com/creativeprojects/go-selfupdate"
)

// DefaultRepoSlug is the GitHub repository (owner/repo) checked for releases.
const DefaultRepoSlug = "dockhand/dockhand"

var (
	// ErrDevBuild is returned when the running binary carries no release
	// version. Development builds are not standard releases and must not be
	// replaced by one.
	ErrDevBuild = errors.New("development builds cannot self-update")

	// ErrManagedInstall is returned when the binary belongs to an external
	// installer (Homebrew, go install, a distribution package) that owns
	// its upgrades.
	ErrManagedInstall = errors.New("binary is managed by an external installer")
)

// ManagedInstallError reports a refused update together with the upgrade
// command the user should run instead.
type ManagedInstallError struct {
	Method InstallMethod
	Hint   string
}

func (e *ManagedInstallError) Error() string {
	return fmt.Sprintf("%s installs cannot self-update, %s", e.Method, e.Hint)
}

func (e *ManagedInstallError) Unwrap() error {
	return ErrManagedInstall
}

// Check holds the outcome of a release lookup. A Check with UpToDate false
// can be passed to Apply to perform the swap.
type Check struct {
	CurrentVersion string
	LatestVersion  string
	ReleaseNotes   string
	UpToDate       bool

	release *updatelib.Release
}

// Updater checks GitHub for newer dockhand releases and replaces the running
// binary in place. Construct one with NewUpdater.
type Updater struct {
	version  string
	slug     string
	lib      *updatelib.Updater
	execPath func() (string, error)
	detect   func(string) InstallMethod
}

// Option configures an Updater.
type Option func(*Updater)

// WithRepoSlug overrides the GitHub repository checked for releases.
func WithRepoSlug(slug string) Option {
	return func(u *Updater) {
		u.slug = slug
	}
}

// WithExecutablePath overrides how the running binary is located. Used in
// tests to avoid touching the real executable.
func WithExecutablePath(fn func() (string, error)) Option {
	return func(u *Updater) {
		u.execPath = fn
	}
}

// WithInstallDetector overrides install-method detection. Used in tests.
func WithInstallDetector(fn func(string) InstallMethod) Option {
	return func(u *Updater) {
		u.detect = fn
	}
}

// NewUpdater returns an Updater for the given running version.
func NewUpdater(currentVersion string, opts ...Option) (*Updater, error) {
	lib, err := updatelib.NewUpdater(updatelib.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize updater: %w", err)
	}

	u := &Updater{
		version:  currentVersion,
		slug:     DefaultRepoSlug,
		lib:      lib,
		execPath: updatelib.ExecutablePath,
		detect:   DetectInstallMethod,
	}
	for _, opt := range opts {
		opt(u)
	}

	return u, nil
}

// Check looks up the latest GitHub release and compares it against the
// running version. The development-build gate runs before any network call.
func (u *Updater) Check(ctx context.Context) (*Check, error) {
	if u.version == "" || u.version == "dev" {
		return nil, ErrDevBuild
	}

	latest, found, err := u.lib.DetectLatest(ctx, updatelib.ParseSlug(u.slug))
	if err != nil {
		return nil, fmt.Errorf("failed to detect the latest release of %s: %w", u.slug, err)
	}
	if !found {
		return nil, fmt.Errorf("no release found for %s", u.slug)
	}

	return &Check{
		CurrentVersion: u.version,
		LatestVersion:  latest.Version(),
		ReleaseNotes:   latest.ReleaseNotes,
		UpToDate:       !latest.GreaterThan(u.version),
		release:        latest,
	}, nil
}

// Apply downloads the release from check and swaps the running binary.
// Installs owned by an external manager are refused before any download.
func (u *Updater) Apply(ctx context.Context, check *Check) error {
	if check == nil || check.release == nil {
		return errors.New("no release to apply, run a check first")
	}

	exe, err := u.execPath()
	if err != nil {
		return fmt.Errorf("failed to locate the running executable: %w", err)
	}

	if method := u.detect(exe); !method.SelfUpdatable() {
		return &ManagedInstallError{Method: method, Hint: method.UpgradeHint()}
	}

	if err := u.lib.UpdateTo(ctx, check.release, exe); err != nil {
		return fmt.Errorf("failed to update to %s: %w", check.LatestVersion, err)
	}

	return nil
}
