// SPDX-License-Identifier: MPL-2.0

package pkgmgr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"dockhand/internal/platform"
)

// enginePackages are the upstream Docker CE packages installed by the
// managers that use Docker's own repositories (dnf, apt). pacman installs
// the distribution's docker package instead.
var enginePackages = []string{"docker-ce", "docker-ce-cli", "containerd.io"}

// defaultHTTPClient downloads repository material. Request cancellation is
// handled per request via context; the timeout is a backstop.
var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// InstallerOption configures an Installer produced by NewInstaller.
	InstallerOption func(*base)

	// Installer installs the container engine through one specific package
	// manager. Install is a one-shot operation; idempotence across runs
	// comes from the caller only invoking it when the engine is absent.
	Installer interface {
		// Kind reports which package manager this installer drives.
		Kind() Kind
		// Install registers any required repositories and installs the
		// engine packages.
		Install(ctx context.Context) error
	}

	// base carries the collaborators shared by every installer: how
	// package-manager commands are spawned, how repository material is
	// downloaded, and where the filesystem root lives. Tests point fsRoot
	// at a temp dir so repo files and keyrings land there.
	base struct {
		execCommand   ExecCommandFunc
		httpClient    *http.Client
		fsRoot        string
		osReleasePath string
	}
)

// WithExecCommand overrides how installer commands are spawned.
func WithExecCommand(fn ExecCommandFunc) InstallerOption {
	return func(b *base) {
		b.execCommand = fn
	}
}

// WithHTTPClient overrides the client used to download repository material.
func WithHTTPClient(client *http.Client) InstallerOption {
	return func(b *base) {
		b.httpClient = client
	}
}

// WithFSRoot re-roots the paths the installer writes under (repo files,
// keyrings, source lists).
func WithFSRoot(dir string) InstallerOption {
	return func(b *base) {
		b.fsRoot = dir
	}
}

// WithOSReleasePath overrides where distribution identity is read from.
func WithOSReleasePath(path string) InstallerOption {
	return func(b *base) {
		b.osReleasePath = path
	}
}

func newBase(opts ...InstallerOption) *base {
	b := &base{
		execCommand:   exec.CommandContext,
		httpClient:    defaultHTTPClient,
		fsRoot:        "/",
		osReleasePath: platform.DefaultOSReleasePath,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewInstaller returns the installer for the given package manager.
func NewInstaller(kind Kind, opts ...InstallerOption) (Installer, error) {
	b := newBase(opts...)
	switch kind {
	case KindDNF:
		return &DNFInstaller{base: b}, nil
	case KindPacman:
		return &PacmanInstaller{base: b}, nil
	case KindAPT:
		return &APTInstaller{base: b}, nil
	default:
		return nil, fmt.Errorf("no installer for package manager %q: %w", kind, ErrNoManager)
	}
}

// path re-roots an absolute host path under the configured filesystem root.
func (b *base) path(hostPath string) string {
	return filepath.Join(b.fsRoot, hostPath)
}

// run executes a package-manager command and waits for it to finish.
func (b *base) run(ctx context.Context, name string, args ...string) error {
	return b.runEnv(ctx, nil, name, args...)
}

// runEnv is run with extra environment variables layered on top of the
// command's environment. It appends rather than replaces so injected test
// commands keep the environment they were created with.
func (b *base) runEnv(ctx context.Context, extraEnv []string, name string, args ...string) error {
	cmd := b.execCommand(ctx, name, args...)
	if len(extraEnv) > 0 {
		env := cmd.Env
		if env == nil {
			env = os.Environ()
		}
		cmd.Env = append(env, extraEnv...)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		if msg := lastNonEmptyLine(output); msg != "" {
			return fmt.Errorf("command %s %v failed: %w: %s", name, args, err, msg)
		}
		return fmt.Errorf("command %s %v failed: %w", name, args, err)
	}
	return nil
}

// fetchToFile downloads url and writes the body to dest, creating parent
// directories as needed.
func (b *base) fetchToFile(ctx context.Context, url, dest string, perm os.FileMode) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch %s: unexpected status %s", url, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", url, err)
	}
	return b.writeFile(dest, body, perm)
}

// writeFile writes data to path, creating parent directories as needed.
func (b *base) writeFile(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// lastNonEmptyLine returns the last line of output that contains anything,
// which is where package managers put their actual error.
func lastNonEmptyLine(output []byte) string {
	lines := bytes.Split(bytes.TrimSpace(output), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		if line := bytes.TrimSpace(lines[i]); len(line) > 0 {
			return string(line)
		}
	}
	return ""
}
