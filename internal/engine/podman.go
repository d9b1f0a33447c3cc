// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// selinuxEnforcePath exposes the kernel's SELinux enforcement state. It is a
// variable so tests can point it at a fixture.
var selinuxEnforcePath = "/sys/fs/selinux/enforce"

// PodmanEngine implements the Engine interface using the Podman CLI.
// It embeds BaseCLIEngine for common CLI operations.
type PodmanEngine struct {
	*BaseCLIEngine
}

var _ Engine = (*PodmanEngine)(nil)

// NewPodmanEngine creates a new Podman engine.
// On Linux with SELinux enforcing, volume mounts are automatically labeled
// with :z so container processes can access the bind-mounted host paths.
func NewPodmanEngine(opts ...BaseCLIEngineOption) *PodmanEngine {
	path, _ := lookPath("podman")

	allOpts := append([]BaseCLIEngineOption{
		WithName(string(EngineTypePodman)),
		WithVolumeFormatter(formatVolumeMountSELinux),
	}, opts...)

	return &PodmanEngine{
		BaseCLIEngine: NewBaseCLIEngine(HostFilesystemPath(path), allOpts...),
	}
}

// Available checks whether Podman can serve requests. Podman is daemonless,
// so a working binary is enough.
func (e *PodmanEngine) Available() bool {
	if !e.Installed() {
		return false
	}
	cmd := e.CreateCommand(context.Background(), "version", "--format", "{{.Version}}")
	return cmd.Run() == nil
}

// Version returns the Podman version.
func (e *PodmanEngine) Version(ctx context.Context) (string, error) {
	out, err := e.RunCommandWithOutput(ctx, "version", "--format", "{{.Version}}")
	if err != nil {
		return "", fmt.Errorf("failed to get podman version: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// isSELinuxEnforcing reports whether SELinux is in enforcing mode.
func isSELinuxEnforcing() bool {
	data, err := os.ReadFile(selinuxEnforcePath)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "1"
}

// formatVolumeMountSELinux formats a volume mount for -v, adding the shared
// :z label when SELinux is enforcing and the mount does not already carry a
// label.
func formatVolumeMountSELinux(mount VolumeMount) string {
	if mount.SELinux == SELinuxLabelNone && isSELinuxEnforcing() {
		mount.SELinux = SELinuxLabelShared
	}
	return FormatVolumeMount(mount)
}
