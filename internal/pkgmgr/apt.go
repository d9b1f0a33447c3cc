// SPDX-License-Identifier: MPL-2.0

package pkgmgr

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"dockhand/internal/platform"
)

// aptBaseURL is a var so tests can point it at a local server.
var aptBaseURL = "https://download.docker.com/linux"

const (
	aptKeyPath    = "/etc/apt/keyrings/docker.asc"
	aptSourcePath = "/etc/apt/sources.list.d/docker.list"
)

// aptNonInteractiveEnv suppresses debconf prompts during installation.
var aptNonInteractiveEnv = []string{"DEBIAN_FRONTEND=noninteractive"}

// APTInstaller installs the engine from Docker's upstream deb repository.
type APTInstaller struct {
	*base
}

// Kind reports which package manager this installer drives.
func (i *APTInstaller) Kind() Kind { return KindAPT }

// Install registers the upstream Docker CE repository (signing key plus
// source entry derived from /etc/os-release), refreshes the package index
// and installs the engine packages through apt-get.
func (i *APTInstaller) Install(ctx context.Context) error {
	rel, err := platform.ReadOSRelease(i.osReleasePath)
	if err != nil {
		return fmt.Errorf("failed to identify distribution: %w", err)
	}
	if rel.VersionCodename == "" {
		return &platform.MissingOSReleaseFieldError{Field: "VERSION_CODENAME", Path: i.osReleasePath}
	}

	repoURL := fmt.Sprintf("%s/%s", aptBaseURL, aptDistro(rel))
	slog.Debug("registering docker-ce deb repository", "url", repoURL, "codename", rel.VersionCodename)
	if err := i.fetchToFile(ctx, repoURL+"/gpg", i.path(aptKeyPath), 0o644); err != nil {
		return fmt.Errorf("failed to fetch docker signing key: %w", err)
	}

	entry := fmt.Sprintf("deb [arch=%s signed-by=%s] %s %s stable\n",
		debArch(runtime.GOARCH), aptKeyPath, repoURL, rel.VersionCodename)
	if err := i.writeFile(i.path(aptSourcePath), []byte(entry), 0o644); err != nil {
		return fmt.Errorf("failed to write apt source entry: %w", err)
	}

	if err := i.run(ctx, "apt-get", "update"); err != nil {
		return fmt.Errorf("apt-get update failed: %w", err)
	}

	args := append([]string{"install", "-y"}, enginePackages...)
	slog.Debug("installing engine packages", "manager", KindAPT, "packages", enginePackages)
	if err := i.runEnv(ctx, aptNonInteractiveEnv, "apt-get", args...); err != nil {
		return fmt.Errorf("apt-get install failed: %w", err)
	}
	return nil
}

// aptDistro maps the distribution identity onto the path segment Docker
// uses for its deb repositories. Derivatives resolve through ID_LIKE;
// debian is the fallback since its codenames are the upstream baseline.
func aptDistro(rel *platform.OSRelease) string {
	switch rel.ID {
	case "ubuntu":
		return "ubuntu"
	case "debian":
		return "debian"
	}
	if strings.Contains(rel.IDLike, "ubuntu") {
		return "ubuntu"
	}
	return "debian"
}

// debArch maps a GOARCH value onto the dpkg architecture naming used in
// apt source entries.
func debArch(goarch string) string {
	switch goarch {
	case "amd64":
		return "amd64"
	case "arm64":
		return "arm64"
	case "arm":
		return "armhf"
	case "386":
		return "i386"
	case "ppc64le":
		return "ppc64el"
	default:
		return goarch
	}
}
