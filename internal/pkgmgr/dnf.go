// SPDX-License-Identifier: MPL-2.0

package pkgmgr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"dockhand/internal/platform"
)

// Repo file URLs are vars so tests can point them at a local server.
var (
	dnfRepoURLFedora = "https://download.docker.com/linux/fedora/docker-ce.repo"
	dnfRepoURLCentOS = "https://download.docker.com/linux/centos/docker-ce.repo"
)

const dnfRepoPath = "/etc/yum.repos.d/docker-ce.repo"

// DNFInstaller installs the engine from Docker's upstream rpm repository.
type DNFInstaller struct {
	*base
}

// Kind reports which package manager this installer drives.
func (i *DNFInstaller) Kind() Kind { return KindDNF }

// Install registers the upstream Docker CE repository and installs the
// engine packages through dnf.
func (i *DNFInstaller) Install(ctx context.Context) error {
	repoURL := i.repoURL()
	slog.Debug("registering docker-ce rpm repository", "url", repoURL, "dest", dnfRepoPath)
	if err := i.fetchToFile(ctx, repoURL, i.path(dnfRepoPath), 0o644); err != nil {
		return fmt.Errorf("failed to register docker-ce repository: %w", err)
	}

	args := append([]string{"-y", "install"}, enginePackages...)
	slog.Debug("installing engine packages", "manager", KindDNF, "packages", enginePackages)
	if err := i.run(ctx, "dnf", args...); err != nil {
		return fmt.Errorf("dnf install failed: %w", err)
	}
	return nil
}

// repoURL picks the upstream repo file matching the host distribution.
// Docker publishes separate repo files for Fedora and the RHEL family;
// Fedora is the fallback when the distribution cannot be determined.
func (i *DNFInstaller) repoURL() string {
	rel, err := platform.ReadOSRelease(i.osReleasePath)
	if err != nil {
		return dnfRepoURLFedora
	}
	family := rel.ID + " " + rel.IDLike
	if strings.Contains(family, "rhel") || strings.Contains(family, "centos") {
		return dnfRepoURLCentOS
	}
	return dnfRepoURLFedora
}
