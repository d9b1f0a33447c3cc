// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"dockhand/internal/engine"
	"dockhand/internal/issue"
	"dockhand/internal/pkgmgr"
	"dockhand/internal/provision"
	"dockhand/internal/service"
)

// classifyProvisionError maps provisioning failures to issue catalog IDs and
// returns a styled message for CLI rendering. It preserves actionable error details.
func classifyProvisionError(err error, verbose bool) (issueID issue.Id, styledMsg string) {
	return classifyProvisionIssue(err), fmt.Sprintf("\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}

// classifyProvisionIssue resolves the catalog ID for a provisioning failure.
// Operation context is matched before sentinel errors so that a post-install
// verification failure renders the install card rather than the generic
// engine-not-found card.
func classifyProvisionIssue(err error) issue.Id {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		switch ae.Operation {
		case "install container engine", "verify container engine after install":
			return issue.EngineInstallFailedId
		case "pull container image":
			return issue.ImagePullFailedId
		case "run container", "remove leftover container":
			return issue.ContainerStartFailedId
		case "start container engine service":
			return issue.ServiceStartFailedId
		}
	}

	switch {
	case errors.Is(err, provision.ErrNotRoot):
		return issue.NotRootId
	case errors.Is(err, pkgmgr.ErrNoManager):
		return issue.NoPackageManagerId
	case errors.Is(err, service.ErrUnitNotActive):
		return issue.ServiceStartFailedId
	case errors.Is(err, provision.ErrContainerNotRunning):
		return issue.ContainerNotRunningId
	case errors.Is(err, engine.ErrNoEngineAvailable):
		return issue.EngineNotFoundId
	}

	// Unknown failures render without a catalog card.
	return 0
}
