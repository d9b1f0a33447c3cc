// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"dockhand/internal/issue"
	"dockhand/internal/selfupdate"
)

// updateClient is the surface of selfupdate.Updater the command needs.
type updateClient interface {
	Check(ctx context.Context) (*selfupdate.Check, error)
	Apply(ctx context.Context, check *selfupdate.Check) error
}

// selfupdateParams bundles the dependencies and flags for the selfupdate
// command, enabling the core logic in runSelfupdate to be tested without a
// real Cobra command or live GitHub API calls.
type selfupdateParams struct {
	stdout  io.Writer
	updater updateClient
	check   bool // --check mode: report availability without installing
}

// newSelfupdateCommand creates the `dockhand selfupdate` command, which
// replaces the binary with the latest GitHub release.
func newSelfupdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selfupdate",
		Short: "Update dockhand to the latest release",
		Long: `Update dockhand to the latest release.

The command looks up the latest GitHub release, compares versions, and
atomically replaces the current binary. Installs owned by Homebrew,
go install, or a system package manager are refused with the upgrade
command to use instead.`,
		Example: `  # Update to the latest release
  dockhand selfupdate

  # Check for an update without installing
  dockhand selfupdate --check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			checkFlag, _ := cmd.Flags().GetBool("check")

			updater, err := selfupdate.NewUpdater(Version)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
				return &ExitError{Code: 1, Err: err}
			}

			p := selfupdateParams{
				stdout:  cmd.OutOrStdout(),
				updater: updater,
				check:   checkFlag,
			}

			if err := runSelfupdate(cmd.Context(), p); err != nil {
				renderServiceError(cmd.ErrOrStderr(), newServiceError(err, selfupdateIssueID(err), formatSelfupdateError(err)+"\n"))
				return &ExitError{Code: 1, Err: err}
			}

			return nil
		},
	}

	cmd.Flags().Bool("check", false, "Check for an available update without installing")

	return cmd
}

// runSelfupdate is the core update logic, separated from Cobra for
// testability. All user-facing output goes through p.stdout.
func runSelfupdate(ctx context.Context, p selfupdateParams) error {
	check, err := p.updater.Check(ctx)
	if err != nil {
		return fmt.Errorf("checking for update: %w", err)
	}

	fmt.Fprintf(p.stdout, "Current version: %s\n", check.CurrentVersion)
	fmt.Fprintf(p.stdout, "Latest version:  %s\n", check.LatestVersion)

	if check.UpToDate {
		fmt.Fprintln(p.stdout, "\nAlready up to date.")
		return nil
	}

	if p.check {
		fmt.Fprintf(p.stdout, "\nAn update is available: %s → %s\n", check.CurrentVersion, check.LatestVersion)
		fmt.Fprintf(p.stdout, "Run %s to install.\n", CmdStyle.Render("dockhand selfupdate"))
		return nil
	}

	fmt.Fprintf(p.stdout, "\nDownloading dockhand %s...\n", check.LatestVersion)

	if err := p.updater.Apply(ctx, check); err != nil {
		return fmt.Errorf("applying update: %w", err)
	}

	fmt.Fprintln(p.stdout, SuccessStyle.Render(fmt.Sprintf("Successfully updated to %s", check.LatestVersion)))
	return nil
}

// selfupdateIssueID picks the issue card for an update failure. Refusals
// (dev build, managed install) already carry specific guidance and skip the
// generic card.
func selfupdateIssueID(err error) issue.Id {
	if errors.Is(err, selfupdate.ErrDevBuild) || errors.Is(err, selfupdate.ErrManagedInstall) {
		return 0
	}
	return issue.SelfUpdateFailedId
}

// formatSelfupdateError produces a user-friendly error message with
// remediation guidance tailored to the specific failure.
func formatSelfupdateError(err error) string {
	var managed *selfupdate.ManagedInstallError
	if errors.As(err, &managed) {
		return fmt.Sprintf("%s installs are not updated in place\n\nUpgrade instead with:\n  %s", managed.Method, managed.Hint)
	}

	if errors.Is(err, selfupdate.ErrDevBuild) {
		return "development builds cannot self-update\n\nInstall a released build to use selfupdate."
	}

	if errors.Is(err, os.ErrPermission) {
		return "insufficient permissions to replace the binary\n\nTry running with elevated privileges:\n  sudo dockhand selfupdate"
	}

	return fmt.Sprintf("%s\n\nCheck your network connection and try again.\nIf behind a firewall, set GITHUB_TOKEN for authenticated access.", err.Error())
}
