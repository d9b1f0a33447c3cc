// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"dockhand/internal/config"
	"dockhand/internal/provision"
	"dockhand/pkg/types"

	"github.com/spf13/cobra"
)

// runProvision drives the provisioning flow shared by up and run. It loads
// settings, runs the Provisioner with a progress observer attached, and
// converts failures into rendered issue cards plus an ExitError.
func runProvision(cmd *cobra.Command, mode provision.Mode) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
		return &ExitError{Code: 1, Err: err}
	}

	skipInstall, _ := cmd.Flags().GetBool("skip-install")

	progress := newStepProgress(cmd.OutOrStdout())
	defer progress.stop()

	p := provision.New(cfg, mode,
		provision.WithSkipInstall(skipInstall),
		provision.WithObserver(progress.observe),
		provision.WithStdio(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()),
	)

	result, err := p.Run(cmd.Context())
	progress.stop()
	if err != nil {
		return provisionFailure(cmd.ErrOrStderr(), err)
	}

	printProvisionSummary(cmd.OutOrStdout(), cfg, result)
	return nil
}

// provisionFailure renders a provisioning error and wraps it in an ExitError.
// A container that started and then exited non-zero is not a provisioning
// failure: its exit code passes through unchanged.
func provisionFailure(stderr io.Writer, err error) error {
	var containerExit *provision.ContainerExitError
	if errors.As(err, &containerExit) {
		if verbose {
			fmt.Fprintf(stderr, "%s %s\n", WarningStyle.Render("!"), err.Error())
		}
		return &ExitError{Code: types.ExitCode(containerExit.Code), Err: err}
	}

	issueID, styled := classifyProvisionError(err, verbose)
	renderServiceError(stderr, newServiceError(err, issueID, styled))
	return &ExitError{Code: 1, Err: err}
}

// printProvisionSummary reports the completed flow. Attached runs stay
// silent: the container's own output already went to stdout, and a clean
// exit is the signal.
func printProvisionSummary(out io.Writer, cfg *config.Settings, result *provision.Result) {
	if result.Mode == provision.ModeAttached {
		return
	}

	fmt.Fprintln(out, SuccessStyle.Render(fmt.Sprintf("Agent container %s is running", cfg.ContainerName)))
	if result.ContainerID != "" {
		fmt.Fprintf(out, "  Container ID: %s\n", result.ContainerID)
	}
	fmt.Fprintf(out, "  Engine:       %s", result.Engine)
	if result.EngineVersion != "" {
		fmt.Fprintf(out, " %s", result.EngineVersion)
	}
	fmt.Fprintln(out)
	if result.Installed {
		fmt.Fprintf(out, "  Installed:    engine via %s\n", result.Installer)
	}
	if result.Replaced {
		fmt.Fprintf(out, "  Replaced:     previous %s container\n", cfg.ContainerName)
	}
	fmt.Fprintf(out, "  Published:    %d:%d/tcp\n", cfg.HostPort, cfg.ContainerPort)
	fmt.Fprintf(out, "  Data dir:     %s mounted at %s\n", cfg.DataDir, cfg.DataMountPath)
	fmt.Fprintf(out, "\nInspect with %s\n", CmdStyle.Render("dockhand status"))
}
