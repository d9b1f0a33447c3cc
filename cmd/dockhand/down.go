// SPDX-License-Identifier: EPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"dockhand/internal/config"
	"dockhand/internal/engine"
	"dockhand/internal/issue"
	"dockhand/internal/platform"
	"dockhand/internal/provision"
)

// downParams bundles the dependencies and flags for the down command,
// enabling the core logic in runDown to be tested without a real Cobra
// command or a live container engine.
type downParams struct {
	stdout  io.Writer
	stderr  io.Writer
	cfg     *config.Settings
	eng     engine.Engine
	isRoot  func() bool
	timeout time.Duration
}

// newDownCommand creates the `dockhand down` command, which stops and
// removes the agent container.
func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Stop and remove the agent container",
		Long: `Stop and remove the agent container.

The container is given a grace period to stop before the engine kills it.
When no container with the configured name exists, the command reports
that and exits successfully.`,
		Example: `  # Stop and remove with the default 30s grace period
  sudo dockhand down

  # Give the agent a minute to shut down
  sudo dockhand down --timeout 1m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			cfg, err := config.Load()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
				return &ExitError{Code: 1, Err: err}
			}

			timeout, _ := cmd.Flags().GetDuration("timeout")

			eng, err := provision.ResolveEngine(cfg)
			if err != nil {
				issueID, styled := classifyProvisionError(err, verbose)
				renderServiceError(cmd.ErrOrStderr(), newServiceError(err, issueID, styled))
				return &ExitError{Code: 1, Err: err}
			}

			p := downParams{
				stdout:  cmd.OutOrStdout(),
				stderr:  cmd.ErrOrStderr(),
				cfg:     cfg,
				eng:     eng,
				isRoot:  platform.IsRoot,
				timeout: timeout,
			}

			if err := runDown(cmd.Context(), p); err != nil {
				issueID, styled := classifyProvisionError(err, verbose)
				renderServiceError(cmd.ErrOrStderr(), newServiceError(err, issueID, styled))
				return &ExitError{Code: 1, Err: err}
			}

			return nil
		},
	}

	cmd.Flags().Duration("timeout", config.DefaultStopTimeout, "how long to wait for the container to stop before it is killed")

	return cmd
}

// runDown is the core teardown logic, separated from Cobra for testability.
// Stopping is idempotent: an absent container is success, not an error.
func runDown(ctx context.Context, p downParams) error {
	if !p.isRoot() {
		return issue.NewErrorContext().
			WithOperation("verify superuser privileges").
			WithSuggestion("Re-run the command with sudo").
			Wrap(provision.ErrNotRoot).
			BuildError()
	}

	name := engine.ContainerName(p.cfg.ContainerName)

	exists, err := p.eng.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check container %s: %w", name, err)
	}
	if !exists {
		fmt.Fprintf(p.stdout, "Container %s not found, nothing to do\n", name)
		return nil
	}

	running, err := p.eng.Running(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check container %s: %w", name, err)
	}

	if running {
		if err := p.eng.Stop(ctx, name, p.timeout); err != nil {
			return issue.NewErrorContext().
				WithOperation("stop container").
				WithResource(string(name)).
				Wrap(err).
				BuildError()
		}
	}

	if err := p.eng.Remove(ctx, name, false); err != nil {
		return issue.NewErrorContext().
			WithOperation("remove container").
			WithResource(string(name)).
			Wrap(err).
			BuildError()
	}

	fmt.Fprintln(p.stdout, SuccessStyle.Render(fmt.Sprintf("Stopped and removed %s", name)))
	return nil
}
