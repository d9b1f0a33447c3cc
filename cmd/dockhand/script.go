// SPDX-License-Identifier: EPL-2.0

package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"dockhand/internal/config"
	"dockhand/internal/provision"
)

// newScriptCommand creates the `dockhand script` command, which prints the
// provisioning flow as a standalone POSIX shell script.
func newScriptCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "script",
		Short: "Print the equivalent POSIX provisioning script",
		Long: `Print the equivalent POSIX provisioning script.

The script performs the same steps the up command would run, with the
current settings baked in: privilege check, conditional engine install,
service start, image pull, and container start. Nothing on this host is
touched; use it to review the exact commands or to provision machines
where dockhand itself cannot run.`,
		Example: `  # Review what 'dockhand up' would do
  dockhand script

  # Capture the foreground (run) variant
  dockhand script --attached > provision.sh

  # Bake in a different image
  DOCKHAND_IMAGE=ghcr.io/dockhand/agent:edge dockhand script`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			cfg, err := config.Load()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
				return &ExitError{Code: 1, Err: err}
			}

			mode := provision.ModeDetached
			if attached, _ := cmd.Flags().GetBool("attached"); attached {
				mode = provision.ModeAttached
			}

			script, err := provision.Script(cfg, mode, uuid.NewString())
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
				return &ExitError{Code: 1, Err: err}
			}

			fmt.Fprint(cmd.OutOrStdout(), script)
			return nil
		},
	}

	cmd.Flags().Bool("attached", false, "emit the foreground (run) variant instead of the background (up) variant")

	return cmd
}
