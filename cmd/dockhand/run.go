// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"dockhand/internal/provision"
)

// newRunCommand creates the `dockhand run` command, which provisions the host
// and runs the agent container in the foreground.
func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Provision the host and run the agent container in the foreground",
		Long: `Provision the host and run the agent container in the foreground.

The provisioning steps match 'dockhand up', but the container runs
attached to the terminal with its streams connected, removes itself on
exit, and dockhand exits with the container's own exit code.`,
		Example: `  # Run the agent in the foreground (requires root)
  sudo dockhand run

  # Run a different image once, attached
  sudo dockhand run --image ghcr.io/dockhand/agent:edge`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			return runProvision(cmd, provision.ModeAttached)
		},
	}

	addProvisionFlags(cmd)

	return cmd
}
