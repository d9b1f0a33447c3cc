// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"dockhand/internal/provision"
)

// newUpCommand creates the `dockhand up` command, which provisions the host
// and starts the agent container in the background.
func newUpCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Provision the host and start the agent container in the background",
		Long: `Provision the host and start the agent container in the background.

The command checks for superuser privileges, installs a container engine
through the host's package manager when one is missing, starts and enables
the engine's systemd unit, pulls the agent image, replaces any previous
agent container with the same name, and starts a new one detached.

Any step failing aborts the run; nothing is retried except a single
re-check after starting the engine service.`,
		Example: `  # Provision with the default image and ports
  sudo dockhand up

  # Override the agent image and published port
  sudo dockhand up --image ghcr.io/dockhand/agent:edge --port 9302

  # Fail instead of installing when no engine is present
  sudo dockhand up --skip-install`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			return runProvision(cmd, provision.ModeDetached)
		},
	}

	addProvisionFlags(cmd)

	return cmd
}
