// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"dockhand/internal/config"

	"github.com/spf13/cobra"
)

// addProvisionFlags registers the settings flags shared by up and run.
// Every flag defaults to the value internal/config resolves, so a flagless
// invocation reproduces the fixed provisioning behavior.
func addProvisionFlags(cmd *cobra.Command) {
	cmd.Flags().String("image", "", "agent image reference (default "+config.DefaultImage+")")
	cmd.Flags().String("name", "", "agent container name (default "+config.DefaultContainerName+")")
	cmd.Flags().String("data-dir", "", "host directory bind-mounted into the container (default ./"+config.DefaultDataDirName+")")
	cmd.Flags().Uint16("port", 0, fmt.Sprintf("host port published to the agent (default %d)", config.DefaultHostPort))
	cmd.Flags().Bool("skip-install", false, "fail instead of installing when no container engine is present")
}

// loadSettings resolves Settings from defaults and DOCKHAND_* environment
// variables, then overlays any flags explicitly set on cmd.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := applyProvisionFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyProvisionFlags copies explicitly-set flag values onto cfg and
// re-validates. Unset flags leave the resolved settings untouched, and
// commands without the provision flags pass through unchanged.
func applyProvisionFlags(cmd *cobra.Command, cfg *config.Settings) error {
	flags := cmd.Flags()

	if flags.Changed("image") {
		cfg.Image, _ = flags.GetString("image")
	}
	if flags.Changed("name") {
		cfg.ContainerName, _ = flags.GetString("name")
	}
	if flags.Changed("data-dir") {
		dir, _ := flags.GetString("data-dir")
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("failed to resolve data directory %q: %w", dir, err)
		}
		cfg.DataDir = abs
	}
	if flags.Changed("port") {
		cfg.HostPort, _ = flags.GetUint16("port")
	}

	return cfg.Validate()
}
