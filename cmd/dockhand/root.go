// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"dockhand/internal/issue"
	"dockhand/internal/logging"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug logging and full error chains.
	verbose bool
	// noColor disables styled output.
	noColor bool

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "dockhand",
		Short: "Provision a container engine and run the dockhand agent",
		Long: TitleStyle.Render("dockhand") + SubtitleStyle.Render(" - container runtime provisioning") + `

dockhand takes a bare Linux host to a running agent container in a
single command. It verifies superuser privileges, installs a container
engine through the host's package manager when one is missing (dnf,
pacman, or apt), starts and enables the engine's systemd unit, pulls
the agent image, and runs the container.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Run 'sudo dockhand up' on a fresh host
  2. Check the result with 'dockhand status'
  3. Tear down with 'sudo dockhand down'

` + SubtitleStyle.Render("Examples:") + `
  sudo dockhand up             Provision and start the agent in the background
  sudo dockhand run            Provision and run the agent in the foreground
  dockhand status              Inspect engine, service, and container state
  dockhand script              Print the equivalent POSIX provisioning script`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Add subcommands
	rootCmd.AddCommand(newUpCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newDownCommand())
	rootCmd.AddCommand(newScriptCommand())
	rootCmd.AddCommand(newSelfupdateCommand())
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command. It is called by main.main with the build
// version injected via -ldflags.
func Execute(version string) {
	if version != "" {
		Version = version
	}

	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// initRootConfig applies the global flags before any command runs.
func initRootConfig() {
	logging.Setup(verbose)

	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
