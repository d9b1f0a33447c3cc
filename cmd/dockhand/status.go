// SPDX-License-Identifier: EPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"dockhand/internal/config"
	"dockhand/internal/engine"
	"dockhand/internal/provision"
	"dockhand/internal/service"
)

// statusReport is the full status document, shaped for json and yaml output.
type statusReport struct {
	Engine    engineStatus    `json:"engine" yaml:"engine"`
	Service   serviceStatus   `json:"service" yaml:"service"`
	Container containerStatus `json:"container" yaml:"container"`
}

type engineStatus struct {
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Installed bool   `json:"installed" yaml:"installed"`
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
}

type serviceStatus struct {
	Unit    string `json:"unit" yaml:"unit"`
	Active  bool   `json:"active" yaml:"active"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

type containerStatus struct {
	Name      string `json:"name" yaml:"name"`
	Exists    bool   `json:"exists" yaml:"exists"`
	Running   bool   `json:"running" yaml:"running"`
	Image     string `json:"image,omitempty" yaml:"image,omitempty"`
	Status    string `json:"status,omitempty" yaml:"status,omitempty"`
	RunID     string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	StartedAt string `json:"started_at,omitempty" yaml:"started_at,omitempty"`
}

// statusParams bundles the dependencies for the status command, enabling the
// core logic in runStatus to be tested without a live engine or systemd.
type statusParams struct {
	stdout  io.Writer
	cfg     *config.Settings
	eng     engine.Engine // nil when no engine resolved
	manager service.Manager
	output  string
}

// newStatusCommand creates the `dockhand status` command, which reports
// engine, service, and agent container state.
func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report engine, service, and agent container state",
		Long: `Report engine, service, and agent container state.

Everything is best-effort and read-only: a missing engine, an unreachable
systemd, or an absent container are reported as such rather than failing
the command. Root is not required, though some engines hide their state
from unprivileged users.`,
		Example: `  # Human-readable table
  dockhand status

  # Machine-readable output
  dockhand status --output json
  dockhand status --output yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			output, _ := cmd.Flags().GetString("output")
			switch output {
			case "table", "json", "yaml":
			default:
				return fmt.Errorf("invalid output format %q (valid: table, json, yaml)", output)
			}

			cfg, err := config.Load()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
				return &ExitError{Code: 1, Err: err}
			}

			// A host without any engine still gets a report.
			eng, err := provision.ResolveEngine(cfg)
			if err != nil {
				slog.Debug("no engine resolved for status", "error", err)
				eng = nil
			}

			manager := service.NewManager(cmd.Context())
			defer manager.Close()

			p := statusParams{
				stdout:  cmd.OutOrStdout(),
				cfg:     cfg,
				eng:     eng,
				manager: manager,
				output:  output,
			}

			if err := runStatus(cmd.Context(), p); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
				return &ExitError{Code: 1, Err: err}
			}

			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "table", "output format (table, json, yaml)")

	return cmd
}

// runStatus collects the report and renders it in the requested format.
func runStatus(ctx context.Context, p statusParams) error {
	report := collectStatus(ctx, p)

	switch p.output {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode status as json: %w", err)
		}
		fmt.Fprintln(p.stdout, string(data))
	case "yaml":
		data, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to encode status as yaml: %w", err)
		}
		fmt.Fprint(p.stdout, string(data))
	default:
		renderStatusTable(p.stdout, report)
	}

	return nil
}

// collectStatus probes each component, treating every failure as absence.
func collectStatus(ctx context.Context, p statusParams) *statusReport {
	report := &statusReport{}

	unitEngine := p.cfg.Engine
	if p.eng != nil {
		unitEngine = p.eng.Name()

		report.Engine.Name = p.eng.Name()
		report.Engine.Installed = true
		if version, err := p.eng.Version(ctx); err != nil {
			slog.Debug("engine version probe failed", "error", err)
		} else {
			report.Engine.Version = version
		}
	}

	report.Service.Unit = provision.ServiceUnitFor(p.cfg, unitEngine)
	if active, err := p.manager.IsActive(ctx, report.Service.Unit); err != nil {
		slog.Debug("service active probe failed", "unit", report.Service.Unit, "error", err)
	} else {
		report.Service.Active = active
	}
	if enabled, err := p.manager.IsEnabled(ctx, report.Service.Unit); err != nil {
		slog.Debug("service enabled probe failed", "unit", report.Service.Unit, "error", err)
	} else {
		report.Service.Enabled = enabled
	}

	report.Container.Name = p.cfg.ContainerName
	if p.eng == nil {
		return report
	}

	state, err := p.eng.Inspect(ctx, engine.ContainerName(p.cfg.ContainerName))
	if err != nil {
		slog.Debug("container inspect failed", "container", p.cfg.ContainerName, "error", err)
		return report
	}

	report.Container.Exists = true
	report.Container.Running = state.Running
	report.Container.Image = state.Image
	report.Container.Status = state.Status
	report.Container.RunID = state.Labels[provision.RunIDLabel]
	if !state.StartedAt.IsZero() {
		report.Container.StartedAt = state.StartedAt.Format(time.RFC3339)
	}

	return report
}

// renderStatusTable prints the report as a rounded table with styled states.
func renderStatusTable(w io.Writer, report *statusReport) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"COMPONENT", "STATE", "DETAILS"})

	engineState := ErrorStyle.Render("missing")
	engineDetail := "no container engine installed"
	if report.Engine.Installed {
		engineState = SuccessStyle.Render("installed")
		engineDetail = report.Engine.Name
		if report.Engine.Version != "" {
			engineDetail += " " + report.Engine.Version
		}
	}
	t.AppendRow(table.Row{"engine", engineState, engineDetail})

	serviceState := WarningStyle.Render("inactive")
	if report.Service.Active {
		serviceState = SuccessStyle.Render("active")
	}
	serviceDetail := report.Service.Unit
	if report.Service.Enabled {
		serviceDetail += ", enabled at boot"
	} else {
		serviceDetail += ", not enabled"
	}
	t.AppendRow(table.Row{"service", serviceState, serviceDetail})

	containerState := WarningStyle.Render("absent")
	containerDetail := report.Container.Name
	switch {
	case report.Container.Running:
		containerState = SuccessStyle.Render("running")
	case report.Container.Exists:
		containerState = ErrorStyle.Render("stopped")
	}
	if report.Container.Image != "" {
		containerDetail += ", " + report.Container.Image
	}
	if report.Container.RunID != "" {
		containerDetail += ", run " + report.Container.RunID
	}
	t.AppendRow(table.Row{"container", containerState, containerDetail})

	t.Render()
}
