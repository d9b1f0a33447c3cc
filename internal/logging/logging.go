// SPDX-License-Identifier: MPL-2.0

// Package logging wires the process-wide slog default to a charmbracelet/log
// handler so every package logs through the standard log/slog API while the
// CLI renders pretty, leveled output on stderr.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
)

// Setup installs the default logger on os.Stderr.
// Called once from the CLI layer before any command logic runs.
func Setup(verbose bool) {
	slog.SetDefault(New(os.Stderr, verbose))
}

// New builds a slog.Logger backed by a charmbracelet/log handler.
// Split out from Setup so tests can capture output without touching
// the process-wide default.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}

	handler := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})

	return slog.New(handler)
}
